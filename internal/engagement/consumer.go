package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// Consumer long-polls the SQS engagement queue and applies each event
// through the Service. Messages are deleted on success and on permanent
// failures (unknown token, invalid argument) so they never poison the
// queue; transient store errors leave the message for redelivery.
type Consumer struct {
	sqsClient *sqs.Client
	queueURL  string
	svc       *Service
	done      chan struct{}
}

// NewConsumer creates a consumer over the given queue.
func NewConsumer(sqsClient *sqs.Client, queueURL string, svc *Service) *Consumer {
	return &Consumer{
		sqsClient: sqsClient,
		queueURL:  queueURL,
		svc:       svc,
		done:      make(chan struct{}),
	}
}

// Start launches the polling loop.
func (c *Consumer) Start(ctx context.Context) {
	logger.Info("engagement consumer started", "queue", c.queueURL)
	go c.poll(ctx)
}

// Stop ends the polling loop.
func (c *Consumer) Stop() {
	close(c.done)
}

func (c *Consumer) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		out, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("sqs receive failed", "error", err.Error())
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range out.Messages {
			var evt Event
			if err := json.Unmarshal([]byte(*msg.Body), &evt); err != nil {
				logger.Error("bad engagement message", "error", err.Error())
				c.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}

			if err := c.apply(ctx, evt); err != nil {
				if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) {
					c.deleteMessage(ctx, msg.ReceiptHandle)
					continue
				}
				logger.Error("apply engagement event failed", "type", string(evt.Type), "error", err.Error())
				continue
			}

			c.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, evt Event) error {
	caller := domain.Caller{IPAddress: evt.IPAddress, UserAgent: evt.UserAgent, Referrer: evt.Referrer}

	switch evt.Type {
	case domain.EngagementOpen:
		return c.svc.RecordOpen(ctx, evt.Token, caller)
	case domain.EngagementView:
		return c.svc.RecordView(ctx, evt.Token, caller)
	case domain.EngagementDownload:
		return c.svc.RecordDownload(ctx, evt.Token, caller)
	case domain.EngagementScroll:
		return c.svc.RecordScrollDepth(ctx, evt.Token, evt.Percent, caller)
	case domain.EngagementTime:
		return c.svc.RecordTimeSpent(ctx, evt.Token, evt.Milliseconds, caller)
	case domain.EngagementClick:
		return c.svc.RecordClick(ctx, evt.Token, evt.ElementID, evt.ElementText, caller)
	default:
		logger.Warn("unknown engagement event type", "type", string(evt.Type))
		return nil
	}
}

func (c *Consumer) deleteMessage(ctx context.Context, handle *string) {
	c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	})
}
