package engagement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

// Event is the wire form of one beacon on the SQS engagement queue.
type Event struct {
	Type         domain.EngagementType `json:"type"`
	Token        string                `json:"token"`
	Percent      int                   `json:"percent,omitempty"`
	Milliseconds int64                 `json:"milliseconds,omitempty"`
	ElementID    string                `json:"element_id,omitempty"`
	ElementText  string                `json:"element_text,omitempty"`
	IPAddress    string                `json:"ip_address"`
	UserAgent    string                `json:"user_agent"`
	Referrer     string                `json:"referrer,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// Publisher is the Recorder used by the public beacon edge. It validates
// what it can without the database, then enqueues the event and returns.
// Publishing is fire and forget; a queue failure is logged, never surfaced
// to the recipient.
//
// The edge cannot resolve tokens, so Record methods that would 404 on an
// unknown token accept every token here. The consumer drops unknowns.
type Publisher struct {
	client   *sqs.Client
	queueURL string
}

// NewPublisher creates an SQS-backed Recorder.
func NewPublisher(client *sqs.Client, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

func (p *Publisher) RecordOpen(ctx context.Context, token string, c domain.Caller) error {
	p.publish(Event{Type: domain.EngagementOpen, Token: token, IPAddress: c.IPAddress, UserAgent: c.UserAgent, Referrer: c.Referrer, Timestamp: time.Now().UTC()})
	return nil
}

func (p *Publisher) RecordView(ctx context.Context, token string, c domain.Caller) error {
	p.publish(Event{Type: domain.EngagementView, Token: token, IPAddress: c.IPAddress, UserAgent: c.UserAgent, Referrer: c.Referrer, Timestamp: time.Now().UTC()})
	return nil
}

func (p *Publisher) RecordDownload(ctx context.Context, token string, c domain.Caller) error {
	p.publish(Event{Type: domain.EngagementDownload, Token: token, IPAddress: c.IPAddress, UserAgent: c.UserAgent, Referrer: c.Referrer, Timestamp: time.Now().UTC()})
	return nil
}

func (p *Publisher) RecordScrollDepth(ctx context.Context, token string, percent int, c domain.Caller) error {
	if err := ValidateScrollPercent(percent); err != nil {
		return err
	}
	p.publish(Event{Type: domain.EngagementScroll, Token: token, Percent: percent, IPAddress: c.IPAddress, UserAgent: c.UserAgent, Timestamp: time.Now().UTC()})
	return nil
}

func (p *Publisher) RecordTimeSpent(ctx context.Context, token string, milliseconds int64, c domain.Caller) error {
	if err := ValidateTimeSpent(milliseconds); err != nil {
		return err
	}
	p.publish(Event{Type: domain.EngagementTime, Token: token, Milliseconds: milliseconds, IPAddress: c.IPAddress, UserAgent: c.UserAgent, Timestamp: time.Now().UTC()})
	return nil
}

func (p *Publisher) RecordClick(ctx context.Context, token, elementID, elementText string, c domain.Caller) error {
	p.publish(Event{
		Type:        domain.EngagementClick,
		Token:       token,
		ElementID:   elementID,
		ElementText: elementText,
		IPAddress:   c.IPAddress,
		UserAgent:   c.UserAgent,
		Referrer:    c.Referrer,
		Timestamp:   time.Now().UTC(),
	})
	return nil
}

func (p *Publisher) publish(evt Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		logger.Error("marshal engagement event failed", "type", string(evt.Type), "error", err.Error())
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			logger.Error("publish engagement event failed", "type", string(evt.Type), "error", err.Error())
		}
	}()
}
