package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/cleanbid/backend/internal/engagement"
)

// The tracking edge accepts beacon traffic and publishes events to SQS
// without touching the database. cmd/worker applies them.
func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	queueURL := os.Getenv("SQS_TRACKING_QUEUE_URL")
	if queueURL == "" {
		log.Fatal("SQS_TRACKING_QUEUE_URL is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}

	pub := engagement.NewPublisher(sqs.NewFromConfig(awsCfg), queueURL)

	var limiter *engagement.RateLimiter
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		perMinute, _ := strconv.Atoi(os.Getenv("BEACON_RATE_PER_MINUTE"))
		if perMinute > 0 {
			opts, err := redis.ParseURL(redisURL)
			if err != nil {
				log.Printf("bad REDIS_URL, rate limiting disabled: %v", err)
			} else {
				limiter = engagement.NewRateLimiter(redis.NewClient(opts), perMinute)
			}
		}
	}

	handler := engagement.NewHandler(pub, limiter)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("tracking edge listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking edge...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
