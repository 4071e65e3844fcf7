package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"

	"github.com/cleanbid/backend/internal/api"
	"github.com/cleanbid/backend/internal/auth"
	"github.com/cleanbid/backend/internal/billing"
	"github.com/cleanbid/backend/internal/config"
	"github.com/cleanbid/backend/internal/engagement"
	"github.com/cleanbid/backend/internal/mailer"
	"github.com/cleanbid/backend/internal/pdf"
	"github.com/cleanbid/backend/internal/repository/postgres"
	"github.com/cleanbid/backend/internal/service/proposal"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// checkPortAvailable verifies the target port is free before any service
// starts, so a stale process fails the boot loudly instead of at bind time.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (%s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := checkPortAvailable(cfg.Server.GetHost(), cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("Database connected")

	// Core services
	proposalRepo := postgres.NewProposalRepo(db)
	proposalSvc := proposal.NewService(proposalRepo)

	billingSvc := billing.NewService(
		postgres.NewSubscriptionRepo(db),
		billing.NewPlanCache(cfg.Billing.PlanCacheTTL(), nil),
	)

	engagementSvc := engagement.NewService(postgres.NewTrackingRepo(db))
	links := engagement.NewLinkBuilder(cfg.Tracking.BaseURL, cfg.Tracking.SigningKey)

	// Beacon rate limiter (optional, needs Redis)
	var limiter *engagement.RateLimiter
	if cfg.Redis.Enabled && cfg.Redis.URL != "" && cfg.Tracking.RatePerMinute > 0 {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: bad REDIS_URL, beacon rate limiting disabled: %v", err)
		} else {
			redisClient := redis.NewClient(opts)
			pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				log.Printf("Warning: Redis unreachable, beacon rate limiting disabled: %v", err)
				redisClient.Close()
			} else {
				limiter = engagement.NewRateLimiter(redisClient, cfg.Tracking.RatePerMinute)
				log.Printf("Beacon rate limiting enabled: %d/min per token", cfg.Tracking.RatePerMinute)
			}
			pingCancel()
		}
	}

	// Beacons can write directly or go through SQS when a queue is
	// configured (the worker binary then applies them).
	var recorder engagement.Recorder = engagementSvc
	if cfg.Tracking.SQSQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Tracking.AWSRegion))
		if err != nil {
			log.Printf("Warning: AWS config failed, beacons write directly: %v", err)
		} else {
			recorder = engagement.NewPublisher(sqs.NewFromConfig(awsCfg), cfg.Tracking.SQSQueueURL)
			log.Printf("Beacon events routed through SQS: %s", cfg.Tracking.SQSQueueURL)
		}
	}
	beacons := engagement.NewHandler(recorder, limiter)

	// PDF pipeline (optional, needs a renderer endpoint)
	var exporter *pdf.Exporter
	templates := pdf.NewTemplateEngine()
	if cfg.PDF.RendererURL != "" {
		var archive pdf.Archive
		if cfg.PDF.S3Bucket != "" {
			s3Archive, err := pdf.NewS3Archive(ctx, cfg.PDF.S3Bucket, cfg.PDF.AWSRegion)
			if err != nil {
				log.Printf("Warning: S3 archive unavailable, exports will not be archived: %v", err)
			} else {
				archive = s3Archive
			}
		}
		exporter = pdf.NewExporter(
			proposalSvc,
			templates,
			pdf.NewChromiumRenderer(cfg.PDF.RendererURL, cfg.PDF.TimeoutSeconds),
			archive,
			postgres.NewExportRepo(db),
		)
		log.Printf("PDF export enabled: renderer=%s bucket=%s", cfg.PDF.RendererURL, cfg.PDF.S3Bucket)
	} else {
		log.Println("PDF export disabled (no renderer configured)")
	}

	// Share-by-email pipeline (optional, needs SES)
	var sharer *proposal.Sharer
	if cfg.Mailer.Enabled {
		ses, err := mailer.NewSESMailer(cfg.Mailer.AccessKey, cfg.Mailer.SecretKey, cfg.Mailer.Region)
		if err != nil {
			log.Printf("Warning: SES mailer unavailable, sharing disabled: %v", err)
		} else {
			sharer = proposal.NewSharer(proposalSvc, engagementSvc, links, templates, ses,
				cfg.Mailer.FromName, cfg.Mailer.FromEmail)
			log.Printf("Proposal sharing enabled: from=%s", cfg.Mailer.FromEmail)
		}
	} else {
		log.Println("Proposal sharing disabled (mailer not enabled)")
	}

	// Google OAuth
	var authManager *auth.AuthManager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
		authManager = auth.NewAuthManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions()
		log.Printf("Google OAuth enabled (callback: %s/auth/callback)", baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	handlers := &api.Handlers{
		Proposals:  proposalSvc,
		Sharer:     sharer,
		Billing:    billingSvc,
		Engagement: engagementSvc,
		Exporter:   exporter,
		Links:      links,
		Finder:     proposalRepo,
		UpgradeURL: cfg.Billing.UpgradeURL,
	}

	allowedOrigins := []string{"https://app.cleanbid.io", "http://localhost:5173", "http://localhost:8080"}
	if v := os.Getenv("CORS_ALLOWED_ORIGIN"); v != "" {
		allowedOrigins = append(allowedOrigins, v)
	}
	router := api.SetupRoutes(handlers, authManager, beacons, allowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	db.Close()
	log.Println("Server stopped")
}
