package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Tracking TrackingConfig `yaml:"tracking"`
	Mailer   MailerConfig   `yaml:"mailer"`
	PDF      PDFConfig      `yaml:"pdf"`
	Billing  BillingConfig  `yaml:"billing"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_mins"`
}

// ConnMaxLifetime returns the configured connection lifetime as a duration
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifeMins) * time.Minute
}

// RedisConfig holds Redis settings for the beacon rate limiter
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// TrackingConfig holds engagement tracking settings
type TrackingConfig struct {
	// BaseURL is the public base for pixel/beacon links, e.g.
	// https://track.cleanbid.io
	BaseURL    string `yaml:"base_url"`
	SigningKey string `yaml:"signing_key"`
	// SQSQueueURL, when set, routes beacon events through the queue
	// (cmd/tracking publisher + cmd/worker consumer).
	SQSQueueURL string `yaml:"sqs_queue_url"`
	AWSRegion   string `yaml:"aws_region"`
	// RatePerMinute caps beacon events per token per minute. 0 disables.
	RatePerMinute int `yaml:"rate_per_minute"`
}

// MailerConfig holds AWS SES settings for proposal delivery
type MailerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
}

// PDFConfig holds the PDF rendering and archive settings
type PDFConfig struct {
	// RendererURL is the headless-browser rendering service endpoint.
	RendererURL    string `yaml:"renderer_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	S3Bucket       string `yaml:"s3_bucket"`
	AWSRegion      string `yaml:"aws_region"`
}

// Timeout returns the configured renderer timeout as a duration
func (c PDFConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BillingConfig holds usage-gate settings
type BillingConfig struct {
	// UpgradeURL is where blocked tenants are pointed when the usage gate
	// denies proposal creation.
	UpgradeURL string `yaml:"upgrade_url"`
	// PlanCacheTTLSeconds bounds staleness of the in-process plan cache.
	PlanCacheTTLSeconds int `yaml:"plan_cache_ttl_seconds"`
	// TrialDays is the default trial length for new subscriptions.
	TrialDays int `yaml:"trial_days"`
}

// PlanCacheTTL returns the plan cache TTL as a duration
func (c BillingConfig) PlanCacheTTL() time.Duration {
	return time.Duration(c.PlanCacheTTLSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 30
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "cleanbid_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if cfg.Tracking.AWSRegion == "" {
		cfg.Tracking.AWSRegion = "us-east-1"
	}
	if cfg.Mailer.Region == "" {
		cfg.Mailer.Region = "us-east-1"
	}
	if cfg.Mailer.FromName == "" {
		cfg.Mailer.FromName = "CleanBid"
	}
	if cfg.PDF.TimeoutSeconds == 0 {
		cfg.PDF.TimeoutSeconds = 30
	}
	if cfg.PDF.AWSRegion == "" {
		cfg.PDF.AWSRegion = "us-east-1"
	}
	if cfg.Billing.PlanCacheTTLSeconds == 0 {
		cfg.Billing.PlanCacheTTLSeconds = 300
	}
	if cfg.Billing.TrialDays == 0 {
		cfg.Billing.TrialDays = 14
	}
	if cfg.Billing.UpgradeURL == "" {
		cfg.Billing.UpgradeURL = "/billing/upgrade"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}
	if v := os.Getenv("TRACKING_BASE_URL"); v != "" {
		cfg.Tracking.BaseURL = v
	}
	if v := os.Getenv("TRACKING_SIGNING_KEY"); v != "" {
		cfg.Tracking.SigningKey = v
	}
	if v := os.Getenv("SQS_TRACKING_QUEUE_URL"); v != "" {
		cfg.Tracking.SQSQueueURL = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.Mailer.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.Mailer.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.Mailer.Region = v
	}
	if v := os.Getenv("PDF_RENDERER_URL"); v != "" {
		cfg.PDF.RendererURL = v
	}
	if v := os.Getenv("PDF_S3_BUCKET"); v != "" {
		cfg.PDF.S3Bucket = v
	}

	return cfg, nil
}
