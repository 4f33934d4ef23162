package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DukeRupert/sparkwise/internal/middleware"
	"github.com/DukeRupert/sparkwise/internal/storage"
	"github.com/DukeRupert/sparkwise/internal/worker"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// SMTP Configuration
	// Client emails are skipped when EmailEnabled is false.
	EmailEnabled bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Application base URL (for links to stored files)
	BaseURL string

	// Storage Configuration
	StorageProvider string // "local" or "s3"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// S3-compatible Storage (production: AWS, R2 or MinIO)
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string // Optional custom domain URL
	S3UsePathStyle    bool

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// API rate limits, per client IP per minute
	RateLimitCalculations int
	RateLimitCertificates int

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	limits := middleware.DefaultAPIRateLimits()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// SMTP defaults for Mailhog (development)
		EmailEnabled: getEnvBool("EMAIL_ENABLED", true),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "certificates@sparkwise.app"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Sparkwise"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", ""),

		// S3 configuration (production only)
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		S3UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 5*time.Minute),

		// Rate limits
		RateLimitCalculations: getEnvInt("RATE_LIMIT_CALCULATIONS", limits.CalculationsPerMinute),
		RateLimitCertificates: getEnvInt("RATE_LIMIT_CERTIFICATES", limits.CertificatesPerMinute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.LocalStorageURL == "" {
		cfg.LocalStorageURL = cfg.BaseURL + "/files"
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// Validate storage configuration
	if c.StorageProvider == storage.ProviderS3 {
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_PROVIDER is 's3'")
		}
		if c.S3AccessKeyID == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 's3'")
		}
		if c.S3SecretAccessKey == "" {
			return fmt.Errorf("S3_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 's3'")
		}
	} else if c.StorageProvider != storage.ProviderLocal {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 's3', got: %s", c.StorageProvider)
	}

	if c.RateLimitCalculations < 1 || c.RateLimitCertificates < 1 {
		return fmt.Errorf("rate limits must be at least 1 request per minute")
	}

	if c.WorkerEnabled {
		if err := c.Worker().Validate(); err != nil {
			return fmt.Errorf("invalid worker configuration: %w", err)
		}
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Storage returns the storage provider configuration.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Provider: c.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: c.LocalStoragePath,
			BaseURL:  c.LocalStorageURL,
		},
		S3: storage.S3Config{
			Endpoint:        c.S3Endpoint,
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			PublicURL:       c.S3PublicURL,
			UsePathStyle:    c.S3UsePathStyle,
		},
	}
}

// Worker returns the background worker configuration.
func (c *Config) Worker() worker.Config {
	wc := worker.DefaultConfig()
	wc.Concurrency = c.WorkerConcurrency
	wc.PollInterval = c.WorkerPollInterval
	wc.JobTimeout = c.WorkerJobTimeout
	return wc
}

// RateLimits returns the API rate limits.
func (c *Config) RateLimits() middleware.APIRateLimits {
	return middleware.APIRateLimits{
		CalculationsPerMinute: c.RateLimitCalculations,
		CertificatesPerMinute: c.RateLimitCertificates,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
