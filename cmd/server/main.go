package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/sparkwise/internal"
	"github.com/DukeRupert/sparkwise/internal/email"
	"github.com/DukeRupert/sparkwise/internal/handler"
	"github.com/DukeRupert/sparkwise/internal/jobs"
	"github.com/DukeRupert/sparkwise/internal/metrics"
	"github.com/DukeRupert/sparkwise/internal/middleware"
	"github.com/DukeRupert/sparkwise/internal/repository"
	"github.com/DukeRupert/sparkwise/internal/service"
	"github.com/DukeRupert/sparkwise/internal/storage"
	"github.com/DukeRupert/sparkwise/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	version, err := internal.RunMigrations(db, logger)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready", "schema_version", version)

	// Initialize repository
	repo := repository.New(db)

	// Initialize storage
	store, err := storage.New(cfg.Storage(), logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize email
	var emailService email.EmailService = email.NoopEmailService{}
	if cfg.EmailEnabled {
		smtpService, err := email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}, logger)
		if err != nil {
			return fmt.Errorf("email initialization failed: %w", err)
		}
		emailService = smtpService
	}

	// Initialize services
	calculationService := service.NewCalculationService(repo, logger)
	certificateService := service.NewCertificateService(db, repo, store, logger)
	photoService := service.NewPhotoService(store, service.NewImagingProcessor(), logger)

	// ==========================================================================
	// Start background worker
	// ==========================================================================

	var jobCounter handler.JobCounter
	var bgWorker *worker.Worker
	if cfg.WorkerEnabled {
		bgWorker, err = worker.New(db, repo, cfg.Worker(), logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		bgWorker.Register(jobs.NewRenderCertificateHandler(repo, store, emailService, logger))
		bgWorker.Start(ctx)
		jobCounter = bgWorker
	} else {
		logger.Warn("Worker disabled; certificates will stay queued")
	}

	// Initialize middleware
	isSecure := !cfg.IsDevelopment()
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	limiter := middleware.NewAPIRateLimiter(cfg.RateLimits(), logger)
	defer limiter.Stop()

	// Initialize handlers
	calculatorHandler := handler.NewCalculatorHandler(calculationService, logger)
	certificateHandler := handler.NewCertificateHandler(certificateService, logger)
	photoHandler := handler.NewPhotoHandler(photoService, logger)
	healthHandler := handler.NewHealthHandler(db, jobCounter, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	healthHandler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", middleware.MetricsHandler(cfg.MetricsUsername, cfg.MetricsPassword))

	// Stored documents and thumbnails (local provider only)
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// API routes, each group behind its own rate limit. Writes that
	// touch storage share the certificate budget.
	calcMux := http.NewServeMux()
	calculatorHandler.RegisterRoutes(calcMux)
	certMux := http.NewServeMux()
	certificateHandler.RegisterRoutes(certMux)
	photoHandler.RegisterRoutes(certMux)

	mux.Handle("/api/", limiter.LimitCalculations(calcMux))
	mux.Handle("/api/certificates", limiter.LimitCertificates(certMux))
	mux.Handle("/api/certificates/", limiter.LimitCertificates(certMux))
	mux.Handle("/api/uploads", limiter.LimitCertificates(certMux))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	stack := middleware.Stack(
		metrics.Middleware,
		loggingMw.Handler,
		securityMw.Handler,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           stack(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if bgWorker != nil {
		bgWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
