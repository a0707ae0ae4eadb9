package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mekrok/quote-api/internal/config"
	"github.com/mekrok/quote-api/internal/database"
	"github.com/mekrok/quote-api/internal/http/handler"
	"github.com/mekrok/quote-api/internal/http/middleware"
	"github.com/mekrok/quote-api/internal/http/router"
	"github.com/mekrok/quote-api/internal/jobs"
	"github.com/mekrok/quote-api/internal/logger"
	"github.com/mekrok/quote-api/internal/mailer"
	"github.com/mekrok/quote-api/internal/otp"
	"github.com/mekrok/quote-api/internal/repository"
	"github.com/mekrok/quote-api/internal/service"
	"github.com/mekrok/quote-api/internal/storage"
	"github.com/mekrok/quote-api/internal/wizard"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize attachment storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize outbound email
	mail, err := mailer.NewMailer(ctx, &cfg.Email, log)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	// OTP and draft stores live in Redis when configured, otherwise in
	// process memory swept by the cleanup job
	var otpStore otp.Store
	var draftStore wizard.DraftStore
	sweepers := make(map[string]jobs.Sweeper)

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		otpStore = otp.NewRedisStore(client)
		draftStore = wizard.NewRedisDraftStore(client)
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Address))
	} else {
		memOtp := otp.NewMemoryStore()
		memDrafts := wizard.NewMemoryDraftStore()
		otpStore = memOtp
		draftStore = memDrafts
		sweepers["otp"] = memOtp
		sweepers["drafts"] = memDrafts
	}

	// Core services
	gate := otp.NewGate(otpStore, mail, cfg.Otp.TTLDuration(), cfg.Otp.ResendIntervalDuration(), log)
	quoteRepo := repository.NewQuoteRepository(db)
	quoteService := service.NewQuoteService(quoteRepo, mail, log)
	orchestrator := wizard.NewOrchestrator(draftStore, quoteService, cfg.Wizard.DraftTTLDuration(), log)

	// Middleware and handlers
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	otpHandler := handler.NewOtpHandler(gate, orchestrator, log)
	quoteHandler := handler.NewQuoteHandler(quoteService, log)
	draftHandler := handler.NewDraftHandler(orchestrator, log)
	uploadHandler := handler.NewUploadHandler(fileStorage, cfg.Storage.MaxUploadSizeMB, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		rateLimiter,
		otpHandler,
		quoteHandler,
		draftHandler,
		uploadHandler,
	)

	// Background cleanup for the in-memory stores
	var scheduler *jobs.Scheduler
	if len(sweepers) > 0 {
		scheduler = jobs.NewScheduler(log)
		cleanup := jobs.NewCleanupJob(sweepers, log)
		if err := scheduler.AddJob(jobs.CleanupJobName, cfg.Wizard.CleanupCron, cleanup.Run); err != nil {
			return fmt.Errorf("failed to schedule cleanup job: %w", err)
		}
		scheduler.Start()
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
