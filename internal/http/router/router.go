package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mekrok/quote-api/internal/config"
	"github.com/mekrok/quote-api/internal/database"
	"github.com/mekrok/quote-api/internal/http/handler"
	"github.com/mekrok/quote-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg           *config.Config
	logger        *zap.Logger
	db            *gorm.DB
	rateLimiter   *middleware.RateLimiter
	otpHandler    *handler.OtpHandler
	quoteHandler  *handler.QuoteHandler
	draftHandler  *handler.DraftHandler
	uploadHandler *handler.UploadHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	rateLimiter *middleware.RateLimiter,
	otpHandler *handler.OtpHandler,
	quoteHandler *handler.QuoteHandler,
	draftHandler *handler.DraftHandler,
	uploadHandler *handler.UploadHandler,
) *Router {
	return &Router{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		rateLimiter:   rateLimiter,
		otpHandler:    otpHandler,
		quoteHandler:  quoteHandler,
		draftHandler:  draftHandler,
		uploadHandler: uploadHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Root route kept for basic reachability checks
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Backend server is running."))
	})

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Email verification, rate limited tighter than the rest
		r.Group(func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitOtp)
			r.Post("/send-otp", rt.otpHandler.Send)
			r.Post("/verify-otp", rt.otpHandler.Verify)
		})

		// Quote wizard
		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", rt.draftHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.draftHandler.Get)
				r.Put("/sections/{section}", rt.draftHandler.UpdateSection)
				r.Post("/advance", rt.draftHandler.Advance)
				r.Post("/back", rt.draftHandler.Back)
				r.Post("/submit", rt.draftHandler.Submit)
			})
		})

		// Attachments
		r.Post("/uploads", rt.uploadHandler.Upload)
		r.Get("/uploads/*", rt.uploadHandler.Download)

		// Quote records. Create stays open for direct storefront
		// submissions; management endpoints require the admin API key
		// when one is configured.
		r.Post("/quotes", rt.quoteHandler.Create)
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKey(rt.cfg.ApiKey.Value, rt.logger))
			r.Get("/quotes", rt.quoteHandler.List)
			r.Put("/quotes", rt.quoteHandler.Update)
			r.Delete("/quotes", rt.quoteHandler.Delete)
		})
	})

	return r
}
