package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-studio/folio/internal/cache"
	"github.com/folio-studio/folio/internal/config"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/likes"
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/internal/middleware"
	"github.com/folio-studio/folio/internal/queue"
	"github.com/folio-studio/folio/internal/reconcile"
	"github.com/folio-studio/folio/internal/storage"
	"github.com/folio-studio/folio/internal/tracing"
	"github.com/folio-studio/folio/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	closer, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName + "-api",
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer closer.Close()

	// Identity verification; tokens are issued by the identity provider
	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwtSecret must be set")
	}
	middleware.SetJWTSecret(cfg.Auth.JWTSecret)
	middleware.SetAdminUserID(cfg.Auth.AdminUserID)
	if cfg.Auth.AdminUserID == "" {
		logger.Warn("No admin user configured, notifications for the owner are disabled")
	}

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
	}

	repo := database.NewRepository(db)

	// Redis backs the like and commission limiters, so it is required here
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Initialize storage
	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	likeService := likes.NewService(
		repo,
		cache.NewLimiter(redisCache, cfg.Likes.RateLimit, cfg.Likes.RateWindow),
		redisCache,
		logger,
	)

	handoff := webhook.NewService(webhook.Config{
		URL:         cfg.Commissions.WebhookURL,
		Secret:      cfg.Commissions.WebhookSecret,
		ChatURL:     cfg.Commissions.ChatURL,
		MaxAttempts: cfg.Commissions.MaxAttempts,
		RetryDelay:  2 * time.Second,
	}, repo, logger)

	api := &API{
		repo:              repo,
		storage:           stor,
		cache:             redisCache,
		queue:             q,
		likes:             likeService,
		handoff:           handoff,
		commissionLimiter: cache.NewLimiter(redisCache, cfg.Commissions.RateLimit, cfg.Commissions.RateWindow),
		logger:            logger,
		adminUserID:       cfg.Auth.AdminUserID,
		workTTL:           cfg.Redis.WorkTTL,
		maxUploadBytes:    cfg.Server.MaxUploadBytes,
	}

	if cfg.Reconcile.Enabled {
		reconciler := reconcile.New(repo, redisCache, cfg.Reconcile.Interval, logger)
		reconciler.Start()
		defer reconciler.Stop()
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RequestsPerSec, cfg.Server.Burst)
	stopCleanup := make(chan struct{})
	go rateLimiter.Cleanup(stopCleanup)
	defer close(stopCleanup)

	router := setupRouter(api, routerConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    rateLimiter,
	}, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
