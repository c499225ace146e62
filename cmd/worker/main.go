package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio-studio/folio/internal/cache"
	"github.com/folio-studio/folio/internal/config"
	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/internal/monitoring"
	"github.com/folio-studio/folio/internal/queue"
	"github.com/folio-studio/folio/internal/storage"
	"github.com/folio-studio/folio/internal/thumbnail"
	"github.com/folio-studio/folio/internal/tracing"
	"github.com/folio-studio/folio/pkg/models"
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

	closer, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName + "-worker",
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer closer.Close()

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	// Initialize storage
	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// The cache only needs invalidating; run without it if Redis is down.
	var workCache thumbnail.WorkCache
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, cached works will expire on their own")
	} else {
		defer redisCache.Close()
		workCache = redisCache
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	selector := thumbnail.NewSelector(
		thumbnail.NewFFmpeg(cfg.Thumbnail.FFmpegPath, cfg.Thumbnail.FFprobePath),
		thumbnail.Options{
			SampleCount:  cfg.Thumbnail.SampleCount,
			TargetWidth:  cfg.Thumbnail.TargetWidth,
			TargetHeight: cfg.Thumbnail.TargetHeight,
			JPEGQuality:  cfg.Thumbnail.JPEGQuality,
		},
	)
	thumbnailService := thumbnail.NewService(selector, stor, repo, workCache, cfg.Thumbnail.TempDir, logger)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	monitoring.NewQueueMonitor(q, 15*time.Second, logger).Start(ctx)

	jobHandler := func(ctx context.Context, job *models.ThumbnailJob) error {
		logger.WithJobID(job.ID).WithWorkID(job.WorkID).
			WithFields(map[string]interface{}{"mode": job.Mode(), "attempt": job.Attempt}).
			Info("Processing thumbnail job")
		return thumbnailService.ProcessJob(ctx, job)
	}

	logger.WithField("workers", cfg.Thumbnail.WorkerCount).Info("Worker started, waiting for thumbnail jobs...")
	if err := q.ConsumeThumbnailJobs(ctx, cfg.Thumbnail.WorkerCount, jobHandler); err != nil {
		logger.Fatalf("Failed to consume jobs: %v", err)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("Worker stopped")
}
