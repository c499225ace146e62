package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
	"github.com/folio-studio/folio/internal/storage"
	"github.com/folio-studio/folio/internal/tracing"
	"github.com/folio-studio/folio/pkg/models"
)

// MediaStore is the object storage used by the job processor
type MediaStore interface {
	DownloadFile(ctx context.Context, objectName, filePath string) error
	UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error
	Delete(ctx context.Context, objectName string) error
}

// WorkStore reads works and records their poster frames
type WorkStore interface {
	GetWork(ctx context.Context, id int64) (*models.Work, error)
	UpdateWorkThumbnail(ctx context.Context, id int64, key string, timestamp, score float64) error
}

// WorkCache drops cached copies of updated works
type WorkCache interface {
	InvalidateWork(ctx context.Context, workID int64) error
}

// Service turns queued thumbnail jobs into stored poster frames
type Service struct {
	selector *Selector
	media    MediaStore
	works    WorkStore
	cache    WorkCache
	tempDir  string
	logger   *logging.Logger
}

// NewService creates a job processor. cache may be nil.
func NewService(selector *Selector, media MediaStore, works WorkStore, cache WorkCache, tempDir string, logger *logging.Logger) *Service {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		selector: selector,
		media:    media,
		works:    works,
		cache:    cache,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// ProcessJob selects and stores a poster frame for one job. Jobs whose work
// is gone or no longer holds a video are dropped without error.
func (s *Service) ProcessJob(ctx context.Context, job *models.ThumbnailJob) (err error) {
	span, ctx := tracing.StartSpan(ctx, "thumbnail.process")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "work_id", job.WorkID)
	tracing.SetTag(span, "mode", job.Mode())

	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()

	start := time.Now()
	logger := s.logger.WithJobID(job.ID).WithWorkID(job.WorkID)

	work, err := s.works.GetWork(ctx, job.WorkID)
	if errors.Is(err, database.ErrNotFound) {
		logger.Warn("Work deleted before thumbnail job ran, dropping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get work: %w", err)
	}
	if work.Kind != models.WorkKindVideo || work.MediaKey == "" {
		logger.Warn("Work has no video media, dropping thumbnail job")
		return nil
	}
	// The media may have been replaced since the job was queued.
	mediaKey := work.MediaKey

	result, err := s.selectFrame(ctx, job, mediaKey)
	if err != nil {
		s.finish(logger, job, start, nil, err)
		tracing.LogError(span, err)
		return err
	}

	key := storage.ThumbnailKey(job.WorkID)
	if err := s.media.UploadBytes(ctx, key, result.Image, "image/jpeg"); err != nil {
		err = fmt.Errorf("failed to upload thumbnail: %w", err)
		s.finish(logger, job, start, result, err)
		return err
	}

	if err := s.works.UpdateWorkThumbnail(ctx, job.WorkID, key, result.Timestamp, result.Score); err != nil {
		if delErr := s.media.Delete(ctx, key); delErr != nil {
			logger.WithError(delErr).Warn("Failed to remove orphaned thumbnail")
		}
		if errors.Is(err, database.ErrNotFound) {
			logger.Warn("Work deleted during thumbnail job, dropping")
			return nil
		}
		err = fmt.Errorf("failed to record thumbnail: %w", err)
		s.finish(logger, job, start, result, err)
		return err
	}

	if work.ThumbnailKey != "" && work.ThumbnailKey != key {
		if err := s.media.Delete(ctx, work.ThumbnailKey); err != nil {
			logger.WithError(err).Warn("Failed to remove previous thumbnail")
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateWork(ctx, job.WorkID); err != nil {
			logger.WithError(err).Warn("Failed to invalidate cached work")
		}
	}

	s.finish(logger, job, start, result, nil)
	return nil
}

// selectFrame downloads the media to a temp file and runs the selector on it.
// The temp file is removed on every path.
func (s *Service) selectFrame(ctx context.Context, job *models.ThumbnailJob, mediaKey string) (*Result, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.tempDir, "thumb-*"+filepath.Ext(mediaKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	inputPath := tmp.Name()
	tmp.Close()
	defer os.Remove(inputPath)

	if err := s.media.DownloadFile(ctx, mediaKey, inputPath); err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}

	if job.Timestamp != nil {
		return s.selector.SelectFrameAtTimestamp(ctx, inputPath, *job.Timestamp)
	}

	return s.selector.SelectBestFrame(ctx, inputPath, func(p Progress) {
		s.logger.WithJobID(job.ID).WithField("stage", string(p.Stage)).Debugf("%s (%d%%)", p.Message, p.Progress)
	})
}

func (s *Service) finish(logger *logging.Logger, job *models.ThumbnailJob, start time.Time, result *Result, err error) {
	duration := time.Since(start)
	status := "completed"
	var ts, score float64
	if result != nil {
		ts, score = result.Timestamp, result.Score
	}
	if err != nil {
		status = "failed"
	}

	metrics.RecordThumbnailJob(job.Mode(), status, duration.Seconds(), score)
	logger.LogThumbnailRun(job.WorkID, job.Mode(), ts, score, duration, err)
}
