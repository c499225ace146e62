package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
)

const lockName = "reconcile-like-counts"

// Store recomputes cached like counters
type Store interface {
	ReconcileLikeCounts(ctx context.Context) (int64, error)
}

// Locker serializes runs across API instances
type Locker interface {
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
}

// Reconciler periodically rewrites works.like_count from the like rows
type Reconciler struct {
	store    Store
	locker   Locker
	interval time.Duration
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a reconciler. locker may be nil for a single instance.
func New(store Store, locker Locker, interval time.Duration, logger *logging.Logger) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Reconciler{
		store:    store,
		locker:   locker,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs one pass immediately, then one per interval
func (r *Reconciler) Start() {
	r.wg.Add(1)
	go r.loop()
	r.logger.WithField("interval", r.interval.String()).Info("Like count reconciler started")
}

// Stop stops the loop and waits for a running pass to finish
func (r *Reconciler) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("Like count reconciler stopped")
}

func (r *Reconciler) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(r.ctx); err != nil && r.ctx.Err() == nil {
			r.logger.WithError(err).Error("Like count reconciliation failed")
		}

		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass and returns the number of corrected works.
// It does nothing when another instance holds the lock.
func (r *Reconciler) RunOnce(ctx context.Context) (int64, error) {
	if r.locker != nil {
		acquired, err := r.locker.AcquireLock(ctx, lockName, r.interval)
		if err != nil {
			return 0, fmt.Errorf("failed to acquire reconcile lock: %w", err)
		}
		if !acquired {
			r.logger.Debug("Reconcile lock held elsewhere, skipping")
			return 0, nil
		}
		defer func() {
			if err := r.locker.ReleaseLock(context.Background(), lockName); err != nil {
				r.logger.WithError(err).Warn("Failed to release reconcile lock")
			}
		}()
	}

	start := time.Now()
	fixed, err := r.store.ReconcileLikeCounts(ctx)
	if err != nil {
		return 0, err
	}

	metrics.RecordLikeCountFixes(fixed)
	if fixed > 0 {
		r.logger.WithFields(map[string]interface{}{
			"fixed":    fixed,
			"duration": time.Since(start).String(),
		}).Warn("Corrected drifted like counts")
	}

	return fixed, nil
}
