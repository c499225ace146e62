package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/folio-studio/folio/internal/logging"
	"github.com/folio-studio/folio/internal/metrics"
)

// Queue names as reported in the folio_queue_depth gauge
const (
	QueueJobs       = "jobs"
	QueueDeadLetter = "dead_letter"
)

// QueueProvider reports queue depths
type QueueProvider interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

// Depths is the last observed queue state
type Depths struct {
	Jobs       int       `json:"jobs"`
	DeadLetter int       `json:"deadLetter"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QueueMonitor polls queue depths into Prometheus gauges
type QueueMonitor struct {
	provider QueueProvider
	interval time.Duration
	logger   *logging.Logger

	mu     sync.RWMutex
	depths Depths
	// dead-letter growth is logged once per increase
	lastDeadLetter int
}

// NewQueueMonitor creates a monitor polling every interval
func NewQueueMonitor(provider QueueProvider, interval time.Duration, logger *logging.Logger) *QueueMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &QueueMonitor{provider: provider, interval: interval, logger: logger}
}

// Start polls until ctx is cancelled
func (m *QueueMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			if err := m.Collect(); err != nil {
				m.logger.WithError(err).Warn("Failed to collect queue depths")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Collect reads both queue depths once and publishes them
func (m *QueueMonitor) Collect() error {
	jobs, err := m.provider.GetQueueDepth()
	if err != nil {
		return err
	}
	deadLetter, err := m.provider.GetDLQDepth()
	if err != nil {
		return err
	}

	metrics.RecordQueueDepth(QueueJobs, jobs)
	metrics.RecordQueueDepth(QueueDeadLetter, deadLetter)

	m.mu.Lock()
	m.depths = Depths{Jobs: jobs, DeadLetter: deadLetter, UpdatedAt: time.Now()}
	grew := deadLetter > m.lastDeadLetter
	m.lastDeadLetter = deadLetter
	m.mu.Unlock()

	if grew {
		m.logger.WithField("dead_letter", deadLetter).Warn("Dead letter queue grew, thumbnail jobs need attention")
	}
	return nil
}

// Depths returns the last observed queue state
func (m *QueueMonitor) Depths() Depths {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.depths
}
