// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/veyra-hq/veyra/internal/shared/biztime"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

// BatchJob is a scheduled batch processing job. Each Execute call processes
// one batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// Manager owns the single gocron scheduler instance for the worker process.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewManager creates a scheduler manager in the business timezone.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterTrialReconciliation schedules the trial expiry sweep. The job runs
// immediately on startup and then at the given interval; singleton mode
// keeps overlapping runs from stacking up when a sweep is slow.
func (m *Manager) RegisterTrialReconciliation(job BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			processed, err := job.Execute(ctx)
			if err != nil {
				m.logger.Errorw("trial reconciliation sweep failed", "error", err)
				return
			}
			if processed > 0 {
				m.logger.Infow("trial reconciliation sweep completed", "expired", processed)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("trial-reconciliation"),
	)
	return err
}

// Start begins executing registered jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started")
}

// Shutdown stops the scheduler and waits for running jobs.
func (m *Manager) Shutdown() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	m.logger.Infow("scheduler shutting down")
	return m.scheduler.Shutdown()
}
