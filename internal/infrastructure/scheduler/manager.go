// Package scheduler runs the periodic maintenance jobs of the auth state
// stores using gocron v2.
package scheduler

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/logger"
)

// CancelFunc stops a job registered with Every. It is safe to call twice.
type CancelFunc func()

// Scheduler runs fn every interval until the returned CancelFunc is called.
type Scheduler interface {
	Every(name string, interval time.Duration, fn func()) (CancelFunc, error)
}

// SchedulerManager is the gocron-backed Scheduler used in production.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

var _ Scheduler = (*SchedulerManager)(nil)

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log.With("component", "scheduler"),
	}, nil
}

// Every registers a duration job. Overlapping runs are skipped and a panic in
// fn is logged instead of killing the scheduler goroutine.
func (m *SchedulerManager) Every(name string, interval time.Duration, fn func()) (CancelFunc, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("job %s: interval must be positive, got %s", name, interval)
	}

	job, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(m.guard(name, fn)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register job %s: %w", name, err)
	}

	m.logger.Infow("registered job", "name", name, "interval", interval.String())

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := m.scheduler.RemoveJob(job.ID()); err != nil {
				m.logger.Warnw("failed to remove job", "name", name, "error", err)
			}
		})
	}, nil
}

func (m *SchedulerManager) guard(name string, fn func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Errorw("scheduled job panicked",
					"job", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}
}

// Start starts the scheduler. Calling it twice is a no-op.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete and shuts the scheduler down.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// JobNames returns the names of registered jobs.
func (m *SchedulerManager) JobNames() []string {
	jobs := m.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}
