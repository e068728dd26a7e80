package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/heya-pos/heya/internal/infrastructure/scheduler"
	"github.com/heya-pos/heya/internal/shared/logger"
)

const (
	sweepJobName = "session-sweep"
	sweepTimeout = time.Minute
)

// SweepFunc is the Sweep method of a session store.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper arms and cancels the periodic sweep of one store. The memory and
// Redis stores share it.
type Sweeper struct {
	mu       sync.Mutex
	cancel   scheduler.CancelFunc
	interval time.Duration
	sweep    SweepFunc
	logger   logger.Interface
}

func NewSweeper(interval time.Duration, sweep SweepFunc, log logger.Interface) *Sweeper {
	return &Sweeper{interval: interval, sweep: sweep, logger: log}
}

// Start registers the sweep on sched. Calling it while armed is a no-op.
func (w *Sweeper) Start(sched scheduler.Scheduler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return nil
	}

	cancel, err := sched.Every(sweepJobName, w.interval, w.run)
	if err != nil {
		return err
	}
	w.cancel = cancel
	return nil
}

// Stop cancels the sweep if armed.
func (w *Sweeper) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := w.sweep(ctx); err != nil {
		w.logger.Errorw("session sweep failed", "error", err)
	}
}
