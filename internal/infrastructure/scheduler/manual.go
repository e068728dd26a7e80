package scheduler

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler is a Scheduler whose jobs only run when Tick is called.
// Tests use it to drive periodic work deterministically.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]manualJob
}

type manualJob struct {
	name     string
	interval time.Duration
	fn       func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]manualJob)}
}

var _ Scheduler = (*ManualScheduler)(nil)

func (s *ManualScheduler) Every(name string, interval time.Duration, fn func()) (CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.jobs[id] = manualJob{name: name, interval: interval, fn: fn}

	return func() {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
	}, nil
}

// Tick runs every registered job once, in registration order.
func (s *ManualScheduler) Tick() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.jobs[id].fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered jobs.
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Interval returns the interval of the first job registered under name.
func (s *ManualScheduler) Interval(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := -1
	for id, j := range s.jobs {
		if j.name == name && (best == -1 || id < best) {
			best = id
		}
	}
	if best == -1 {
		return 0, false
	}
	return s.jobs[best].interval, true
}
