package ratelimit

import (
	"sync"
	"time"

	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/shared/biztime"
)

// MemoryAttemptTracker keeps attempt records in process memory. Every
// compound operation runs under one mutex.
type MemoryAttemptTracker struct {
	mu      sync.Mutex
	records map[string]*auth.AttemptRecord
	policy  auth.LockoutPolicy
	now     func() time.Time
}

// NewMemoryAttemptTracker builds a tracker. A nil clock uses biztime.NowUTC.
func NewMemoryAttemptTracker(policy auth.LockoutPolicy, now func() time.Time) *MemoryAttemptTracker {
	if now == nil {
		now = biztime.NowUTC
	}
	return &MemoryAttemptTracker{
		records: make(map[string]*auth.AttemptRecord),
		policy:  policy.WithDefaults(),
		now:     now,
	}
}

var _ auth.AttemptTracker = (*MemoryAttemptTracker)(nil)

// current returns the live record for identifier, dropping it first if its
// lock has elapsed. Callers hold t.mu.
func (t *MemoryAttemptTracker) current(identifier string, now time.Time) *auth.AttemptRecord {
	rec, ok := t.records[identifier]
	if !ok {
		return nil
	}
	if rec.LockedUntil != nil && !rec.IsLocked(now) {
		delete(t.records, identifier)
		return nil
	}
	return rec
}

func (t *MemoryAttemptTracker) IsLocked(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.current(identifier, now)
	return rec != nil && rec.IsLocked(now)
}

func (t *MemoryAttemptTracker) RecordAttempt(identifier string, success bool) auth.AttemptRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if success {
		delete(t.records, identifier)
		return auth.AttemptRecord{Identifier: identifier, LastAttempt: now}
	}

	rec := t.current(identifier, now)
	if rec == nil {
		rec = &auth.AttemptRecord{Identifier: identifier}
		t.records[identifier] = rec
	}
	rec.Count++
	rec.LastAttempt = now
	if rec.Count >= t.policy.MaxAttempts {
		until := now.Add(t.policy.LockoutDuration)
		rec.LockedUntil = &until
	}

	out := *rec
	if rec.LockedUntil != nil {
		until := *rec.LockedUntil
		out.LockedUntil = &until
	}
	return out
}

func (t *MemoryAttemptTracker) RemainingAttempts(identifier string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.current(identifier, t.now())
	if rec == nil {
		return t.policy.MaxAttempts
	}
	return max(0, t.policy.MaxAttempts-rec.Count)
}

func (t *MemoryAttemptTracker) TimeUntilUnlock(identifier string) *int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec := t.current(identifier, now)
	if rec == nil || !rec.IsLocked(now) {
		return nil
	}
	minutes := biztime.CeilMinutes(rec.LockedUntil.Sub(now))
	return &minutes
}

func (t *MemoryAttemptTracker) Clear(identifier string) {
	t.mu.Lock()
	delete(t.records, identifier)
	t.mu.Unlock()
}

func (t *MemoryAttemptTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, rec := range t.records {
		if rec.LockedUntil != nil {
			if !rec.IsLocked(now) {
				delete(t.records, id)
			}
			continue
		}
		if now.Sub(rec.LastAttempt) > t.policy.LockoutDuration {
			delete(t.records, id)
		}
	}
}

// Len returns the number of tracked identifiers.
func (t *MemoryAttemptTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
