// Package sessionstore implements session.Store in process memory.
package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/infrastructure/scheduler"
	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/logger"
)

type entry struct {
	session      session.Session
	lastActivity time.Time
}

// MemoryStore maps bearer tokens to sessions. A single mutex guards every
// compound operation; nothing blocking runs while it is held.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	cfg     session.Config
	now     func() time.Time
	logger  logger.Interface
	sweeper *Sweeper
}

var _ session.Store = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store. A nil clock uses biztime.NowUTC.
func NewMemoryStore(cfg session.Config, now func() time.Time, log logger.Interface) *MemoryStore {
	if now == nil {
		now = biztime.NowUTC
	}
	s := &MemoryStore{
		entries: make(map[string]*entry),
		cfg:     cfg.WithDefaults(),
		now:     now,
		logger:  log.With("component", "session_store"),
	}
	s.sweeper = NewSweeper(s.cfg.SweepInterval, s.Sweep, s.logger)
	return s
}

// snapshot lists eviction candidates. Callers hold s.mu.
func (s *MemoryStore) snapshot() []candidate {
	out := make([]candidate, 0, len(s.entries))
	for token, e := range s.entries {
		out = append(out, candidate{
			token:        token,
			userID:       e.session.Subject.UserID,
			lastActivity: e.lastActivity,
		})
	}
	return out
}

// Create stores sess under token, evicting first when the global or per-user
// cap is reached. An existing entry at token is replaced.
func (s *MemoryStore) Create(_ context.Context, token string, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.cfg.MaxSessions {
		evicted := selectGlobalEvictions(s.snapshot())
		for _, t := range evicted {
			delete(s.entries, t)
		}
		s.logger.Infow("evicted sessions at global capacity",
			"evicted", len(evicted),
			"max_sessions", s.cfg.MaxSessions,
		)
	}

	userID := sess.Subject.UserID
	if t, ok := selectUserEviction(s.snapshot(), userID, s.cfg.MaxSessionsPerUser); ok {
		delete(s.entries, t)
		s.logger.Infow("evicted oldest session at per-user capacity",
			"user_id", userID,
			"evicted", 1,
			"max_sessions_per_user", s.cfg.MaxSessionsPerUser,
		)
	}

	s.entries[token] = &entry{session: sess.Clone(), lastActivity: s.now()}
	return nil
}

// Get returns a copy of the session and marks it active. Idle or expired
// sessions are deleted and reported as absent.
func (s *MemoryStore) Get(_ context.Context, token string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, nil
	}

	now := s.now()
	if s.cfg.Expired(e.session, e.lastActivity, now) {
		delete(s.entries, token)
		return nil, nil
	}

	e.lastActivity = now
	out := e.session.Clone()
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, token string, patch session.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil
	}
	patch.Apply(&e.session)
	e.lastActivity = s.now()
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RemoveAllForUser(_ context.Context, userID string) (int, error) {
	return s.removeWhere(func(e *entry) bool { return e.session.Subject.UserID == userID }), nil
}

func (s *MemoryStore) RemoveAllForMerchant(_ context.Context, merchantID string) (int, error) {
	return s.removeWhere(func(e *entry) bool { return e.session.Subject.MerchantID == merchantID }), nil
}

func (s *MemoryStore) removeWhere(match func(*entry) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, e := range s.entries {
		if match(e) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// Extend marks the session active without reading it. An idle or expired
// session is deleted instead of revived.
func (s *MemoryStore) Extend(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil
	}

	now := s.now()
	if s.cfg.Expired(e.session, e.lastActivity, now) {
		delete(s.entries, token)
		return nil
	}
	e.lastActivity = now
	return nil
}

// CountActive counts the merchant's live sessions without evicting anything.
func (s *MemoryStore) CountActive(_ context.Context, merchantID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, e := range s.entries {
		if e.session.Subject.MerchantID == merchantID && !s.cfg.Expired(e.session, e.lastActivity, now) {
			count++
		}
	}
	return count, nil
}

// Sweep deletes every idle or expired session and returns how many it removed.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for token, e := range s.entries {
		if s.cfg.Expired(e.session, e.lastActivity, now) {
			delete(s.entries, token)
			removed++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Infow("swept expired sessions", "removed", removed, "remaining", remaining)
	}
	return removed, nil
}

func (s *MemoryStore) Stats(_ context.Context) (session.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return session.Stats{Total: len(s.entries)}, nil
}

// StartSweep arms the periodic sweep on sched. Calling it again while armed
// is a no-op.
func (s *MemoryStore) StartSweep(sched scheduler.Scheduler) error {
	return s.sweeper.Start(sched)
}

// StopAndClear cancels the sweep and empties the store.
func (s *MemoryStore) StopAndClear() {
	s.sweeper.Stop()

	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
}
