package pinauth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
)

// fakeStaffRepository keeps credentials in insertion order.
type fakeStaffRepository struct {
	mu         sync.Mutex
	staff      []*staff.Credential
	locations  map[string]string
	lastLogins map[string]int
}

func newFakeStaffRepository(creds ...*staff.Credential) *fakeStaffRepository {
	return &fakeStaffRepository{
		staff:      creds,
		locations:  make(map[string]string),
		lastLogins: make(map[string]int),
	}
}

func (r *fakeStaffRepository) HasLocation(_ context.Context, merchantID, locationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locations[locationID] == merchantID, nil
}

func (r *fakeStaffRepository) CreateLocation(_ context.Context, l *staff.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[l.ID] = l.MerchantID
	return nil
}

func (r *fakeStaffRepository) FindActiveByMerchant(_ context.Context, merchantID, locationID string) ([]*staff.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*staff.Credential
	for _, c := range r.staff {
		if c.MerchantID != merchantID || !c.IsActive() || !c.CanAccessLocation(locationID) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeStaffRepository) FindByID(_ context.Context, id string) (*staff.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.staff {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeStaffRepository) UpdatePinHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.staff {
		if c.ID == id {
			c.PinHash = hash
			return nil
		}
	}
	return fmt.Errorf("staff %s not found", id)
}

func (r *fakeStaffRepository) UpdateLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLogins[id]++
	return nil
}

func (r *fakeStaffRepository) Create(_ context.Context, c *staff.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff = append(r.staff, c)
	return nil
}

func (r *fakeStaffRepository) setStatus(id string, status staff.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.staff {
		if c.ID == id {
			c.Status = status
		}
	}
}

type mockStaffRepository struct {
	mock.Mock
}

func (m *mockStaffRepository) FindActiveByMerchant(ctx context.Context, merchantID, locationID string) ([]*staff.Credential, error) {
	args := m.Called(ctx, merchantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*staff.Credential), args.Error(1)
}

func (m *mockStaffRepository) FindByID(ctx context.Context, id string) (*staff.Credential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*staff.Credential), args.Error(1)
}

func (m *mockStaffRepository) UpdatePinHash(ctx context.Context, id, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *mockStaffRepository) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStaffRepository) Create(ctx context.Context, c *staff.Credential) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockStaffRepository) HasLocation(ctx context.Context, merchantID, locationID string) (bool, error) {
	args := m.Called(ctx, merchantID, locationID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStaffRepository) CreateLocation(ctx context.Context, l *staff.Location) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

// plainHasher stores PINs behind a fixed prefix so tests stay fast.
type plainHasher struct{}

const plainHashPrefix = "plain$"

func (plainHasher) Hash(pin string) (string, error) {
	return plainHashPrefix + pin, nil
}

func (plainHasher) Verify(pin, hash string) error {
	if !strings.HasPrefix(hash, plainHashPrefix) {
		return fmt.Errorf("unsupported hash")
	}
	if strings.TrimPrefix(hash, plainHashPrefix) != pin {
		return staff.ErrPinMismatch
	}
	return nil
}

// fakeTokenSigner issues sequential opaque tokens and remembers refresh
// subjects.
type fakeTokenSigner struct {
	mu        sync.Mutex
	now       func() time.Time
	ttl       time.Duration
	seq       int
	refreshes map[string]session.Subject
	expired   map[string]bool
}

func newFakeTokenSigner(now func() time.Time) *fakeTokenSigner {
	return &fakeTokenSigner{
		now:       now,
		ttl:       24 * time.Hour,
		refreshes: make(map[string]session.Subject),
		expired:   make(map[string]bool),
	}
}

func (s *fakeTokenSigner) Generate(sub session.Subject) (*session.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now()
	pair := &session.TokenPair{
		AccessToken:      fmt.Sprintf("access-%d", s.seq),
		RefreshToken:     fmt.Sprintf("refresh-%d", s.seq),
		AccessExpiresAt:  now.Add(s.ttl),
		RefreshExpiresAt: now.Add(7 * s.ttl),
		ExpiresIn:        int64(s.ttl.Seconds()),
	}
	sub.Permissions = nil
	s.refreshes[pair.RefreshToken] = sub
	return pair, nil
}

func (s *fakeTokenSigner) VerifyRefresh(token string) (*session.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired[token] {
		return nil, session.ErrTokenExpired
	}
	sub, ok := s.refreshes[token]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}
	return &sub, nil
}

func (s *fakeTokenSigner) expire(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired[token] = true
}

type recordingAuditSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingAuditSink) Append(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *recordingAuditSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

func (s *recordingAuditSink) last() audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1]
}

func (s *recordingAuditSink) has(action string) bool {
	return slices.Contains(s.actions(), action)
}
