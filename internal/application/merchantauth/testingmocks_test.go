package merchantauth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/domain/session"
)

type fakeAccountRepository struct {
	mu         sync.Mutex
	accounts   []*merchant.Account
	lastLogins map[string]int
}

func newFakeAccountRepository(accounts ...*merchant.Account) *fakeAccountRepository {
	return &fakeAccountRepository{accounts: accounts, lastLogins: make(map[string]int)}
}

func (r *fakeAccountRepository) FindByLogin(_ context.Context, login string) (*merchant.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, login) {
			cp := *a
			return &cp, nil
		}
	}
	for _, a := range r.accounts {
		if a.Username != "" && a.Username == login {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepository) FindByID(_ context.Context, id string) (*merchant.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.ID == id {
			a.PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("account %s not found", id)
}

func (r *fakeAccountRepository) UpdateLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLogins[id]++
	return nil
}

func (r *fakeAccountRepository) Create(_ context.Context, a *merchant.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = append(r.accounts, a)
	return nil
}

func (r *fakeAccountRepository) update(id string, fn func(a *merchant.Account)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			fn(a)
		}
	}
}

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) FindByLogin(ctx context.Context, login string) (*merchant.Account, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.Account), args.Error(1)
}

func (m *mockAccountRepository) FindByID(ctx context.Context, id string) (*merchant.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.Account), args.Error(1)
}

func (m *mockAccountRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockAccountRepository) UpdateLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAccountRepository) Create(ctx context.Context, a *merchant.Account) error {
	return m.Called(ctx, a).Error(0)
}

// plainHasher stores passwords behind a fixed prefix so tests stay fast.
type plainHasher struct{}

const plainHashPrefix = "plain$"

func (plainHasher) Hash(password string) (string, error) {
	return plainHashPrefix + password, nil
}

func (plainHasher) Verify(password, hash string) error {
	if !strings.HasPrefix(hash, plainHashPrefix) {
		return fmt.Errorf("unsupported hash")
	}
	if strings.TrimPrefix(hash, plainHashPrefix) != password {
		return merchant.ErrPasswordMismatch
	}
	return nil
}

// fakeTokenSigner issues sequential opaque tokens and remembers refresh
// subjects.
type fakeTokenSigner struct {
	mu        sync.Mutex
	now       func() time.Time
	seq       int
	refreshes map[string]session.Subject
	expired   map[string]bool
}

func newFakeTokenSigner(now func() time.Time) *fakeTokenSigner {
	return &fakeTokenSigner{
		now:       now,
		refreshes: make(map[string]session.Subject),
		expired:   make(map[string]bool),
	}
}

func (s *fakeTokenSigner) Generate(sub session.Subject) (*session.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	pair := &session.TokenPair{
		AccessToken:      fmt.Sprintf("access-%d", s.seq),
		RefreshToken:     fmt.Sprintf("refresh-%d", s.seq),
		AccessExpiresAt:  s.now().Add(24 * time.Hour),
		RefreshExpiresAt: s.now().Add(7 * 24 * time.Hour),
		ExpiresIn:        int64((24 * time.Hour).Seconds()),
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

func (s *recordingAuditSink) all() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}
