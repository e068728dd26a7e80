// Package session defines the bearer-token session model and the store
// contract shared by the in-memory and Redis implementations.
package session

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/heya-pos/heya/internal/domain/staff"
)

// Type distinguishes how the session was established.
type Type string

const (
	TypeStaffPin Type = "staff_pin"
	TypeMerchant Type = "merchant"
)

// Subject is the identity a session authenticates.
type Subject struct {
	UserID      string
	Role        staff.Role
	MerchantID  string
	StaffID     string
	LocationID  string
	Permissions staff.Permissions
	Type        Type
}

// Session is what the store hands out. Last activity is tracked by the store
// and never part of this value.
type Session struct {
	Subject   Subject
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	s.Subject.Permissions = slices.Clone(s.Subject.Permissions)
	return s
}

// Patch holds optional field updates applied by Store.Update.
type Patch struct {
	LocationID  *string
	Permissions staff.Permissions
	ExpiresAt   *time.Time
}

// Apply merges the set fields of p into s.
func (p Patch) Apply(s *Session) {
	if p.LocationID != nil {
		s.Subject.LocationID = *p.LocationID
	}
	if p.Permissions != nil {
		s.Subject.Permissions = slices.Clone(p.Permissions)
	}
	if p.ExpiresAt != nil {
		s.ExpiresAt = *p.ExpiresAt
	}
}

// Stats is a point-in-time size report.
type Stats struct {
	Total int `json:"total"`
}

// Store maps bearer tokens to sessions with bounded size and expiry.
type Store interface {
	Create(ctx context.Context, token string, s Session) error
	// Get returns nil, nil for unknown, idle or expired tokens.
	Get(ctx context.Context, token string) (*Session, error)
	Update(ctx context.Context, token string, patch Patch) error
	Remove(ctx context.Context, token string) error
	RemoveAllForUser(ctx context.Context, userID string) (int, error)
	RemoveAllForMerchant(ctx context.Context, merchantID string) (int, error)
	Extend(ctx context.Context, token string) error
	CountActive(ctx context.Context, merchantID string) (int, error)
	Sweep(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
}

// Config controls expiry and capacity.
type Config struct {
	IdleTimeout        time.Duration
	SweepInterval      time.Duration
	MaxSessions        int
	MaxSessionsPerUser int
}

// DefaultConfig returns 24h idle timeout, 5m sweeps, 10,000 sessions and
// 10 per user.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:        24 * time.Hour,
		SweepInterval:      5 * time.Minute,
		MaxSessions:        10000,
		MaxSessionsPerUser: 10,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = def.MaxSessions
	}
	if c.MaxSessionsPerUser <= 0 {
		c.MaxSessionsPerUser = def.MaxSessionsPerUser
	}
	return c
}

// Expired reports whether a session last active at lastActivity is past its
// idle timeout or absolute expiry at now.
func (c Config) Expired(s Session, lastActivity, now time.Time) bool {
	return now.Sub(lastActivity) > c.IdleTimeout || s.ExpiresAt.Before(now)
}

// TokenPair is a signed access and refresh token. The session is stored
// under AccessToken and expires with it.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	ExpiresIn        int64
}

// ErrTokenExpired is returned by TokenSigner.VerifyRefresh for a token past
// its expiry.
var ErrTokenExpired = errors.New("token expired")

// TokenSigner issues bearer tokens for a subject. Permissions are not
// encoded in tokens; they are recomputed when a session is minted.
type TokenSigner interface {
	Generate(sub Subject) (*TokenPair, error)
	// VerifyRefresh returns the subject of a valid, unexpired refresh token.
	VerifyRefresh(token string) (*Subject, error)
}
