// Package auth holds the lockout model shared by PIN authentication and the
// attempt tracker implementations.
package auth

import (
	"time"

	"github.com/heya-pos/heya/internal/domain/staff"
)

// AttemptRecord counts failed attempts for one identifier.
type AttemptRecord struct {
	Identifier  string
	Count       int
	LastAttempt time.Time
	LockedUntil *time.Time
}

// IsLocked reports whether the record holds a lock that has not elapsed at now.
func (r *AttemptRecord) IsLocked(now time.Time) bool {
	return r.LockedUntil != nil && r.LockedUntil.After(now)
}

// AttemptTracker rate-limits repeated authentication failures per
// identifier. None of its operations fail; a missing record means no prior
// failures.
type AttemptTracker interface {
	IsLocked(identifier string) bool
	RecordAttempt(identifier string, success bool) AttemptRecord
	RemainingAttempts(identifier string) int
	// TimeUntilUnlock returns whole minutes left on the lock, rounded up, or
	// nil when the identifier is not locked.
	TimeUntilUnlock(identifier string) *int
	Clear(identifier string)
	// Cleanup drops records whose lock elapsed or whose last attempt is older
	// than the lockout window.
	Cleanup()
}

// LockoutPolicy configures attempt tracking.
type LockoutPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultLockoutPolicy returns the default policy: 3 attempts, 15 minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:     3,
		LockoutDuration: 15 * time.Minute,
	}
}

// WithDefaults fills zero fields from DefaultLockoutPolicy.
func (p LockoutPolicy) WithDefaults() LockoutPolicy {
	def := DefaultLockoutPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.LockoutDuration <= 0 {
		p.LockoutDuration = def.LockoutDuration
	}
	return p
}

// LoginIdentifier scopes PIN login lockouts to merchant, location and the
// leading PIN digits. PINs sharing a prefix share a counter.
func LoginIdentifier(merchantID, locationID, pin string) string {
	return merchantID + ":" + locationID + ":" + staff.PINPrefix(pin)
}

// StepUpIdentifier scopes step-up verification lockouts to merchant and the
// leading PIN digits.
func StepUpIdentifier(merchantID, pin string) string {
	return merchantID + ":" + staff.PINPrefix(pin)
}

// UnlockIdentifier scopes lock-screen unlock lockouts to the merchant, so
// every device of the merchant shares one counter.
func UnlockIdentifier(merchantID string) string {
	return "unlock:" + merchantID
}
