// Package pinauth authenticates staff by PIN, guards step-up actions and
// mints sessions.
package pinauth

import (
	"context"
	"errors"
	"time"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/biztime"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
)

// StaffSummary is the public view of a staff member returned by PIN checks.
type StaffSummary struct {
	ID          string            `json:"id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	AccessLevel staff.AccessLevel `json:"access_level"`
	Role        staff.Role        `json:"role"`
}

func summarize(c *staff.Credential) StaffSummary {
	level := c.AccessLevel.Normalize()
	return StaffSummary{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		AccessLevel: level,
		Role:        level.Role(),
	}
}

type PinAuthenticator struct {
	staffRepo staff.Repository
	hasher    staff.PinHasher
	attempts  auth.AttemptTracker
	sessions  session.Store
	tokens    session.TokenSigner
	audit     *audit.Logger
	now       func() time.Time
	logger    logger.Interface
}

func NewPinAuthenticator(
	staffRepo staff.Repository,
	hasher staff.PinHasher,
	attempts auth.AttemptTracker,
	sessions session.Store,
	tokens session.TokenSigner,
	auditLogger *audit.Logger,
	now func() time.Time,
	log logger.Interface,
) *PinAuthenticator {
	if now == nil {
		now = biztime.NowUTC
	}
	return &PinAuthenticator{
		staffRepo: staffRepo,
		hasher:    hasher,
		attempts:  attempts,
		sessions:  sessions,
		tokens:    tokens,
		audit:     auditLogger,
		now:       now,
		logger:    log.With("component", "pinauth"),
	}
}

// pinMatches compares pin against the credential's hash. Malformed hashes
// count as a mismatch and are logged.
func (a *PinAuthenticator) pinMatches(c *staff.Credential, pin string) bool {
	if !c.HasPin() {
		return false
	}
	err := a.hasher.Verify(pin, c.PinHash)
	if err == nil {
		return true
	}
	if !errors.Is(err, staff.ErrPinMismatch) {
		a.logger.Warnw("pin hash could not be verified", "staff_id", c.ID, "error", err)
	}
	return false
}

// findByPin scans candidates in order and returns the first whose PIN
// matches.
func (a *PinAuthenticator) findByPin(candidates []*staff.Credential, pin string) *staff.Credential {
	for _, c := range candidates {
		if a.pinMatches(c, pin) {
			return c
		}
	}
	return nil
}

// lockedError reports the lock on identifier.
func (a *PinAuthenticator) lockedError(identifier string) error {
	minutes := 0
	if m := a.attempts.TimeUntilUnlock(identifier); m != nil {
		minutes = *m
	}
	return apperrors.NewAccountLockedError(minutes)
}

// recordFailure counts a failed attempt and returns the error for the
// caller: a lockout when this attempt locked the identifier, otherwise an
// invalid PIN error with the remaining attempts.
func (a *PinAuthenticator) recordFailure(identifier string) error {
	record := a.attempts.RecordAttempt(identifier, false)
	now := a.now()
	if record.IsLocked(now) {
		a.logger.Warnw("pin identifier locked after repeated failures",
			"identifier", identifier,
			"attempts", record.Count,
		)
		return apperrors.NewAccountLockedError(biztime.CeilMinutes(record.LockedUntil.Sub(now)))
	}
	return apperrors.NewInvalidPINError(a.attempts.RemainingAttempts(identifier))
}

// loadMerchantStaff returns the staff member when it belongs to merchantID.
func (a *PinAuthenticator) loadMerchantStaff(ctx context.Context, merchantID, staffID string) (*staff.Credential, error) {
	c, err := a.staffRepo.FindByID(ctx, staffID)
	if err != nil {
		a.logger.Errorw("failed to load staff", "staff_id", staffID, "error", err)
		return nil, apperrors.NewInternalError("failed to load staff")
	}
	if c == nil || c.MerchantID != merchantID {
		return nil, apperrors.NewNotFoundError("Staff member not found")
	}
	return c, nil
}

func (a *PinAuthenticator) activeStaff(ctx context.Context, merchantID, locationID string) ([]*staff.Credential, error) {
	candidates, err := a.staffRepo.FindActiveByMerchant(ctx, merchantID, locationID)
	if err != nil {
		a.logger.Errorw("failed to load active staff", "merchant_id", merchantID, "error", err)
		return nil, apperrors.NewInternalError("failed to load staff")
	}
	return candidates, nil
}
