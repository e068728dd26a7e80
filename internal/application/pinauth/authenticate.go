package pinauth

import (
	"context"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/domain/staff"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type AuthenticateCommand struct {
	MerchantID string
	LocationID string
	PIN        string
	IPAddress  string
}

type AuthenticateResult struct {
	Staff       StaffSummary
	LocationID  string
	Permissions staff.Permissions
}

// Authenticate identifies the staff member owning cmd.PIN at the merchant
// and location. Failures are counted per merchant, location and PIN prefix.
// A PIN that matches someone not assigned to the location is rejected as
// forbidden without counting a failure.
//
// The location must be one of the merchant's own; otherwise every invented
// location id would start a fresh failure counter.
func (a *PinAuthenticator) Authenticate(ctx context.Context, cmd AuthenticateCommand) (*AuthenticateResult, error) {
	if err := a.requireKnownLocation(ctx, cmd.MerchantID, cmd.LocationID); err != nil {
		return nil, err
	}

	identifier := auth.LoginIdentifier(cmd.MerchantID, cmd.LocationID, cmd.PIN)
	if a.attempts.IsLocked(identifier) {
		return nil, a.lockedError(identifier)
	}

	// Location membership is checked after the match so a location gap is
	// reported apart from a wrong PIN.
	candidates, err := a.activeStaff(ctx, cmd.MerchantID, "")
	if err != nil {
		return nil, err
	}

	matched := a.findByPin(candidates, cmd.PIN)
	if matched == nil {
		return nil, a.recordFailure(identifier)
	}

	if !matched.CanAccessLocation(cmd.LocationID) {
		a.logger.Warnw("staff not assigned to location",
			"staff_id", matched.ID,
			"merchant_id", cmd.MerchantID,
			"location_id", cmd.LocationID,
		)
		return nil, apperrors.NewForbiddenError("You do not have access to this location")
	}

	a.attempts.Clear(identifier)

	if err := a.staffRepo.UpdateLastLogin(ctx, matched.ID); err != nil {
		a.logger.Warnw("failed to update last login", "staff_id", matched.ID, "error", err)
	}

	a.audit.Record(ctx, audit.Entry{
		MerchantID: cmd.MerchantID,
		StaffID:    matched.ID,
		Action:     audit.ActionStaffLogin,
		EntityType: audit.EntityTypeStaff,
		EntityID:   matched.ID,
		Details: map[string]any{
			"locationId": cmd.LocationID,
			"staffName":  matched.FullName(),
		},
		IPAddress: cmd.IPAddress,
	})

	a.logger.Infow("staff authenticated by pin",
		"staff_id", matched.ID,
		"merchant_id", cmd.MerchantID,
		"location_id", cmd.LocationID,
	)

	return &AuthenticateResult{
		Staff:       summarize(matched),
		LocationID:  cmd.LocationID,
		Permissions: staff.PermissionsFor(matched.AccessLevel),
	}, nil
}

func (a *PinAuthenticator) requireKnownLocation(ctx context.Context, merchantID, locationID string) error {
	if locationID == "" {
		return nil
	}

	ok, err := a.staffRepo.HasLocation(ctx, merchantID, locationID)
	if err != nil {
		a.logger.Errorw("failed to look up location",
			"merchant_id", merchantID,
			"location_id", locationID,
			"error", err,
		)
		return apperrors.NewInternalError("failed to load location")
	}
	if !ok {
		a.logger.Warnw("pin login for unknown location",
			"merchant_id", merchantID,
			"location_id", locationID,
		)
		return apperrors.NewForbiddenError("Unknown location")
	}
	return nil
}
