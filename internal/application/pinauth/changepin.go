package pinauth

import (
	"context"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/domain/staff"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type ChangePinCommand struct {
	MerchantID string
	StaffID    string
	CurrentPIN string
	NewPIN     string
	IPAddress  string
}

// ChangePin replaces a staff member's PIN after verifying the current one.
// Wrong current PINs count against the step-up identifier. A new PIN already
// held by another active staff member of the merchant is rejected, since
// login identifies staff by PIN alone.
func (a *PinAuthenticator) ChangePin(ctx context.Context, cmd ChangePinCommand) error {
	if err := staff.ValidatePIN(cmd.NewPIN); err != nil {
		return apperrors.NewValidationError("New PIN must be 4-6 digits")
	}
	if cmd.NewPIN == cmd.CurrentPIN {
		return apperrors.NewValidationError("New PIN must be different from the current PIN")
	}

	identifier := auth.StepUpIdentifier(cmd.MerchantID, cmd.CurrentPIN)
	if a.attempts.IsLocked(identifier) {
		return a.lockedError(identifier)
	}

	c, err := a.loadMerchantStaff(ctx, cmd.MerchantID, cmd.StaffID)
	if err != nil {
		return err
	}
	if !c.IsActive() {
		return apperrors.NewAccountInactiveError()
	}
	if !c.HasPin() {
		return apperrors.NewValidationError("No PIN is set for this staff member")
	}

	if !a.pinMatches(c, cmd.CurrentPIN) {
		failure := a.recordFailure(identifier)
		a.auditChangeFailed(ctx, cmd, "invalid_current_pin")
		return failure
	}
	a.attempts.Clear(identifier)

	others, err := a.activeStaff(ctx, cmd.MerchantID, "")
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID != c.ID && a.pinMatches(other, cmd.NewPIN) {
			a.auditChangeFailed(ctx, cmd, "duplicate_pin")
			return apperrors.NewConflictError("This PIN is already in use")
		}
	}

	hash, err := a.hasher.Hash(cmd.NewPIN)
	if err != nil {
		a.logger.Errorw("failed to hash pin", "staff_id", c.ID, "error", err)
		return apperrors.NewInternalError("failed to change PIN")
	}
	if err := a.staffRepo.UpdatePinHash(ctx, c.ID, hash); err != nil {
		a.logger.Errorw("failed to store pin hash", "staff_id", c.ID, "error", err)
		return apperrors.NewInternalError("failed to change PIN")
	}

	a.audit.Record(ctx, audit.Entry{
		MerchantID: cmd.MerchantID,
		StaffID:    c.ID,
		Action:     audit.ActionPinChanged,
		EntityType: audit.EntityTypeStaff,
		EntityID:   c.ID,
		Details:    map[string]any{"staffName": c.FullName()},
		IPAddress:  cmd.IPAddress,
	})
	a.logger.Infow("staff pin changed", "staff_id", c.ID, "merchant_id", cmd.MerchantID)
	return nil
}

func (a *PinAuthenticator) auditChangeFailed(ctx context.Context, cmd ChangePinCommand, reason string) {
	a.audit.Record(ctx, audit.Entry{
		MerchantID: cmd.MerchantID,
		StaffID:    cmd.StaffID,
		Action:     audit.ActionPinChangeFailed,
		EntityType: audit.EntityTypeStaff,
		EntityID:   cmd.StaffID,
		Details:    map[string]any{"reason": reason},
		IPAddress:  cmd.IPAddress,
	})
}
