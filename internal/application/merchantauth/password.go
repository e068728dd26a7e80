package merchantauth

import (
	"context"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/merchant"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type ChangePasswordCommand struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
	IPAddress       string
}

// ChangePassword replaces the account password after checking the current
// one. Existing sessions stay valid.
func (a *Authenticator) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	if err := merchant.ValidatePassword(cmd.NewPassword); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	acct, err := a.loadAccount(ctx, cmd.AccountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return apperrors.NewUnauthorizedError("Invalid merchant account")
	}
	if !a.passwordMatches(acct, cmd.CurrentPassword) {
		a.logger.Warnw("merchant password change with wrong current password", "account_id", acct.ID)
		return apperrors.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := a.hasher.Hash(cmd.NewPassword)
	if err != nil {
		a.logger.Errorw("failed to hash password", "account_id", acct.ID, "error", err)
		return apperrors.NewInternalError("failed to change password")
	}
	if err := a.accounts.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		a.logger.Errorw("failed to store password", "account_id", acct.ID, "error", err)
		return apperrors.NewInternalError("failed to change password")
	}

	a.audit.Record(ctx, audit.Entry{
		MerchantID: acct.MerchantID,
		Action:     audit.ActionMerchantPasswordChanged,
		EntityType: audit.EntityTypeMerchant,
		EntityID:   acct.MerchantID,
		Details: map[string]any{
			"accountId": acct.ID,
		},
		IPAddress: cmd.IPAddress,
	})
	a.logger.Infow("merchant password changed", "account_id", acct.ID)
	return nil
}
