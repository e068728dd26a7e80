package merchantauth

import (
	"context"
	"errors"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/session"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type LoginCommand struct {
	// Login is the merchant email, or the legacy username.
	Login     string
	Password  string
	IPAddress string
}

// Login checks the password and the merchant's standing, then mints a
// merchant session. Unknown logins and wrong passwords share one message.
func (a *Authenticator) Login(ctx context.Context, cmd LoginCommand) (*SessionResult, error) {
	acct, err := a.accounts.FindByLogin(ctx, cmd.Login)
	if err != nil {
		a.logger.Errorw("failed to look up merchant account", "error", err)
		return nil, apperrors.NewInternalError("failed to load merchant account")
	}
	if acct == nil || !a.passwordMatches(acct, cmd.Password) {
		a.logger.Warnw("merchant login failed", "ip_address", cmd.IPAddress)
		return nil, apperrors.NewUnauthorizedError(invalidLoginMessage)
	}

	if err := acct.CheckCanLogin(a.now()); err != nil {
		a.logger.Warnw("merchant login refused",
			"account_id", acct.ID,
			"merchant_id", acct.MerchantID,
			"reason", err.Error(),
		)
		return nil, loginError(err)
	}

	if err := a.accounts.UpdateLastLogin(ctx, acct.ID); err != nil {
		a.logger.Warnw("failed to update last login", "account_id", acct.ID, "error", err)
	}

	result, err := a.createSession(ctx, acct)
	if err != nil {
		return nil, err
	}

	a.audit.Record(ctx, audit.Entry{
		MerchantID: acct.MerchantID,
		Action:     audit.ActionMerchantLogin,
		EntityType: audit.EntityTypeMerchant,
		EntityID:   acct.MerchantID,
		Details: map[string]any{
			"accountId": acct.ID,
		},
		IPAddress: cmd.IPAddress,
	})

	a.logger.Infow("merchant authenticated by password",
		"account_id", acct.ID,
		"merchant_id", acct.MerchantID,
	)
	return result, nil
}

// Refresh exchanges a merchant refresh token for a new session. The merchant
// must still be allowed to sign in.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*SessionResult, error) {
	sub, err := a.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			return nil, apperrors.NewTokenExpiredError("Refresh token")
		}
		return nil, apperrors.NewTokenInvalidError("refresh token")
	}
	if sub.Type != session.TypeMerchant {
		return nil, apperrors.NewTokenInvalidError("refresh token")
	}

	acct, err := a.loadAccount(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.MerchantID != sub.MerchantID {
		return nil, apperrors.NewTokenInvalidError("refresh token")
	}
	if err := acct.CheckCanLogin(a.now()); err != nil {
		return nil, loginError(err)
	}

	return a.createSession(ctx, acct)
}

// Me returns the merchant behind an account id taken from a merchant
// session.
func (a *Authenticator) Me(ctx context.Context, accountID string) (*MerchantSummary, error) {
	acct, err := a.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, apperrors.NewSessionExpiredError()
	}
	summary := summarize(acct)
	return &summary, nil
}
