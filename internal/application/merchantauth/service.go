// Package merchantauth signs merchant owners in by password and mints their
// sessions in the same store as PIN sessions.
package merchantauth

import (
	"context"
	"errors"
	"time"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/biztime"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
)

const invalidLoginMessage = "Invalid email or password"

// MerchantSummary is the public view of a merchant account.
type MerchantSummary struct {
	ID                 string                      `json:"id"`
	AccountID          string                      `json:"account_id"`
	Name               string                      `json:"name"`
	Email              string                      `json:"email"`
	Username           string                      `json:"username,omitempty"`
	SubscriptionStatus merchant.SubscriptionStatus `json:"subscription_status"`
	TrialEndsAt        *time.Time                  `json:"trial_ends_at,omitempty"`
}

func summarize(a *merchant.Account) MerchantSummary {
	return MerchantSummary{
		ID:                 a.MerchantID,
		AccountID:          a.ID,
		Name:               a.Name,
		Email:              a.Email,
		Username:           a.Username,
		SubscriptionStatus: a.SubscriptionStatus,
		TrialEndsAt:        a.TrialEndsAt,
	}
}

type Authenticator struct {
	accounts merchant.Repository
	hasher   merchant.PasswordHasher
	sessions session.Store
	tokens   session.TokenSigner
	audit    *audit.Logger
	now      func() time.Time
	logger   logger.Interface
}

func NewAuthenticator(
	accounts merchant.Repository,
	hasher merchant.PasswordHasher,
	sessions session.Store,
	tokens session.TokenSigner,
	auditLogger *audit.Logger,
	now func() time.Time,
	log logger.Interface,
) *Authenticator {
	if now == nil {
		now = biztime.NowUTC
	}
	return &Authenticator{
		accounts: accounts,
		hasher:   hasher,
		sessions: sessions,
		tokens:   tokens,
		audit:    auditLogger,
		now:      now,
		logger:   log.With("component", "merchantauth"),
	}
}

type SessionResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	ExpiresAt    time.Time
	Session      session.Session
	Merchant     MerchantSummary
}

// passwordMatches treats a malformed hash as a mismatch and logs it.
func (a *Authenticator) passwordMatches(acct *merchant.Account, password string) bool {
	if acct.PasswordHash == "" {
		return false
	}
	err := a.hasher.Verify(password, acct.PasswordHash)
	if err == nil {
		return true
	}
	if !errors.Is(err, merchant.ErrPasswordMismatch) {
		a.logger.Warnw("unreadable password hash", "account_id", acct.ID, "error", err)
	}
	return false
}

// loginError maps an account standing error to the message shown at login.
func loginError(err error) error {
	switch {
	case errors.Is(err, merchant.ErrAccountInactive):
		return apperrors.NewUnauthorizedError("Merchant account is not active")
	case errors.Is(err, merchant.ErrSubscriptionCancelled):
		return apperrors.NewUnauthorizedError("Subscription has been cancelled")
	case errors.Is(err, merchant.ErrTrialExpired):
		return apperrors.NewUnauthorizedError("Trial period has expired")
	default:
		return apperrors.NewUnauthorizedError(invalidLoginMessage)
	}
}

func (a *Authenticator) loadAccount(ctx context.Context, id string) (*merchant.Account, error) {
	acct, err := a.accounts.FindByID(ctx, id)
	if err != nil {
		a.logger.Errorw("failed to load merchant account", "account_id", id, "error", err)
		return nil, apperrors.NewInternalError("failed to load merchant account")
	}
	return acct, nil
}

// createSession signs a token pair for the account and stores the session
// under the access token.
func (a *Authenticator) createSession(ctx context.Context, acct *merchant.Account) (*SessionResult, error) {
	sub := session.Subject{
		UserID:      acct.ID,
		Role:        staff.RoleMerchant,
		MerchantID:  acct.MerchantID,
		Permissions: staff.MerchantPermissions(),
		Type:        session.TypeMerchant,
	}

	pair, err := a.tokens.Generate(sub)
	if err != nil {
		a.logger.Errorw("failed to sign session tokens", "account_id", acct.ID, "error", err)
		return nil, apperrors.NewInternalError("failed to create session")
	}

	sess := session.Session{
		Subject:   sub,
		IssuedAt:  a.now(),
		ExpiresAt: pair.AccessExpiresAt,
	}
	if err := a.sessions.Create(ctx, pair.AccessToken, sess); err != nil {
		a.logger.Errorw("failed to store session", "account_id", acct.ID, "error", err)
		return nil, apperrors.NewInternalError("failed to create session")
	}

	return &SessionResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		ExpiresAt:    pair.AccessExpiresAt,
		Session:      sess,
		Merchant:     summarize(acct),
	}, nil
}
