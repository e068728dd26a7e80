package pinauth

import (
	"context"
	"errors"
	"time"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
)

type SessionResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	ExpiresAt    time.Time
	Session      session.Session
	Staff        StaffSummary
}

// Login authenticates by PIN and mints a session for the matched staff
// member.
func (a *PinAuthenticator) Login(ctx context.Context, cmd AuthenticateCommand) (*SessionResult, error) {
	result, err := a.Authenticate(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return a.CreateSession(ctx, result.Staff.ID, cmd.MerchantID, cmd.LocationID)
}

// CreateSession signs a token pair for an authenticated staff member and
// stores the session under the access token. Permissions come from the
// staff member's current access level.
func (a *PinAuthenticator) CreateSession(ctx context.Context, staffID, merchantID, locationID string) (*SessionResult, error) {
	c, err := a.loadMerchantStaff(ctx, merchantID, staffID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, apperrors.NewAccountInactiveError()
	}
	if !c.CanAccessLocation(locationID) {
		return nil, apperrors.NewForbiddenError("You do not have access to this location")
	}

	level := c.AccessLevel.Normalize()
	sub := session.Subject{
		UserID:      c.ID,
		Role:        level.Role(),
		MerchantID:  merchantID,
		StaffID:     c.ID,
		LocationID:  locationID,
		Permissions: staff.PermissionsFor(level),
		Type:        session.TypeStaffPin,
	}

	pair, err := a.tokens.Generate(sub)
	if err != nil {
		a.logger.Errorw("failed to sign session tokens", "staff_id", c.ID, "error", err)
		return nil, apperrors.NewInternalError("failed to create session")
	}

	sess := session.Session{
		Subject:   sub,
		IssuedAt:  a.now(),
		ExpiresAt: pair.AccessExpiresAt,
	}
	if err := a.sessions.Create(ctx, pair.AccessToken, sess); err != nil {
		a.logger.Errorw("failed to store session", "staff_id", c.ID, "error", err)
		return nil, apperrors.NewInternalError("failed to create session")
	}

	return &SessionResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		ExpiresAt:    pair.AccessExpiresAt,
		Session:      sess,
		Staff:        summarize(c),
	}, nil
}

// Refresh exchanges a refresh token for a new session. The staff member
// must still be active, and permissions are recomputed.
func (a *PinAuthenticator) Refresh(ctx context.Context, refreshToken string) (*SessionResult, error) {
	sub, err := a.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			return nil, apperrors.NewTokenExpiredError("Refresh token")
		}
		return nil, apperrors.NewTokenInvalidError("refresh token")
	}
	// Merchant sessions refresh through the merchant login flow.
	if sub.Type == session.TypeMerchant || sub.StaffID == "" {
		return nil, apperrors.NewTokenInvalidError("refresh token")
	}

	c, err := a.staffRepo.FindByID(ctx, sub.StaffID)
	if err != nil {
		a.logger.Errorw("failed to load staff", "staff_id", sub.StaffID, "error", err)
		return nil, apperrors.NewInternalError("failed to load staff")
	}
	if c == nil || c.MerchantID != sub.MerchantID {
		return nil, apperrors.NewTokenInvalidError("refresh token")
	}
	if !c.IsActive() {
		return nil, apperrors.NewAccountInactiveError()
	}

	return a.CreateSession(ctx, c.ID, sub.MerchantID, sub.LocationID)
}

// Logout removes the session stored under token, whether it was opened by
// PIN or by merchant password. Unknown tokens are not an error.
func (a *PinAuthenticator) Logout(ctx context.Context, token, ipAddress string) error {
	sess, err := a.sessions.Get(ctx, token)
	if err != nil {
		return apperrors.NewInternalError("failed to load session")
	}
	if err := a.sessions.Remove(ctx, token); err != nil {
		a.logger.Errorw("failed to remove session", "error", err)
		return apperrors.NewInternalError("failed to logout")
	}
	if sess == nil {
		return nil
	}

	entry := audit.Entry{
		MerchantID: sess.Subject.MerchantID,
		StaffID:    sess.Subject.StaffID,
		Action:     audit.ActionStaffLogout,
		EntityType: audit.EntityTypeStaff,
		EntityID:   sess.Subject.UserID,
		Details: map[string]any{
			"logoutAt": a.now().Format(time.RFC3339),
		},
		IPAddress: ipAddress,
	}
	if sess.Subject.Type == session.TypeMerchant {
		entry.Action = audit.ActionMerchantLogout
		entry.EntityType = audit.EntityTypeMerchant
		entry.EntityID = sess.Subject.MerchantID
	}
	a.audit.Record(ctx, entry)
	return nil
}

// GetSession resolves a bearer token, refreshing its activity.
func (a *PinAuthenticator) GetSession(ctx context.Context, token string) (*session.Session, error) {
	sess, err := a.sessions.Get(ctx, token)
	if err != nil {
		a.logger.Errorw("failed to load session", "error", err)
		return nil, apperrors.NewInternalError("failed to load session")
	}
	if sess == nil {
		return nil, apperrors.NewSessionExpiredError()
	}
	return sess, nil
}

// RevokeStaffSessions ends every session of a staff member of the merchant.
func (a *PinAuthenticator) RevokeStaffSessions(ctx context.Context, merchantID, staffID string) (int, error) {
	if _, err := a.loadMerchantStaff(ctx, merchantID, staffID); err != nil {
		return 0, err
	}
	n, err := a.sessions.RemoveAllForUser(ctx, staffID)
	if err != nil {
		a.logger.Errorw("failed to revoke staff sessions", "staff_id", staffID, "error", err)
		return 0, apperrors.NewInternalError("failed to revoke sessions")
	}
	a.logger.Infow("staff sessions revoked", "staff_id", staffID, "removed", n)
	return n, nil
}

// RevokeMerchantSessions ends every session of the merchant.
func (a *PinAuthenticator) RevokeMerchantSessions(ctx context.Context, merchantID string) (int, error) {
	n, err := a.sessions.RemoveAllForMerchant(ctx, merchantID)
	if err != nil {
		a.logger.Errorw("failed to revoke merchant sessions", "merchant_id", merchantID, "error", err)
		return 0, apperrors.NewInternalError("failed to revoke sessions")
	}
	a.logger.Infow("merchant sessions revoked", "merchant_id", merchantID, "removed", n)
	return n, nil
}

func (a *PinAuthenticator) CountActiveSessions(ctx context.Context, merchantID string) (int, error) {
	n, err := a.sessions.CountActive(ctx, merchantID)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count sessions")
	}
	return n, nil
}
