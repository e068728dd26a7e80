package handlers

import (
	"context"

	"github.com/heya-pos/heya/internal/application/merchantauth"
	"github.com/heya-pos/heya/internal/application/pinauth"
	"github.com/heya-pos/heya/internal/domain/session"
)

// Service interfaces for the handlers - enables unit testing with fakes.

type pinAuthService interface {
	Login(ctx context.Context, cmd pinauth.AuthenticateCommand) (*pinauth.SessionResult, error)
	Refresh(ctx context.Context, refreshToken string) (*pinauth.SessionResult, error)
	Logout(ctx context.Context, token, ipAddress string) error
	GetSession(ctx context.Context, token string) (*session.Session, error)
	VerifyPinForAction(ctx context.Context, cmd pinauth.VerifyActionCommand) (*pinauth.StaffSummary, error)
	UnlockByPin(ctx context.Context, cmd pinauth.UnlockCommand) (*pinauth.StaffSummary, error)
	PinStatus(ctx context.Context, merchantID, locationID string) (*pinauth.PinStatusResult, error)
	ChangePin(ctx context.Context, cmd pinauth.ChangePinCommand) error
}

type merchantAuthService interface {
	Login(ctx context.Context, cmd merchantauth.LoginCommand) (*merchantauth.SessionResult, error)
	Refresh(ctx context.Context, refreshToken string) (*merchantauth.SessionResult, error)
	ChangePassword(ctx context.Context, cmd merchantauth.ChangePasswordCommand) error
	Me(ctx context.Context, accountID string) (*merchantauth.MerchantSummary, error)
}

type sessionAdminService interface {
	CountActiveSessions(ctx context.Context, merchantID string) (int, error)
	RevokeStaffSessions(ctx context.Context, merchantID, staffID string) (int, error)
	RevokeMerchantSessions(ctx context.Context, merchantID string) (int, error)
}

type sessionStatsProvider interface {
	Stats(ctx context.Context) (session.Stats, error)
}
