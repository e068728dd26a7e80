package handlers

import (
	"time"

	"github.com/heya-pos/heya/internal/application/merchantauth"
	"github.com/heya-pos/heya/internal/application/pinauth"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
)

type PinLoginRequest struct {
	MerchantID string `json:"merchant_id" binding:"required"`
	LocationID string `json:"location_id" binding:"required"`
	PIN        string `json:"pin" binding:"required,pin"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyActionRequest struct {
	// StaffID defaults to the X-Active-Staff-Id header, then to the session.
	StaffID    string `json:"staff_id"`
	PIN        string `json:"pin" binding:"required,pin"`
	Action     string `json:"action" binding:"required"`
	ResourceID string `json:"resource_id"`
}

type UnlockRequest struct {
	PIN string `json:"pin" binding:"required,pin"`
}

type ChangePinRequest struct {
	StaffID    string `json:"staff_id"`
	CurrentPIN string `json:"current_pin" binding:"required,pin"`
	NewPIN     string `json:"new_pin" binding:"required,pin"`
}

type MerchantLoginRequest struct {
	// Email also accepts the legacy username.
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type SessionResponse struct {
	UserID      string            `json:"user_id"`
	StaffID     string            `json:"staff_id,omitempty"`
	MerchantID  string            `json:"merchant_id"`
	LocationID  string            `json:"location_id,omitempty"`
	Role        staff.Role        `json:"role"`
	Permissions staff.Permissions `json:"permissions"`
	Type        session.Type      `json:"type"`
	IssuedAt    time.Time         `json:"issued_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

type LoginResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	TokenType    string               `json:"token_type"`
	ExpiresIn    int64                `json:"expires_in"`
	ExpiresAt    time.Time            `json:"expires_at"`
	Staff        pinauth.StaffSummary `json:"staff"`
	Session      SessionResponse      `json:"session"`
}

type MerchantLoginResponse struct {
	AccessToken  string                       `json:"access_token"`
	RefreshToken string                       `json:"refresh_token"`
	TokenType    string                       `json:"token_type"`
	ExpiresIn    int64                        `json:"expires_in"`
	ExpiresAt    time.Time                    `json:"expires_at"`
	Merchant     merchantauth.MerchantSummary `json:"merchant"`
	Session      SessionResponse              `json:"session"`
}

type MeResponse struct {
	Type        session.Type                 `json:"type"`
	Merchant    merchantauth.MerchantSummary `json:"merchant"`
	Permissions staff.Permissions            `json:"permissions"`
}

type VerifyActionResponse struct {
	Verified bool                 `json:"verified"`
	Action   string               `json:"action"`
	Staff    pinauth.StaffSummary `json:"staff"`
}

type UnlockResponse struct {
	Staff pinauth.StaffSummary `json:"staff"`
}

type SessionCountResponse struct {
	MerchantID string `json:"merchant_id"`
	Active     int    `json:"active"`
}

type RevokeSessionsResponse struct {
	Revoked int `json:"revoked"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	sub := s.Subject
	return SessionResponse{
		UserID:      sub.UserID,
		StaffID:     sub.StaffID,
		MerchantID:  sub.MerchantID,
		LocationID:  sub.LocationID,
		Role:        sub.Role,
		Permissions: sub.Permissions,
		Type:        sub.Type,
		IssuedAt:    s.IssuedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

func toLoginResponse(r *pinauth.SessionResult) LoginResponse {
	return LoginResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    r.ExpiresIn,
		ExpiresAt:    r.ExpiresAt,
		Staff:        r.Staff,
		Session:      toSessionResponse(&r.Session),
	}
}

func toMerchantLoginResponse(r *merchantauth.SessionResult) MerchantLoginResponse {
	return MerchantLoginResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    r.ExpiresIn,
		ExpiresAt:    r.ExpiresAt,
		Merchant:     r.Merchant,
		Session:      toSessionResponse(&r.Session),
	}
}
