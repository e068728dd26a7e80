package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/biztime"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrTokenExpired  = session.ErrTokenExpired
	ErrWrongTokenUse = errors.New("wrong token type")
)

type Claims struct {
	UserID      string       `json:"user_id,omitempty"`
	StaffID     string       `json:"staff_id,omitempty"`
	MerchantID  string       `json:"merchant_id"`
	LocationID  string       `json:"location_id,omitempty"`
	Role        staff.Role   `json:"role"`
	SessionType session.Type `json:"session_type"`
	TokenType   TokenType    `json:"token_type"`
	jwt.RegisteredClaims
}

// Subject rebuilds the session subject the token was issued for, without
// permissions. Tokens minted before user_id existed carry only staff_id.
func (c *Claims) Subject() session.Subject {
	userID := c.UserID
	if userID == "" {
		userID = c.StaffID
	}
	return session.Subject{
		UserID:     userID,
		Role:       c.Role,
		MerchantID: c.MerchantID,
		StaffID:    c.StaffID,
		LocationID: c.LocationID,
		Type:       c.SessionType,
	}
}

var _ session.TokenSigner = (*JWTService)(nil)

// JWTService signs HS256 access and refresh tokens. Every token carries a
// random jti, so two pairs issued for the same subject within one second
// still differ.
type JWTService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTService(secret, issuer string, accessTTL, refreshTTL time.Duration, now func() time.Time) *JWTService {
	if now == nil {
		now = biztime.NowUTC
	}
	return &JWTService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

func (s *JWTService) Generate(sub session.Subject) (*session.TokenPair, error) {
	now := s.now()

	accessExp := now.Add(s.accessTTL)
	accessToken, err := s.sign(sub, TokenTypeAccess, now, accessExp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshExp := now.Add(s.refreshTTL)
	refreshToken, err := s.sign(sub, TokenTypeRefresh, now, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &session.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		ExpiresIn:        int64(s.accessTTL / time.Second),
	}, nil
}

func (s *JWTService) sign(sub session.Subject, tokenType TokenType, now, exp time.Time) (string, error) {
	userID := sub.UserID
	if userID == "" {
		userID = sub.StaffID
	}
	claims := &Claims{
		UserID:      userID,
		StaffID:     sub.StaffID,
		MerchantID:  sub.MerchantID,
		LocationID:  sub.LocationID,
		Role:        sub.Role,
		SessionType: sub.Type,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// VerifyRefresh verifies tokenString and requires it to be a refresh token.
func (s *JWTService) VerifyRefresh(tokenString string) (*session.Subject, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrWrongTokenUse
	}
	sub := claims.Subject()
	return &sub, nil
}

// AccessTTL returns the lifetime of access tokens.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}
