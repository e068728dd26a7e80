package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authentication-specific error types
const (
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	ErrorTypeAccountLocked      ErrorType = "account_locked"
	ErrorTypeAccountInactive    ErrorType = "account_inactive"
	ErrorTypeTokenExpired       ErrorType = "token_expired"
	ErrorTypeTokenInvalid       ErrorType = "token_invalid"
	ErrorTypeSessionExpired     ErrorType = "session_expired"
)

// AuthError represents authentication-specific errors with enhanced security context
type AuthError struct {
	*AppError
	// ShouldLog determines if this error should be logged.
	// Wrong PINs are expected and don't need error-level logging.
	ShouldLog bool
	// SecurityEvent indicates if this should be tracked as a security event
	SecurityEvent bool
	// RemainingAttempts is set on invalid PIN errors, nil otherwise
	RemainingAttempts *int `json:"remaining_attempts,omitempty"`
	// MinutesUntilUnlock is set on lockout errors, nil otherwise
	MinutesUntilUnlock *int `json:"minutes_until_unlock,omitempty"`
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewInvalidCredentialsError creates an error for a credential that did not match.
func NewInvalidCredentialsError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidCredentials,
			Message: "Invalid PIN",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false,
		SecurityEvent: true,
	}
}

// NewInvalidPINError creates an invalid PIN error that discloses how many
// attempts are left before the identifier locks.
func NewInvalidPINError(remaining int) *AuthError {
	err := NewInvalidCredentialsError()
	noun := "attempts"
	if remaining == 1 {
		noun = "attempt"
	}
	err.Message = fmt.Sprintf("Invalid PIN. %d %s remaining.", remaining, noun)
	err.RemainingAttempts = &remaining
	return err
}

// NewAccountLockedError creates an error for a locked identifier. minutes is
// the lock time left, rounded up.
func NewAccountLockedError(minutes int) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeAccountLocked,
			Message: fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", minutes),
			Code:    http.StatusForbidden,
			Details: "PIN entry is temporarily locked",
		},
		ShouldLog:          true,
		SecurityEvent:      true,
		MinutesUntilUnlock: &minutes,
	}
}

// NewAccountInactiveError creates an error for inactive staff accounts
func NewAccountInactiveError(details ...string) *AuthError {
	detail := "Staff account is not active"
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeAccountInactive,
			Message: "Account is not active",
			Code:    http.StatusForbidden,
			Details: detail,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewTokenExpiredError creates an error for expired tokens (JWT, refresh, etc.)
func NewTokenExpiredError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenExpired,
			Message: fmt.Sprintf("%s has expired", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Please login again",
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewTokenInvalidError creates an error for invalid tokens
func NewTokenInvalidError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenInvalid,
			Message: fmt.Sprintf("Invalid %s", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Token is invalid or has been revoked",
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewSessionExpiredError creates an error for missing or expired sessions
func NewSessionExpiredError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeSessionExpired,
			Message: "Session has expired",
			Code:    http.StatusUnauthorized,
			Details: "Please login again",
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// IsAuthError checks if the error is an AuthError (supports wrapped errors via errors.As)
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts AuthError from error chain (supports wrapped errors via errors.As)
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// IsAccountLockedError reports whether err is a lockout rejection.
func IsAccountLockedError(err error) bool {
	authErr := GetAuthError(err)
	return authErr != nil && authErr.Type == ErrorTypeAccountLocked
}

// IsInvalidCredentialsError reports whether err is a wrong-PIN rejection.
func IsInvalidCredentialsError(err error) bool {
	authErr := GetAuthError(err)
	return authErr != nil && authErr.Type == ErrorTypeInvalidCredentials
}

// ShouldLogAuthError returns true if the authentication error should be logged
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
