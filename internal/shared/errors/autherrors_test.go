package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidPINError(t *testing.T) {
	err := NewInvalidPINError(2)

	assert.Equal(t, ErrorTypeInvalidCredentials, err.Type)
	assert.Equal(t, http.StatusUnauthorized, err.Code)
	assert.Equal(t, "Invalid PIN. 2 attempts remaining.", err.Message)
	require.NotNil(t, err.RemainingAttempts)
	assert.Equal(t, 2, *err.RemainingAttempts)
	assert.Nil(t, err.MinutesUntilUnlock)
	assert.False(t, err.ShouldLog)
	assert.True(t, err.SecurityEvent)

	assert.Equal(t, "Invalid PIN. 1 attempt remaining.", NewInvalidPINError(1).Message)
}

func TestNewAccountLockedError(t *testing.T) {
	err := NewAccountLockedError(15)

	assert.Equal(t, ErrorTypeAccountLocked, err.Type)
	assert.Equal(t, http.StatusForbidden, err.Code)
	assert.Contains(t, err.Message, "15 minutes")
	require.NotNil(t, err.MinutesUntilUnlock)
	assert.Equal(t, 15, *err.MinutesUntilUnlock)
	assert.True(t, err.ShouldLog)
}

func TestAuthErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NewAccountLockedError(3))

	assert.True(t, IsAuthError(wrapped))
	assert.True(t, IsAccountLockedError(wrapped))
	assert.False(t, IsInvalidCredentialsError(wrapped))
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, http.StatusForbidden, GetAppError(wrapped).Code)
	assert.True(t, ShouldLogAuthError(wrapped))
	assert.True(t, IsSecurityEvent(wrapped))
}

func TestForbiddenIsNotAuthError(t *testing.T) {
	err := NewForbiddenError("Staff not authorized for this location")

	assert.False(t, IsAuthError(err))
	assert.True(t, IsForbiddenError(err))
	assert.True(t, ShouldLogAuthError(err))
	assert.False(t, IsSecurityEvent(err))
}

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, IsDuplicateError(nil))
	assert.True(t, IsDuplicateError(fmt.Errorf("Error 1062: Duplicate entry 'x' for key 'PRIMARY'")))
	assert.True(t, IsDuplicateError(fmt.Errorf("UNIQUE constraint failed: staff.id")))
	assert.False(t, IsDuplicateError(fmt.Errorf("connection refused")))
}
