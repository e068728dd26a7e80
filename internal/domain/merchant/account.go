// Package merchant models the merchant owner account that signs in with an
// email or username and a password.
package merchant

import (
	"errors"
	"fmt"
	"time"
)

// Status is the standing of the merchant business.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusInactive  Status = "INACTIVE"
)

// SubscriptionStatus is the billing state of the merchant.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "TRIAL"
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

const MinPasswordLength = 8

var (
	ErrAccountInactive       = errors.New("merchant account is not active")
	ErrSubscriptionCancelled = errors.New("subscription has been cancelled")
	ErrTrialExpired          = errors.New("trial period has expired")
	ErrPasswordMismatch      = errors.New("password does not match")
	ErrPasswordTooShort      = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Account is the owner login of one merchant.
type Account struct {
	ID                 string
	MerchantID         string
	Name               string
	Email              string
	Username           string
	PasswordHash       string
	Status             Status
	SubscriptionStatus SubscriptionStatus
	TrialEndsAt        *time.Time
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// CheckCanLogin returns ErrAccountInactive, ErrSubscriptionCancelled or
// ErrTrialExpired when the merchant may not sign in at now.
func (a *Account) CheckCanLogin(now time.Time) error {
	if !a.IsActive() {
		return ErrAccountInactive
	}
	if a.SubscriptionStatus == SubscriptionCancelled {
		return ErrSubscriptionCancelled
	}
	if a.SubscriptionStatus == SubscriptionTrial && a.TrialEndsAt != nil && a.TrialEndsAt.Before(now) {
		return ErrTrialExpired
	}
	return nil
}

// ValidatePassword enforces the minimum length of new passwords.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
