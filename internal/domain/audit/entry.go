// Package audit defines audit log entries written by authentication.
package audit

import (
	"context"
	"time"
)

// Actions written by PIN authentication.
const (
	ActionStaffLogin      = "staff.login"
	ActionStaffLogout     = "staff.logout"
	ActionStaffUnlock     = "staff.unlock"
	ActionPinVerifyFailed = "pin.verify.failed"
	ActionUnauthorized    = "action.unauthorized"
	ActionPinChanged      = "staff.pin.changed"
	ActionPinChangeFailed = "staff.pin.change_failed"

	actionVerifiedPrefix = "action."
)

// Actions written by merchant password authentication.
const (
	ActionMerchantLogin           = "merchant.login"
	ActionMerchantLogout          = "merchant.logout"
	ActionMerchantPasswordChanged = "merchant.password.changed"
)

const (
	EntityTypeStaff    = "staff"
	EntityTypeAction   = "action"
	EntityTypeMerchant = "merchant"
)

// VerifiedAction is the audit action for a successfully verified step-up action.
func VerifiedAction(action string) string {
	return actionVerifiedPrefix + action
}

// Entry is one audit log record.
type Entry struct {
	ID         string
	MerchantID string
	// StaffID is empty when the actor is unknown, e.g. a failed verification.
	StaffID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	IPAddress  string
	Timestamp  time.Time
}

// Sink persists audit entries.
type Sink interface {
	Append(ctx context.Context, entry *Entry) error
}
