// Package staff models the staff credentials that PIN authentication reads.
package staff

import (
	"slices"
	"strings"
	"time"
)

// Status is the employment status of a staff member.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// AccessLevel is the fixed three-tier privilege level of a staff member.
type AccessLevel int

const (
	AccessLevelStaff   AccessLevel = 1
	AccessLevelManager AccessLevel = 2
	AccessLevelOwner   AccessLevel = 3
)

// Role is the label carried in sessions and used as the policy subject.
type Role string

const (
	RoleStaff   Role = "STAFF"
	RoleManager Role = "MANAGER"
	RoleOwner   Role = "OWNER"
	// RoleMerchant is the merchant owner signed in by password.
	RoleMerchant Role = "MERCHANT"
)

// Normalize maps anything outside 1..3 to level 1.
func (l AccessLevel) Normalize() AccessLevel {
	switch l {
	case AccessLevelManager, AccessLevelOwner:
		return l
	default:
		return AccessLevelStaff
	}
}

// Role returns the role label for the level.
func (l AccessLevel) Role() Role {
	switch l.Normalize() {
	case AccessLevelOwner:
		return RoleOwner
	case AccessLevelManager:
		return RoleManager
	default:
		return RoleStaff
	}
}

// Credential is a staff member as seen by authentication. It is owned by
// staff management; authentication only updates the PIN hash and last login.
type Credential struct {
	ID          string
	MerchantID  string
	FirstName   string
	LastName    string
	PinHash     string
	Status      Status
	AccessLevel AccessLevel
	LocationIDs []string
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Credential) IsActive() bool {
	return c.Status == StatusActive
}

// HasPin reports whether a PIN has been set for this staff member.
func (c *Credential) HasPin() bool {
	return c.PinHash != ""
}

// CanAccessLocation reports whether the staff member may work at
// locationID. Staff without location assignments are unrestricted, and an
// empty locationID means the request is not location scoped.
func (c *Credential) CanAccessLocation(locationID string) bool {
	if locationID == "" || len(c.LocationIDs) == 0 {
		return true
	}
	return slices.Contains(c.LocationIDs, locationID)
}

// FullName joins first and last name, skipping empty parts.
func (c *Credential) FullName() string {
	return strings.TrimSpace(strings.Join([]string{c.FirstName, c.LastName}, " "))
}
