package staff

import (
	"slices"
	"strings"
)

// Wildcard grants every permission.
const Wildcard = "*"

// Permissions is the set of permission strings carried by a session.
type Permissions []string

var staffPermissions = Permissions{
	"booking.view",
	"booking.create",
	"booking.update",
	"customer.view",
	"customer.create",
	"payment.view",
	"payment.process",
	"service.view",
}

var managerExtras = Permissions{
	"booking.cancel",
	"customer.update",
	"staff.view",
	"report.view",
}

// PermissionsFor returns a fresh permission set for the level. Levels
// outside 1..3 get the level 1 set.
func PermissionsFor(level AccessLevel) Permissions {
	switch level.Normalize() {
	case AccessLevelOwner:
		return Permissions{Wildcard}
	case AccessLevelManager:
		return slices.Concat(staffPermissions, managerExtras)
	default:
		return slices.Clone(staffPermissions)
	}
}

// MerchantPermissions is the permission set of a merchant owner session.
func MerchantPermissions() Permissions {
	return Permissions{Wildcard}
}

// Allows reports whether the set grants required. A grant matches when it
// is the wildcard, equal to required, or "category.*" for required's category.
func (p Permissions) Allows(required string) bool {
	for _, granted := range p {
		if grantMatches(granted, required) {
			return true
		}
	}
	return false
}

func grantMatches(granted, required string) bool {
	if granted == Wildcard || granted == required {
		return true
	}
	category, ok := strings.CutSuffix(granted, ".*")
	return ok && strings.HasPrefix(required, category+".")
}
