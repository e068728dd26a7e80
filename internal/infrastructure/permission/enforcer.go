package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/logger"
)

// accessModel grants a role a permission when a policy names the
// permission exactly, the "*" wildcard, or its "category.*".
const accessModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj)
`

var accessLevels = []staff.AccessLevel{
	staff.AccessLevelStaff,
	staff.AccessLevelManager,
	staff.AccessLevelOwner,
}

type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewGormEnforcer stores policies in the casbin_rule table of db.
func NewGormEnforcer(db *gorm.DB, log logger.Interface) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}
	return NewEnforcer(adapter, log)
}

// NewEnforcer builds an enforcer over adapter, or in memory only when
// adapter is nil, and syncs the access-level policies.
func NewEnforcer(adapter persist.Adapter, log logger.Interface) (*Enforcer, error) {
	m, err := model.NewModelFromString(accessModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	var enforcer *casbin.Enforcer
	if adapter != nil {
		enforcer, err = casbin.NewEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{
		enforcer: enforcer,
		logger:   log.With("component", "permission.enforcer"),
	}
	if err := e.SyncAccessLevelPolicies(); err != nil {
		return nil, err
	}
	return e, nil
}

// Enforce reports whether role holds permission.
func (e *Enforcer) Enforce(role staff.Role, permission string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(string(role), permission)
	if err != nil {
		e.logger.Errorw("permission check failed", "error", err, "role", role, "permission", permission)
		return false, fmt.Errorf("permission check failed: %w", err)
	}

	return allowed, nil
}

// SyncAccessLevelPolicies replaces each role's policies with the
// permissions of its access level. Merchant owners get their own role.
func (e *Enforcer) SyncAccessLevelPolicies() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, level := range accessLevels {
		if err := e.replaceRolePolicies(level.Role(), staff.PermissionsFor(level)); err != nil {
			return err
		}
	}
	if err := e.replaceRolePolicies(staff.RoleMerchant, staff.MerchantPermissions()); err != nil {
		return err
	}

	e.logger.Infow("access level policies synced", "roles", len(accessLevels)+1)
	return nil
}

// replaceRolePolicies runs with e.mu held.
func (e *Enforcer) replaceRolePolicies(r staff.Role, perms staff.Permissions) error {
	role := string(r)
	if _, err := e.enforcer.RemoveFilteredPolicy(0, role); err != nil {
		return fmt.Errorf("failed to clear policies for %s: %w", role, err)
	}

	rules := make([][]string, 0, len(perms))
	for _, perm := range perms {
		rules = append(rules, []string{role, perm})
	}
	if _, err := e.enforcer.AddPolicies(rules); err != nil {
		e.logger.Errorw("failed to add access level policies", "error", err, "role", role)
		return fmt.Errorf("failed to add policies for %s: %w", role, err)
	}
	return nil
}

func (e *Enforcer) LoadPolicy() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}

	e.logger.Infow("policy reloaded successfully")
	return nil
}
