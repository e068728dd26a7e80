package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

// permissionEnforcer decides whether a role holds a permission.
type permissionEnforcer interface {
	Enforce(role staff.Role, permission string) (bool, error)
}

type PermissionMiddleware struct {
	enforcer permissionEnforcer
	logger   logger.Interface
}

func NewPermissionMiddleware(enforcer permissionEnforcer, logger logger.Interface) *PermissionMiddleware {
	return &PermissionMiddleware{
		enforcer: enforcer,
		logger:   logger,
	}
}

// RequirePermission must run after RequireSession.
func (m *PermissionMiddleware) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(constants.ContextKeyRole)
		if role == "" {
			utils.AbortWithError(c, errors.NewSessionExpiredError())
			return
		}

		allowed, err := m.enforcer.Enforce(staff.Role(role), permission)
		if err != nil {
			m.logger.Errorw("permission check failed", "error", err, "role", role, "permission", permission)
			utils.AbortWithError(c, errors.NewInternalError("permission check failed"))
			return
		}

		if !allowed {
			m.logger.Warnw("permission denied",
				"staff_id", c.GetString(constants.ContextKeyStaffID),
				"role", role,
				"permission", permission,
			)
			utils.AbortWithError(c, errors.NewForbiddenError("Insufficient permissions"))
			return
		}

		c.Next()
	}
}
