package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

// sessionResolver looks up the session behind a bearer token and refreshes
// its activity.
type sessionResolver interface {
	GetSession(ctx context.Context, token string) (*session.Session, error)
}

type AuthMiddleware struct {
	sessions sessionResolver
	logger   logger.Interface
}

func NewAuthMiddleware(sessions sessionResolver, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireSession rejects requests without a live session and exposes the
// session subject through the gin context.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.AbortWithError(c, errors.NewSessionExpiredError())
			return
		}

		sess, err := m.sessions.GetSession(c.Request.Context(), token)
		if err != nil {
			if !errors.IsAuthError(err) {
				m.logger.Errorw("failed to resolve session", "error", err)
			}
			utils.AbortWithError(c, err)
			return
		}

		setSessionContext(c, token, sess)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(constants.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setSessionContext(c *gin.Context, token string, sess *session.Session) {
	sub := sess.Subject
	c.Set(constants.ContextKeySessionToken, token)
	c.Set(constants.ContextKeyUserID, sub.UserID)
	c.Set(constants.ContextKeyStaffID, sub.StaffID)
	c.Set(constants.ContextKeyMerchantID, sub.MerchantID)
	c.Set(constants.ContextKeyLocationID, sub.LocationID)
	c.Set(constants.ContextKeyRole, string(sub.Role))
	c.Set(constants.ContextKeyPermissions, sub.Permissions)
	c.Set(constants.ContextKeySessionType, string(sub.Type))
}

// RequireSessionType must run after RequireSession. Sessions of another
// type are refused with 403.
func (m *AuthMiddleware) RequireSessionType(t session.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetString(constants.ContextKeySessionType)
		if got == "" {
			utils.AbortWithError(c, errors.NewSessionExpiredError())
			return
		}
		if session.Type(got) != t {
			m.logger.Warnw("session type not allowed",
				"user_id", c.GetString(constants.ContextKeyUserID),
				"session_type", got,
				"required", string(t),
			)
			utils.AbortWithError(c, errors.NewForbiddenError("This endpoint requires a "+string(t)+" session"))
			return
		}
		c.Next()
	}
}
