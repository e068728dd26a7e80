package http

import (
	"time"

	"github.com/heya-pos/heya/internal/interfaces/http/handlers"
	"github.com/heya-pos/heya/internal/interfaces/http/middleware"
)

// allHandlers holds all HTTP handler instances.
type allHandlers struct {
	authHandler         *handlers.AuthHandler
	merchantAuthHandler *handlers.MerchantAuthHandler
	sessionHandler      *handlers.SessionHandler
	healthHandler       *handlers.HealthHandler
}

// ============================================================
// Section 3: Handlers and middlewares
// ============================================================

func (c *Container) initHandlers() {
	c.hdlrs = &allHandlers{
		authHandler:         handlers.NewAuthHandler(c.pinAuth, c.log),
		merchantAuthHandler: handlers.NewMerchantAuthHandler(c.merchantAuth, c.log),
		sessionHandler:      handlers.NewSessionHandler(c.pinAuth, c.log),
		healthHandler:       handlers.NewHealthHandler(c.sessions, c.version, c.log),
	}

	c.authMiddleware = middleware.NewAuthMiddleware(c.pinAuth, c.log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(c.enforcer, c.log)
	c.loginRateLimiter = middleware.NewRateLimiter(c.limiter, "pin-login", c.cfg.RateLimit.LoginPerMinute, time.Minute, c.log)
	c.merchantLoginLimiter = middleware.NewRateLimiter(c.limiter, "merchant-login", c.cfg.RateLimit.LoginPerMinute, time.Minute, c.log)
}
