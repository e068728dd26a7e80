package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/interfaces/http/handlers"
	"github.com/heya-pos/heya/internal/interfaces/http/middleware"
)

// Permissions required by the session administration routes.
const (
	PermissionViewSessions   = "staff.view"
	PermissionRevokeStaff    = "staff.update"
	PermissionRevokeMerchant = "*"
)

// AuthRouteConfig holds dependencies for authentication routes.
type AuthRouteConfig struct {
	AuthHandler          *handlers.AuthHandler
	MerchantAuthHandler  *handlers.MerchantAuthHandler
	SessionHandler       *handlers.SessionHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
	LoginRateLimiter     *middleware.RateLimiter
	MerchantLoginLimiter *middleware.RateLimiter
}

// SetupAuthRoutes configures authentication routes.
func SetupAuthRoutes(engine *gin.Engine, cfg *AuthRouteConfig) {
	requireSession := cfg.AuthMiddleware.RequireSession()
	requireMerchant := cfg.AuthMiddleware.RequireSessionType(session.TypeMerchant)

	auth := engine.Group("/auth")
	{
		auth.POST("/staff-pin/login", cfg.LoginRateLimiter.Limit(), cfg.AuthHandler.PinLogin)
		auth.POST("/refresh", cfg.AuthHandler.RefreshToken)

		auth.POST("/logout", requireSession, cfg.AuthHandler.Logout)
		auth.GET("/session", requireSession, cfg.AuthHandler.GetSession)
		auth.POST("/verify-action", requireSession, cfg.AuthHandler.VerifyAction)
		auth.POST("/staff-pin/unlock", requireSession, cfg.AuthHandler.UnlockByPin)
		auth.GET("/staff-pin/status", requireSession, cfg.AuthHandler.PinStatus)
		auth.POST("/staff-pin/change", requireSession, cfg.AuthHandler.ChangePin)

		auth.POST("/merchant/login", cfg.MerchantLoginLimiter.Limit(), cfg.MerchantAuthHandler.Login)
		auth.POST("/merchant/refresh", cfg.MerchantAuthHandler.Refresh)
		auth.POST("/merchant/change-password", requireSession, requireMerchant, cfg.MerchantAuthHandler.ChangePassword)
		auth.GET("/me", requireSession, requireMerchant, cfg.MerchantAuthHandler.Me)
	}

	sessions := engine.Group("/auth/sessions")
	sessions.Use(requireSession)
	{
		sessions.GET("/count",
			cfg.PermissionMiddleware.RequirePermission(PermissionViewSessions),
			cfg.SessionHandler.CountSessions)
		sessions.DELETE("/staff/:staffId",
			cfg.PermissionMiddleware.RequirePermission(PermissionRevokeStaff),
			cfg.SessionHandler.RevokeStaffSessions)
		sessions.DELETE("",
			cfg.PermissionMiddleware.RequirePermission(PermissionRevokeMerchant),
			cfg.SessionHandler.RevokeMerchantSessions)
	}
}
