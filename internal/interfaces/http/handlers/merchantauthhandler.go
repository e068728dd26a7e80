package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/application/merchantauth"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

// MerchantAuthHandler serves password sign-in for merchant owners.
type MerchantAuthHandler struct {
	merchantAuth merchantAuthService
	logger       logger.Interface
}

func NewMerchantAuthHandler(merchantAuth merchantAuthService, logger logger.Interface) *MerchantAuthHandler {
	return &MerchantAuthHandler{
		merchantAuth: merchantAuth,
		logger:       logger,
	}
}

func (h *MerchantAuthHandler) respondError(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	respondError(h.logger, c, msg, err, keysAndValues...)
}

// Login handles POST /auth/merchant/login
func (h *MerchantAuthHandler) Login(c *gin.Context) {
	var req MerchantLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.merchantAuth.Login(c.Request.Context(), merchantauth.LoginCommand{
		Login:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "merchant login failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "login successful", toMerchantLoginResponse(result))
}

// Refresh handles POST /auth/merchant/refresh
func (h *MerchantAuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.merchantAuth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, "merchant token refresh failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "token refreshed", toMerchantLoginResponse(result))
}

// ChangePassword handles POST /auth/merchant/change-password
func (h *MerchantAuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	accountID := c.GetString(constants.ContextKeyUserID)
	err := h.merchantAuth.ChangePassword(c.Request.Context(), merchantauth.ChangePasswordCommand{
		AccountID:       accountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		IPAddress:       c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "merchant password change failed", err, "account_id", accountID)
		return
	}

	utils.NoContentResponse(c)
}

// Me handles GET /auth/me
func (h *MerchantAuthHandler) Me(c *gin.Context) {
	summary, err := h.merchantAuth.Me(c.Request.Context(), c.GetString(constants.ContextKeyUserID))
	if err != nil {
		h.respondError(c, "merchant lookup failed", err)
		return
	}

	perms, _ := c.Get(constants.ContextKeyPermissions)
	permissions, ok := perms.(staff.Permissions)
	if !ok {
		permissions = staff.MerchantPermissions()
	}

	utils.SuccessResponse(c, http.StatusOK, "", MeResponse{
		Type:        session.TypeMerchant,
		Merchant:    *summary,
		Permissions: permissions,
	})
}
