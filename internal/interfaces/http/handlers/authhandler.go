package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/application/pinauth"
	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

type AuthHandler struct {
	pinAuth pinAuthService
	logger  logger.Interface
}

func NewAuthHandler(pinAuth pinAuthService, logger logger.Interface) *AuthHandler {
	return &AuthHandler{
		pinAuth: pinAuth,
		logger:  logger,
	}
}

func (h *AuthHandler) respondError(c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	respondError(h.logger, c, msg, err, keysAndValues...)
}

// respondError writes err and logs it unless it is an expected auth failure.
func respondError(log logger.Interface, c *gin.Context, msg string, err error, keysAndValues ...interface{}) {
	if errors.ShouldLogAuthError(err) {
		args := append([]interface{}{"error", err, "client_ip", c.ClientIP()}, keysAndValues...)
		if errors.IsAppError(err) {
			log.Warnw(msg, args...)
		} else {
			log.Errorw(msg, args...)
		}
	}
	utils.ErrorResponseWithError(c, err)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponseWithError(c, utils.TranslateValidationError(err))
		return false
	}
	return true
}

// PinLogin handles POST /auth/staff-pin/login
func (h *AuthHandler) PinLogin(c *gin.Context) {
	var req PinLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.pinAuth.Login(c.Request.Context(), pinauth.AuthenticateCommand{
		MerchantID: req.MerchantID,
		LocationID: req.LocationID,
		PIN:        req.PIN,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "pin login failed", err, "merchant_id", req.MerchantID, "location_id", req.LocationID)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "login successful", toLoginResponse(result))
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.pinAuth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, "token refresh failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "token refreshed", toLoginResponse(result))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(constants.ContextKeySessionToken)

	if err := h.pinAuth.Logout(c.Request.Context(), token, c.ClientIP()); err != nil {
		h.respondError(c, "logout failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "logout successful", nil)
}

// GetSession handles GET /auth/session
func (h *AuthHandler) GetSession(c *gin.Context) {
	sess, err := h.pinAuth.GetSession(c.Request.Context(), c.GetString(constants.ContextKeySessionToken))
	if err != nil {
		h.respondError(c, "session lookup failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toSessionResponse(sess))
}

// VerifyAction handles POST /auth/verify-action
func (h *AuthHandler) VerifyAction(c *gin.Context) {
	var req VerifyActionRequest
	if !bindJSON(c, &req) {
		return
	}

	merchantID := c.GetString(constants.ContextKeyMerchantID)
	staffID := actingStaffID(c, req.StaffID)

	summary, err := h.pinAuth.VerifyPinForAction(c.Request.Context(), pinauth.VerifyActionCommand{
		MerchantID: merchantID,
		StaffID:    staffID,
		PIN:        req.PIN,
		Action:     req.Action,
		ResourceID: req.ResourceID,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "action verification failed", err, "staff_id", staffID, "action", req.Action)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "action verified", VerifyActionResponse{
		Verified: true,
		Action:   req.Action,
		Staff:    *summary,
	})
}

// UnlockByPin handles POST /auth/staff-pin/unlock
func (h *AuthHandler) UnlockByPin(c *gin.Context) {
	var req UnlockRequest
	if !bindJSON(c, &req) {
		return
	}

	summary, err := h.pinAuth.UnlockByPin(c.Request.Context(), pinauth.UnlockCommand{
		MerchantID: c.GetString(constants.ContextKeyMerchantID),
		PIN:        req.PIN,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "unlock failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "unlocked", UnlockResponse{Staff: *summary})
}

// PinStatus handles GET /auth/staff-pin/status. The location defaults to the
// session's location; ?location_id= overrides it.
func (h *AuthHandler) PinStatus(c *gin.Context) {
	locationID := c.Query("location_id")
	if locationID == "" {
		locationID = c.GetString(constants.ContextKeyLocationID)
	}

	status, err := h.pinAuth.PinStatus(c.Request.Context(), c.GetString(constants.ContextKeyMerchantID), locationID)
	if err != nil {
		h.respondError(c, "pin status failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

// ChangePin handles POST /auth/staff-pin/change
func (h *AuthHandler) ChangePin(c *gin.Context) {
	var req ChangePinRequest
	if !bindJSON(c, &req) {
		return
	}

	staffID := actingStaffID(c, req.StaffID)
	err := h.pinAuth.ChangePin(c.Request.Context(), pinauth.ChangePinCommand{
		MerchantID: c.GetString(constants.ContextKeyMerchantID),
		StaffID:    staffID,
		CurrentPIN: req.CurrentPIN,
		NewPIN:     req.NewPIN,
		IPAddress:  c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, "pin change failed", err, "staff_id", staffID)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "PIN changed successfully", nil)
}

// actingStaffID resolves who is at the terminal: an explicit id, then the
// X-Active-Staff-Id header, then the session's staff member.
func actingStaffID(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if header := c.GetHeader(constants.HeaderActiveStaffID); header != "" {
		return header
	}
	return c.GetString(constants.ContextKeyStaffID)
}
