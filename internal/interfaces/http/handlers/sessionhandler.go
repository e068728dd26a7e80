package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

// SessionHandler exposes session administration for the caller's merchant.
type SessionHandler struct {
	sessions sessionAdminService
	logger   logger.Interface
}

func NewSessionHandler(sessions sessionAdminService, logger logger.Interface) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// CountSessions handles GET /auth/sessions/count
func (h *SessionHandler) CountSessions(c *gin.Context) {
	merchantID := c.GetString(constants.ContextKeyMerchantID)

	n, err := h.sessions.CountActiveSessions(c.Request.Context(), merchantID)
	if err != nil {
		h.logger.Errorw("failed to count sessions", "error", err, "merchant_id", merchantID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", SessionCountResponse{MerchantID: merchantID, Active: n})
}

// RevokeStaffSessions handles DELETE /auth/sessions/staff/:staffId
func (h *SessionHandler) RevokeStaffSessions(c *gin.Context) {
	merchantID := c.GetString(constants.ContextKeyMerchantID)
	staffID := c.Param("staffId")

	n, err := h.sessions.RevokeStaffSessions(c.Request.Context(), merchantID, staffID)
	if err != nil {
		h.logger.Warnw("failed to revoke staff sessions", "error", err, "staff_id", staffID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("staff sessions revoked by request",
		"staff_id", staffID,
		"revoked_by", c.GetString(constants.ContextKeyStaffID),
		"revoked", n,
	)
	utils.SuccessResponse(c, http.StatusOK, "sessions revoked", RevokeSessionsResponse{Revoked: n})
}

// RevokeMerchantSessions handles DELETE /auth/sessions. The caller's own
// session is revoked too.
func (h *SessionHandler) RevokeMerchantSessions(c *gin.Context) {
	merchantID := c.GetString(constants.ContextKeyMerchantID)

	n, err := h.sessions.RevokeMerchantSessions(c.Request.Context(), merchantID)
	if err != nil {
		h.logger.Errorw("failed to revoke merchant sessions", "error", err, "merchant_id", merchantID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("merchant sessions revoked by request",
		"merchant_id", merchantID,
		"revoked_by", c.GetString(constants.ContextKeyStaffID),
		"revoked", n,
	)
	utils.SuccessResponse(c, http.StatusOK, "sessions revoked", RevokeSessionsResponse{Revoked: n})
}
