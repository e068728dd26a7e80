package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/shared/logger"
)

type HealthHandler struct {
	sessions sessionStatsProvider
	version  string
	logger   logger.Interface
}

func NewHealthHandler(sessions sessionStatsProvider, version string, logger logger.Interface) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		version:  version,
		logger:   logger,
	}
}

// HealthCheck handles GET /health. A failing session backend reports 503.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	stats, err := h.sessions.Stats(c.Request.Context())
	if err != nil {
		h.logger.Errorw("session store health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"version": h.version,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  h.version,
		"sessions": stats.Total,
	})
}
