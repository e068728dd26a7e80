package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/infrastructure/ratelimit"
	"github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

// RateLimiter caps requests per client IP within a fixed window. It sits in
// front of PIN login so a single device cannot sweep the PIN space across
// lockout identifiers.
type RateLimiter struct {
	limiter ratelimit.RateLimiter
	name    string
	limit   int
	window  time.Duration
	logger  logger.Interface
}

// NewRateLimiter creates a limiter. name scopes the counters so several
// limited routes don't share a budget.
func NewRateLimiter(limiter ratelimit.RateLimiter, name string, limit int, window time.Duration, logger logger.Interface) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		name:    name,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Limit returns a Gin middleware that enforces the rate limit per client IP.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.name + ":ip:" + c.ClientIP()

		allowed, err := rl.limiter.Allow(c.Request.Context(), key, rl.limit, rl.window)
		if err != nil {
			// Fail open: an unavailable backend must not block logins.
			rl.logger.Warnw("rate limiter unavailable", "error", err, "limiter", rl.name)
			c.Next()
			return
		}

		if !allowed {
			rl.logger.Warnw("rate limit exceeded", "limiter", rl.name, "client_ip", c.ClientIP())
			utils.AbortWithError(c, errors.NewRateLimitedError("Too many requests, please try again later"))
			return
		}

		c.Next()
	}
}
