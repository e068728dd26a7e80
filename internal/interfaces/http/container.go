package http

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/heya-pos/heya/internal/application/merchantauth"
	"github.com/heya-pos/heya/internal/application/pinauth"
	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/infrastructure/config"
	"github.com/heya-pos/heya/internal/infrastructure/permission"
	"github.com/heya-pos/heya/internal/infrastructure/ratelimit"
	"github.com/heya-pos/heya/internal/infrastructure/scheduler"
	"github.com/heya-pos/heya/internal/interfaces/http/middleware"
	"github.com/heya-pos/heya/internal/shared/logger"
)

// sessionBackend is a session.Store with a sweep lifecycle. Both the memory
// and the Redis store satisfy it.
type sessionBackend interface {
	session.Store
	StartSweep(sched scheduler.Scheduler) error
	StopAndClear()
}

// Container holds all infrastructure components, repositories, services,
// handlers and background jobs. It wires everything together and provides a
// Shutdown() method for graceful termination.
type Container struct {
	// Core infrastructure
	engine  *gin.Engine
	db      *gorm.DB
	cfg     *config.Config
	log     logger.Interface
	redis   *redis.Client
	version string

	// Repositories
	repos *repositories

	// Auth state
	sessions     sessionBackend
	attempts     auth.AttemptTracker
	limiter      ratelimit.RateLimiter
	enforcer     *permission.Enforcer
	pinAuth      *pinauth.PinAuthenticator
	merchantAuth *merchantauth.Authenticator
	scheduler    *scheduler.SchedulerManager
	cancelJobs   []scheduler.CancelFunc
	memLimiter   *ratelimit.MemoryRateLimiter
	memAttempts  *ratelimit.MemoryAttemptTracker

	// Handlers
	hdlrs *allHandlers

	// Middlewares
	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	loginRateLimiter     *middleware.RateLimiter
	merchantLoginLimiter *middleware.RateLimiter
}

// NewContainer creates a new Container with all dependencies wired together.
// Background jobs are registered but only run after Start.
func NewContainer(db *gorm.DB, cfg *config.Config, version string, log logger.Interface) (*Container, error) {
	c := &Container{
		engine:  gin.New(),
		db:      db,
		cfg:     cfg,
		log:     log,
		version: version,
	}

	// With no trusted proxies ClientIP is the socket peer, so a forged
	// X-Forwarded-For cannot dodge the per-IP login limit.
	if err := c.engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Section 1: Infrastructure - Redis, repositories, auth state backends
	if err := c.initInfrastructure(); err != nil {
		c.closeRedis()
		return nil, err
	}

	// Section 2: Services - authorization, tokens, PIN authenticator
	if err := c.initServices(); err != nil {
		c.closeRedis()
		return nil, err
	}

	// Section 3: Handlers and middlewares
	c.initHandlers()

	// Section 4: Scheduler jobs
	if err := c.initScheduler(); err != nil {
		c.closeRedis()
		return nil, err
	}

	return c, nil
}

// Start runs the background jobs.
func (c *Container) Start() {
	c.scheduler.Start()
	c.log.Infow("background jobs started", "jobs", c.scheduler.JobNames())
}

// Shutdown stops background jobs, drops in-memory sessions and closes
// Redis. The database is owned by the caller.
//
// Jobs are removed while the scheduler still runs; gocron rejects
// RemoveJob after Shutdown.
func (c *Container) Shutdown() {
	for _, cancel := range c.cancelJobs {
		cancel()
	}
	if c.sessions != nil {
		c.sessions.StopAndClear()
	}
	if c.scheduler != nil {
		if err := c.scheduler.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler", "error", err)
		}
	}
	c.closeRedis()
}

func (c *Container) closeRedis() {
	if c.redis == nil {
		return
	}
	if err := c.redis.Close(); err != nil {
		c.log.Warnw("failed to close redis client", "error", err)
	}
	c.redis = nil
}
