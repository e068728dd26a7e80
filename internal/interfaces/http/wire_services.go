package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heya-pos/heya/internal/application/merchantauth"
	"github.com/heya-pos/heya/internal/application/pinauth"
	"github.com/heya-pos/heya/internal/domain/audit"
	domainAuth "github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/infrastructure/auth"
	"github.com/heya-pos/heya/internal/infrastructure/cache"
	"github.com/heya-pos/heya/internal/infrastructure/config"
	"github.com/heya-pos/heya/internal/infrastructure/permission"
	"github.com/heya-pos/heya/internal/infrastructure/ratelimit"
	"github.com/heya-pos/heya/internal/infrastructure/scheduler"
	"github.com/heya-pos/heya/internal/infrastructure/sessionstore"
	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/logger"
)

// ============================================================
// Section 1: Infrastructure - Redis, repositories, auth state backends
// ============================================================

func (c *Container) initInfrastructure() error {
	cfg := c.cfg

	if usesRedis(cfg) {
		client, err := initRedis(cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	c.repos = newRepositories(c.db)

	sessionCfg := session.Config{
		IdleTimeout:        cfg.Session.IdleTimeout(),
		SweepInterval:      cfg.Session.SweepInterval(),
		MaxSessions:        cfg.Session.MaxSessions,
		MaxSessionsPerUser: cfg.Session.MaxSessionsPerUser,
	}
	if cfg.Session.Backend == constants.BackendRedis {
		c.sessions = cache.NewRedisSessionStore(c.redis, sessionCfg, biztime.NowUTC, c.log)
	} else {
		c.sessions = sessionstore.NewMemoryStore(sessionCfg, biztime.NowUTC, c.log)
	}

	policy := domainAuth.LockoutPolicy{
		MaxAttempts:     cfg.Auth.Pin.MaxAttempts,
		LockoutDuration: cfg.Auth.Pin.LockoutDuration(),
	}
	if cfg.Auth.Attempts.Backend == constants.BackendRedis {
		c.attempts = ratelimit.NewRedisAttemptTracker(c.redis, policy, biztime.NowUTC, c.log)
	} else {
		c.memAttempts = ratelimit.NewMemoryAttemptTracker(policy, biztime.NowUTC)
		c.attempts = c.memAttempts
	}

	if c.redis != nil {
		c.limiter = ratelimit.NewRedisRateLimiter(c.redis)
	} else {
		c.memLimiter = ratelimit.NewMemoryRateLimiter(biztime.NowUTC)
		c.limiter = c.memLimiter
	}

	c.log.Infow("auth state backends configured",
		"sessions", backendName(cfg.Session.Backend),
		"attempts", backendName(cfg.Auth.Attempts.Backend),
	)
	return nil
}

func usesRedis(cfg *config.Config) bool {
	return cfg.Session.Backend == constants.BackendRedis || cfg.Auth.Attempts.Backend == constants.BackendRedis
}

func backendName(b string) string {
	if b == "" {
		return constants.BackendMemory
	}
	return b
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("Redis connection established successfully", "addr", cfg.Redis.GetAddr())

	return redisClient, nil
}

// ============================================================
// Section 2: Services - authorization, tokens, PIN and password sign-in
// ============================================================

func (c *Container) initServices() error {
	cfg := c.cfg

	enforcer, err := permission.NewGormEnforcer(c.db, c.log)
	if err != nil {
		return err
	}
	c.enforcer = enforcer

	jwtSvc := auth.NewJWTService(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.Issuer,
		cfg.Auth.JWT.AccessTTL(),
		cfg.Auth.JWT.RefreshTTL(),
		biztime.NowUTC,
	)
	hasher := auth.NewBcryptPinHasher(cfg.Auth.Pin.BcryptCost)
	auditLogger := audit.NewLogger(c.repos.auditLogRepo, biztime.NowUTC, c.log)

	c.pinAuth = pinauth.NewPinAuthenticator(
		c.repos.staffRepo,
		hasher,
		c.attempts,
		c.sessions,
		jwtSvc,
		auditLogger,
		biztime.NowUTC,
		c.log,
	)

	c.merchantAuth = merchantauth.NewAuthenticator(
		c.repos.merchantRepo,
		auth.NewBcryptPasswordHasher(cfg.Auth.Pin.BcryptCost),
		c.sessions,
		jwtSvc,
		auditLogger,
		biztime.NowUTC,
		c.log,
	)
	return nil
}

// ============================================================
// Section 4: Scheduler jobs
// ============================================================

// initScheduler registers the session sweep and the cleanup of in-memory
// attempt and rate limit counters. Redis expires its own keys.
func (c *Container) initScheduler() error {
	sched, err := scheduler.NewSchedulerManager(c.log)
	if err != nil {
		return err
	}
	c.scheduler = sched

	if err := c.sessions.StartSweep(sched); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	if c.memAttempts != nil {
		cancel, err := sched.Every("attempt-cleanup", c.cfg.Session.SweepInterval(), c.memAttempts.Cleanup)
		if err != nil {
			return fmt.Errorf("failed to schedule attempt cleanup: %w", err)
		}
		c.cancelJobs = append(c.cancelJobs, cancel)
	}

	if c.memLimiter != nil {
		cancel, err := sched.Every("ratelimit-cleanup", time.Minute, c.memLimiter.Cleanup)
		if err != nil {
			return fmt.Errorf("failed to schedule rate limit cleanup: %w", err)
		}
		c.cancelJobs = append(c.cancelJobs, cancel)
	}

	return nil
}
