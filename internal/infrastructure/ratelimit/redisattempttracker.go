package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/logger"
)

const (
	attemptKeyPrefix = "heya:pin:attempts:"

	fieldCount       = "count"
	fieldLast        = "last"
	fieldLockedUntil = "locked_until"

	redisOpTimeout = 2 * time.Second
)

// recordFailureScript increments the failure count atomically. An elapsed
// lock is dropped first so the count restarts. Times are unix milliseconds.
// Returns {count, locked_until}.
var recordFailureScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local maxAttempts = tonumber(ARGV[2])
local lockoutMs = tonumber(ARGV[3])

local lockedUntil = tonumber(redis.call('HGET', key, 'locked_until') or '0')
if lockedUntil > 0 and lockedUntil <= now then
  redis.call('DEL', key)
  lockedUntil = 0
end

local count = redis.call('HINCRBY', key, 'count', 1)
redis.call('HSET', key, 'last', now)
if count >= maxAttempts then
  lockedUntil = now + lockoutMs
  redis.call('HSET', key, 'locked_until', lockedUntil)
end
redis.call('PEXPIRE', key, lockoutMs)

return {count, lockedUntil}
`)

// RedisAttemptTracker shares attempt records between instances. Records
// expire with the lockout window, so Cleanup has nothing to do. Redis
// failures are logged and read as "not locked".
type RedisAttemptTracker struct {
	client *redis.Client
	policy auth.LockoutPolicy
	now    func() time.Time
	logger logger.Interface
}

func NewRedisAttemptTracker(client *redis.Client, policy auth.LockoutPolicy, now func() time.Time, log logger.Interface) *RedisAttemptTracker {
	if now == nil {
		now = biztime.NowUTC
	}
	return &RedisAttemptTracker{
		client: client,
		policy: policy.WithDefaults(),
		now:    now,
		logger: log.With("component", "redis_attempt_tracker"),
	}
}

var _ auth.AttemptTracker = (*RedisAttemptTracker)(nil)

func (t *RedisAttemptTracker) key(identifier string) string {
	return attemptKeyPrefix + identifier
}

// load reads the record for identifier. An elapsed lock deletes the record.
func (t *RedisAttemptTracker) load(ctx context.Context, identifier string, now time.Time) (*auth.AttemptRecord, error) {
	vals, err := t.client.HMGet(ctx, t.key(identifier), fieldCount, fieldLast, fieldLockedUntil).Result()
	if err != nil {
		return nil, err
	}
	if vals[0] == nil {
		return nil, nil
	}

	rec := &auth.AttemptRecord{
		Identifier:  identifier,
		Count:       int(parseInt(vals[0])),
		LastAttempt: time.UnixMilli(parseInt(vals[1])).UTC(),
	}
	if ms := parseInt(vals[2]); ms > 0 {
		until := time.UnixMilli(ms).UTC()
		if !until.After(now) {
			if err := t.client.Del(ctx, t.key(identifier)).Err(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		rec.LockedUntil = &until
	}
	return rec, nil
}

func (t *RedisAttemptTracker) IsLocked(identifier string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	now := t.now()
	rec, err := t.load(ctx, identifier, now)
	if err != nil {
		t.logger.Warnw("failed to read attempt record, treating as unlocked", "identifier", identifier, "error", err)
		return false
	}
	return rec != nil && rec.IsLocked(now)
}

func (t *RedisAttemptTracker) RecordAttempt(identifier string, success bool) auth.AttemptRecord {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	now := t.now()
	if success {
		t.Clear(identifier)
		return auth.AttemptRecord{Identifier: identifier, LastAttempt: now}
	}

	res, err := recordFailureScript.Run(ctx, t.client, []string{t.key(identifier)},
		now.UnixMilli(), t.policy.MaxAttempts, t.policy.LockoutDuration.Milliseconds(),
	).Int64Slice()
	if err != nil || len(res) != 2 {
		t.logger.Errorw("failed to record attempt", "identifier", identifier, "error", err)
		return auth.AttemptRecord{Identifier: identifier, LastAttempt: now}
	}

	rec := auth.AttemptRecord{
		Identifier:  identifier,
		Count:       int(res[0]),
		LastAttempt: now,
	}
	if res[1] > 0 {
		until := time.UnixMilli(res[1]).UTC()
		rec.LockedUntil = &until
	}
	return rec
}

func (t *RedisAttemptTracker) RemainingAttempts(identifier string) int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	rec, err := t.load(ctx, identifier, t.now())
	if err != nil {
		t.logger.Warnw("failed to read attempt record", "identifier", identifier, "error", err)
		return t.policy.MaxAttempts
	}
	if rec == nil {
		return t.policy.MaxAttempts
	}
	return max(0, t.policy.MaxAttempts-rec.Count)
}

func (t *RedisAttemptTracker) TimeUntilUnlock(identifier string) *int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	now := t.now()
	rec, err := t.load(ctx, identifier, now)
	if err != nil {
		t.logger.Warnw("failed to read attempt record", "identifier", identifier, "error", err)
		return nil
	}
	if rec == nil || !rec.IsLocked(now) {
		return nil
	}
	minutes := biztime.CeilMinutes(rec.LockedUntil.Sub(now))
	return &minutes
}

func (t *RedisAttemptTracker) Clear(identifier string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := t.client.Del(ctx, t.key(identifier)).Err(); err != nil {
		t.logger.Warnw("failed to clear attempt record", "identifier", identifier, "error", err)
	}
}

func (t *RedisAttemptTracker) Cleanup() {}

func parseInt(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
