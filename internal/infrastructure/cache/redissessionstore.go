package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/scheduler"
	"github.com/heya-pos/heya/internal/infrastructure/sessionstore"
	"github.com/heya-pos/heya/internal/shared/biztime"
	"github.com/heya-pos/heya/internal/shared/logger"
)

const (
	sessionKeyPrefix       = "heya:session:"
	sessionsAllKey         = "heya:sessions:all"
	sessionsUserPrefix     = "heya:sessions:user:"
	sessionsMerchantPrefix = "heya:sessions:merchant:"
	// sessionOwnersKey maps token to "userID\x1fmerchantID" so index
	// entries can be removed after the session hash itself has expired.
	sessionOwnersKey = "heya:sessions:owners"

	fieldData = "data"
	fieldLast = "last"

	ownerSep = "\x1f"
)

// sessionRecord is the JSON form of a session stored in Redis.
type sessionRecord struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	MerchantID  string    `json:"merchant_id"`
	StaffID     string    `json:"staff_id,omitempty"`
	LocationID  string    `json:"location_id,omitempty"`
	Permissions []string  `json:"permissions"`
	Type        string    `json:"type"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toSessionRecord(s session.Session) sessionRecord {
	return sessionRecord{
		UserID:      s.Subject.UserID,
		Role:        string(s.Subject.Role),
		MerchantID:  s.Subject.MerchantID,
		StaffID:     s.Subject.StaffID,
		LocationID:  s.Subject.LocationID,
		Permissions: s.Subject.Permissions,
		Type:        string(s.Subject.Type),
		IssuedAt:    s.IssuedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

func (r sessionRecord) toSession() session.Session {
	return session.Session{
		Subject: session.Subject{
			UserID:      r.UserID,
			Role:        staff.Role(r.Role),
			MerchantID:  r.MerchantID,
			StaffID:     r.StaffID,
			LocationID:  r.LocationID,
			Permissions: staff.Permissions(r.Permissions),
			Type:        session.Type(r.Type),
		},
		IssuedAt:  r.IssuedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

// RedisSessionStore keeps sessions in Redis so every instance sees the same
// set. Each session is a hash; sorted sets scored by last activity index
// all sessions, each user's and each merchant's. Eviction follows the
// in-memory store's rules but is not atomic across instances, so the caps
// can be exceeded briefly under concurrent creation.
type RedisSessionStore struct {
	client  *redis.Client
	cfg     session.Config
	now     func() time.Time
	logger  logger.Interface
	sweeper *sessionstore.Sweeper
}

var _ session.Store = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, cfg session.Config, now func() time.Time, log logger.Interface) *RedisSessionStore {
	if now == nil {
		now = biztime.NowUTC
	}
	s := &RedisSessionStore{
		client: client,
		cfg:    cfg.WithDefaults(),
		now:    now,
		logger: log.With("component", "redis_session_store"),
	}
	s.sweeper = sessionstore.NewSweeper(s.cfg.SweepInterval, s.Sweep, s.logger)
	return s
}

func sessionKey(token string) string    { return sessionKeyPrefix + token }
func userIndexKey(userID string) string { return sessionsUserPrefix + userID }
func merchantIndexKey(merchantID string) string {
	return sessionsMerchantPrefix + merchantID
}

func (s *RedisSessionStore) Create(ctx context.Context, token string, sess session.Session) error {
	total, err := s.client.ZCard(ctx, sessionsAllKey).Result()
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}
	if total >= int64(s.cfg.MaxSessions) {
		n := max(1, total/10)
		oldest, err := s.client.ZRange(ctx, sessionsAllKey, 0, n-1).Result()
		if err != nil {
			return fmt.Errorf("failed to select sessions to evict: %w", err)
		}
		if err := s.removeTokens(ctx, oldest...); err != nil {
			return err
		}
		s.logger.Infow("evicted sessions at global capacity", "evicted", len(oldest), "max_sessions", s.cfg.MaxSessions)
	}

	userID := sess.Subject.UserID
	userCount, err := s.client.ZCard(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to count user sessions: %w", err)
	}
	if userCount >= int64(s.cfg.MaxSessionsPerUser) {
		oldest, err := s.client.ZRange(ctx, userIndexKey(userID), 0, 0).Result()
		if err != nil {
			return fmt.Errorf("failed to select user session to evict: %w", err)
		}
		if err := s.removeTokens(ctx, oldest...); err != nil {
			return err
		}
		s.logger.Infow("evicted oldest session at per-user capacity",
			"user_id", userID,
			"evicted", len(oldest),
			"max_sessions_per_user", s.cfg.MaxSessionsPerUser,
		)
	}

	// Drop index entries of a session previously stored under this token.
	if err := s.removeTokens(ctx, token); err != nil {
		return err
	}

	data, err := json.Marshal(toSessionRecord(sess))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	now := s.now()
	member := redis.Z{Score: float64(now.UnixMilli()), Member: token}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(token), fieldData, data, fieldLast, now.UnixMilli())
		pipe.PExpireAt(ctx, sessionKey(token), s.expireAt(sess, now))
		pipe.ZAdd(ctx, sessionsAllKey, member)
		pipe.ZAdd(ctx, userIndexKey(userID), member)
		pipe.ZAdd(ctx, merchantIndexKey(sess.Subject.MerchantID), member)
		pipe.HSet(ctx, sessionOwnersKey, token, userID+ownerSep+sess.Subject.MerchantID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// expireAt is when Redis may drop the hash on its own: at idle timeout or
// absolute expiry, whichever comes first.
func (s *RedisSessionStore) expireAt(sess session.Session, lastActivity time.Time) time.Time {
	idle := lastActivity.Add(s.cfg.IdleTimeout)
	if sess.ExpiresAt.Before(idle) {
		return sess.ExpiresAt
	}
	return idle
}

// load reads a session and its last activity. found is false when the hash
// is gone.
func (s *RedisSessionStore) load(ctx context.Context, token string) (sess session.Session, last time.Time, found bool, err error) {
	vals, err := s.client.HMGet(ctx, sessionKey(token), fieldData, fieldLast).Result()
	if err != nil {
		return sess, last, false, fmt.Errorf("failed to load session: %w", err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return sess, last, false, nil
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return sess, last, false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	lastStr, _ := vals[1].(string)
	ms, _ := strconv.ParseInt(lastStr, 10, 64)
	return rec.toSession(), time.UnixMilli(ms).UTC(), true, nil
}

// touch records activity at now on the hash and every index.
func (s *RedisSessionStore) touch(ctx context.Context, token string, sess session.Session, now time.Time) error {
	score := float64(now.UnixMilli())
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(token), fieldLast, now.UnixMilli())
		pipe.PExpireAt(ctx, sessionKey(token), s.expireAt(sess, now))
		for _, key := range []string{sessionsAllKey, userIndexKey(sess.Subject.UserID), merchantIndexKey(sess.Subject.MerchantID)} {
			pipe.ZAddXX(ctx, key, redis.Z{Score: score, Member: token})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to refresh session activity: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	sess, last, found, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !found || s.cfg.Expired(sess, last, now) {
		return nil, s.removeTokens(ctx, token)
	}
	if err := s.touch(ctx, token, sess, now); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Update(ctx context.Context, token string, patch session.Patch) error {
	sess, _, found, err := s.load(ctx, token)
	if err != nil || !found {
		return err
	}
	patch.Apply(&sess)

	data, err := json.Marshal(toSessionRecord(sess))
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.HSet(ctx, sessionKey(token), fieldData, data).Err(); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return s.touch(ctx, token, sess, s.now())
}

func (s *RedisSessionStore) Remove(ctx context.Context, token string) error {
	return s.removeTokens(ctx, token)
}

func (s *RedisSessionStore) RemoveAllForUser(ctx context.Context, userID string) (int, error) {
	return s.removeIndexed(ctx, userIndexKey(userID))
}

func (s *RedisSessionStore) RemoveAllForMerchant(ctx context.Context, merchantID string) (int, error) {
	return s.removeIndexed(ctx, merchantIndexKey(merchantID))
}

func (s *RedisSessionStore) removeIndexed(ctx context.Context, indexKey string) (int, error) {
	tokens, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	if err := s.removeTokens(ctx, tokens...); err != nil {
		return 0, err
	}
	return len(tokens), nil
}

func (s *RedisSessionStore) Extend(ctx context.Context, token string) error {
	sess, last, found, err := s.load(ctx, token)
	if err != nil {
		return err
	}
	now := s.now()
	if !found || s.cfg.Expired(sess, last, now) {
		return s.removeTokens(ctx, token)
	}
	return s.touch(ctx, token, sess, now)
}

func (s *RedisSessionStore) CountActive(ctx context.Context, merchantID string) (int, error) {
	tokens, err := s.client.ZRange(ctx, merchantIndexKey(merchantID), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list merchant sessions: %w", err)
	}

	now := s.now()
	count := 0
	for _, token := range tokens {
		sess, last, found, err := s.load(ctx, token)
		if err != nil {
			return 0, err
		}
		if found && !s.cfg.Expired(sess, last, now) {
			count++
		}
	}
	return count, nil
}

// Sweep removes idle sessions found through the activity index, then any
// whose hash is gone or whose absolute expiry has passed.
func (s *RedisSessionStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	cutoff := now.Add(-s.cfg.IdleTimeout).UnixMilli()

	idle, err := s.client.ZRangeByScore(ctx, sessionsAllKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list idle sessions: %w", err)
	}

	rest, err := s.client.ZRangeByScore(ctx, sessionsAllKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	dead := idle
	for _, token := range rest {
		sess, last, found, err := s.load(ctx, token)
		if err != nil {
			return 0, err
		}
		if !found || s.cfg.Expired(sess, last, now) {
			dead = append(dead, token)
		}
	}

	if err := s.removeTokens(ctx, dead...); err != nil {
		return 0, err
	}
	if len(dead) > 0 {
		s.logger.Infow("swept expired sessions", "removed", len(dead))
	}
	return len(dead), nil
}

func (s *RedisSessionStore) Stats(ctx context.Context) (session.Stats, error) {
	total, err := s.client.ZCard(ctx, sessionsAllKey).Result()
	if err != nil {
		return session.Stats{}, fmt.Errorf("failed to count sessions: %w", err)
	}
	return session.Stats{Total: int(total)}, nil
}

// StartSweep arms the periodic sweep on sched.
func (s *RedisSessionStore) StartSweep(sched scheduler.Scheduler) error {
	return s.sweeper.Start(sched)
}

// StopAndClear cancels the sweep. Shared state in Redis is left for the
// other instances.
func (s *RedisSessionStore) StopAndClear() {
	s.sweeper.Stop()
}

// removeTokens deletes sessions and their index entries.
func (s *RedisSessionStore) removeTokens(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}

	owners, err := s.client.HMGet(ctx, sessionOwnersKey, tokens...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to load session owners: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, token := range tokens {
			pipe.Del(ctx, sessionKey(token))
			pipe.ZRem(ctx, sessionsAllKey, token)
			if i >= len(owners) {
				continue
			}
			if owner, ok := owners[i].(string); ok {
				userID, merchantID, _ := strings.Cut(owner, ownerSep)
				pipe.ZRem(ctx, userIndexKey(userID), token)
				pipe.ZRem(ctx, merchantIndexKey(merchantID), token)
			}
			pipe.HDel(ctx, sessionOwnersKey, token)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove sessions: %w", err)
	}
	return nil
}
