package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heya-pos/heya/internal/domain/auth"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTracker(clock *fakeClock) *MemoryAttemptTracker {
	return NewMemoryAttemptTracker(auth.DefaultLockoutPolicy(), clock.Now)
}

func TestMemoryAttemptTracker_LocksAfterMaxAttempts(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	id := "m1:l1:12"

	first := tracker.RecordAttempt(id, false)
	assert.Equal(t, 1, first.Count)
	assert.Nil(t, first.LockedUntil)
	assert.Equal(t, 2, tracker.RemainingAttempts(id))

	tracker.RecordAttempt(id, false)
	assert.False(t, tracker.IsLocked(id))

	third := tracker.RecordAttempt(id, false)
	require.NotNil(t, third.LockedUntil)
	assert.Equal(t, clock.Now().Add(15*time.Minute), *third.LockedUntil)
	assert.True(t, tracker.IsLocked(id))
	assert.Equal(t, 0, tracker.RemainingAttempts(id))
}

func TestMemoryAttemptTracker_LockHoldsUntilDurationElapses(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	id := "m1:l1:12"
	for i := 0; i < 3; i++ {
		tracker.RecordAttempt(id, false)
	}

	clock.Advance(14*time.Minute + 59*time.Second)
	assert.True(t, tracker.IsLocked(id))

	clock.Advance(time.Second)
	assert.False(t, tracker.IsLocked(id))
	assert.Equal(t, 0, tracker.Len(), "elapsed lock is removed lazily")
	assert.Equal(t, 3, tracker.RemainingAttempts(id))
}

func TestMemoryAttemptTracker_CountRestartsAfterElapsedLock(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	id := "m1:l1:12"
	for i := 0; i < 3; i++ {
		tracker.RecordAttempt(id, false)
	}
	clock.Advance(16 * time.Minute)

	rec := tracker.RecordAttempt(id, false)

	assert.Equal(t, 1, rec.Count)
	assert.Nil(t, rec.LockedUntil)
}

func TestMemoryAttemptTracker_SuccessResets(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	id := "m1:l1:45"
	tracker.RecordAttempt(id, false)
	tracker.RecordAttempt(id, false)

	rec := tracker.RecordAttempt(id, true)

	assert.Equal(t, 0, rec.Count)
	assert.Nil(t, rec.LockedUntil)
	assert.Equal(t, id, rec.Identifier)
	assert.Equal(t, 3, tracker.RemainingAttempts(id))
	assert.False(t, tracker.IsLocked(id))
}

func TestMemoryAttemptTracker_TimeUntilUnlock(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	id := "m1:l1:99"

	assert.Nil(t, tracker.TimeUntilUnlock(id))

	for i := 0; i < 3; i++ {
		tracker.RecordAttempt(id, false)
	}
	minutes := tracker.TimeUntilUnlock(id)
	require.NotNil(t, minutes)
	assert.Equal(t, 15, *minutes)

	clock.Advance(10*time.Minute + 30*time.Second)
	minutes = tracker.TimeUntilUnlock(id)
	require.NotNil(t, minutes)
	assert.Equal(t, 5, *minutes, "rounded up")

	clock.Advance(5 * time.Minute)
	assert.Nil(t, tracker.TimeUntilUnlock(id))
}

func TestMemoryAttemptTracker_ClearIsIdempotent(t *testing.T) {
	tracker := newTestTracker(newFakeClock())

	assert.NotPanics(t, func() {
		tracker.Clear("never-seen")
		tracker.Clear("never-seen")
	})
	assert.Equal(t, 3, tracker.RemainingAttempts("never-seen"))

	tracker.RecordAttempt("seen", false)
	tracker.Clear("seen")
	assert.Equal(t, 0, tracker.Len())
}

func TestMemoryAttemptTracker_Cleanup(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	for i := 0; i < 3; i++ {
		tracker.RecordAttempt("locked", false)
	}
	tracker.RecordAttempt("stale", false)
	clock.Advance(10 * time.Minute)
	tracker.RecordAttempt("fresh", false)

	clock.Advance(6 * time.Minute)
	tracker.Cleanup()

	assert.Equal(t, 1, tracker.Len())
	assert.Equal(t, 2, tracker.RemainingAttempts("fresh"))
}

func TestMemoryAttemptTracker_ReturnedRecordIsACopy(t *testing.T) {
	tracker := newTestTracker(newFakeClock())
	id := "m1:l1:12"
	var rec auth.AttemptRecord
	for i := 0; i < 3; i++ {
		rec = tracker.RecordAttempt(id, false)
	}

	past := rec.LockedUntil.Add(-time.Hour)
	*rec.LockedUntil = past
	rec.Count = 0

	assert.True(t, tracker.IsLocked(id))
	assert.Equal(t, 0, tracker.RemainingAttempts(id))
}

func TestMemoryAttemptTracker_ConcurrentFailures(t *testing.T) {
	tracker := newTestTracker(newFakeClock())
	id := "m1:l1:12"

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordAttempt(id, false)
		}()
	}
	wg.Wait()

	assert.True(t, tracker.IsLocked(id))
	assert.Equal(t, 0, tracker.RemainingAttempts(id))
}

func TestMemoryRateLimiter(t *testing.T) {
	clock := newFakeClock()
	limiter := NewMemoryRateLimiter(clock.Now)

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(context.Background(), "ip", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}
	ok, _ := limiter.Allow(context.Background(), "ip", 5, time.Minute)
	assert.False(t, ok, "6th request should be denied")

	clock.Advance(time.Minute + time.Second)
	limiter.Cleanup()
	ok, _ = limiter.Allow(context.Background(), "ip", 5, time.Minute)
	assert.True(t, ok, "new window")
}
