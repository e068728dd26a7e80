package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/heya-pos/heya/internal/domain/staff"
)

func TestSessionCloneIsDeep(t *testing.T) {
	s := Session{Subject: Subject{Permissions: staff.Permissions{"booking.view"}}}

	c := s.Clone()
	c.Subject.Permissions[0] = "changed"

	assert.Equal(t, "booking.view", s.Subject.Permissions[0])
}

func TestPatchApply(t *testing.T) {
	loc := "loc_2"
	exp := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	s := Session{Subject: Subject{LocationID: "loc_1", Permissions: staff.Permissions{"a"}}}

	Patch{LocationID: &loc, ExpiresAt: &exp}.Apply(&s)

	assert.Equal(t, "loc_2", s.Subject.LocationID)
	assert.Equal(t, exp, s.ExpiresAt)
	assert.Equal(t, staff.Permissions{"a"}, s.Subject.Permissions)
}

func TestConfigExpired(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	live := Session{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, cfg.Expired(live, now, now))
	assert.False(t, cfg.Expired(live, now.Add(-24*time.Hour), now))
	assert.True(t, cfg.Expired(live, now.Add(-24*time.Hour-time.Second), now))
	assert.True(t, cfg.Expired(Session{ExpiresAt: now.Add(-time.Second)}, now, now))
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{MaxSessions: 10}.WithDefaults()

	assert.Equal(t, 10, cfg.MaxSessions)
	assert.Equal(t, 10, cfg.MaxSessionsPerUser)
	assert.Equal(t, 24*time.Hour, cfg.IdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}
