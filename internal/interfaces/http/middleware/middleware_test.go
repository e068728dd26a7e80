package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/permission"
	"github.com/heya-pos/heya/internal/infrastructure/ratelimit"
	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
	"github.com/heya-pos/heya/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	sessions map[string]*session.Session
}

func (r *stubResolver) GetSession(_ context.Context, token string) (*session.Session, error) {
	if s, ok := r.sessions[token]; ok {
		return s, nil
	}
	return nil, errors.NewSessionExpiredError()
}

func newResolver() *stubResolver {
	return &stubResolver{sessions: map[string]*session.Session{
		"tok-staff": {Subject: session.Subject{
			UserID: "s1", StaffID: "s1", MerchantID: "m1", LocationID: "l1",
			Role: staff.RoleStaff, Permissions: staff.PermissionsFor(staff.AccessLevelStaff),
			Type: session.TypeStaffPin,
		}},
		"tok-owner": {Subject: session.Subject{
			UserID: "s3", StaffID: "s3", MerchantID: "m1",
			Role: staff.RoleOwner, Permissions: staff.PermissionsFor(staff.AccessLevelOwner),
			Type: session.TypeStaffPin,
		}},
		"tok-merchant": {Subject: session.Subject{
			UserID: "acct_1", MerchantID: "m1",
			Role: staff.RoleMerchant, Permissions: staff.MerchantPermissions(),
			Type: session.TypeMerchant,
		}},
	}}
}

func perform(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Type
}

func TestRequireSession(t *testing.T) {
	auth := NewAuthMiddleware(newResolver(), logger.NewNop())

	engine := gin.New()
	engine.GET("/me", auth.RequireSession(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"staff_id":    c.GetString(constants.ContextKeyStaffID),
			"merchant_id": c.GetString(constants.ContextKeyMerchantID),
			"location_id": c.GetString(constants.ContextKeyLocationID),
			"role":        c.GetString(constants.ContextKeyRole),
			"token":       c.GetString(constants.ContextKeySessionToken),
		})
	})

	t.Run("valid token", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/me", "tok-staff")
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "s1", body["staff_id"])
		assert.Equal(t, "m1", body["merchant_id"])
		assert.Equal(t, "l1", body["location_id"])
		assert.Equal(t, "STAFF", body["role"])
		assert.Equal(t, "tok-staff", body["token"])
	})

	t.Run("missing header", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(errors.ErrorTypeSessionExpired), errorType(t, w))
	})

	t.Run("unknown token", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/me", "tok-nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(errors.ErrorTypeSessionExpired), errorType(t, w))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(constants.HeaderAuthorization, "Basic abc")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	enforcer, err := permission.NewEnforcer(nil, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, enforcer.SyncAccessLevelPolicies())

	auth := NewAuthMiddleware(newResolver(), logger.NewNop())
	perms := NewPermissionMiddleware(enforcer, logger.NewNop())

	engine := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	engine.GET("/reports", auth.RequireSession(), perms.RequirePermission("report.view"), ok)
	engine.GET("/bookings", auth.RequireSession(), perms.RequirePermission("booking.view"), ok)
	engine.GET("/anything", perms.RequirePermission("booking.view"), ok)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"staff lacks manager permission", "/reports", "tok-staff", http.StatusForbidden},
		{"owner wildcard", "/reports", "tok-owner", http.StatusNoContent},
		{"staff base permission", "/bookings", "tok-staff", http.StatusNoContent},
		{"no session in context", "/anything", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(engine, http.MethodGet, tt.path, tt.token)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireSessionType(t *testing.T) {
	auth := NewAuthMiddleware(newResolver(), logger.NewNop())

	engine := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	engine.GET("/merchant", auth.RequireSession(), auth.RequireSessionType(session.TypeMerchant), ok)
	engine.GET("/unguarded", auth.RequireSessionType(session.TypeMerchant), ok)

	t.Run("merchant session", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/merchant", "tok-merchant")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("staff session", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/merchant", "tok-owner")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, string(errors.ErrorTypeForbidden), errorType(t, w))
	})

	t.Run("no session in context", func(t *testing.T) {
		w := perform(engine, http.MethodGet, "/unguarded", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewMemoryRateLimiter(func() time.Time { return now })
	rl := NewRateLimiter(limiter, "login", 2, time.Minute, logger.NewNop())

	engine := gin.New()
	engine.POST("/login", rl.Limit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/login", "").Code)

	w := perform(engine, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, string(errors.ErrorTypeRateLimited), errorType(t, w))

	now = now.Add(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/login", "").Code)
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS([]string{"https://pos.heya.app"}))
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://pos.heya.app")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://pos.heya.app", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
