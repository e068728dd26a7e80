package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/heya-pos/heya/internal/shared/constants"
	"github.com/heya-pos/heya/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterCustomValidations(v); err != nil {
			panic(err)
		}
	}
}

// NewTestContext creates a test gin.Context with the given method, path, and optional body.
func NewTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	return c, w
}

// SessionContext is the subset of a session the auth middleware exposes.
type SessionContext struct {
	Token      string
	StaffID    string
	MerchantID string
	LocationID string
	Role       string
}

// SetSessionContext sets the gin context keys the session middleware would set.
func SetSessionContext(c *gin.Context, s SessionContext) {
	c.Set(constants.ContextKeySessionToken, s.Token)
	c.Set(constants.ContextKeyUserID, s.StaffID)
	c.Set(constants.ContextKeyStaffID, s.StaffID)
	c.Set(constants.ContextKeyMerchantID, s.MerchantID)
	c.Set(constants.ContextKeyLocationID, s.LocationID)
	c.Set(constants.ContextKeyRole, s.Role)
}

// SetURLParam sets a URL parameter on the gin context.
func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

// SetQueryParams sets query parameters on the gin context.
func SetQueryParams(c *gin.Context, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	c.Request.URL.RawQuery = q.Encode()
}

// ParseResponse parses the JSON response body into the target struct.
func ParseResponse(w *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}

// APIResponse mirrors utils.APIResponse for test assertions.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorInfo mirrors utils.ErrorInfo for test assertions.
type ErrorInfo struct {
	Type               string `json:"type"`
	Message            string `json:"message"`
	Details            string `json:"details,omitempty"`
	RemainingAttempts  *int   `json:"remaining_attempts,omitempty"`
	MinutesUntilUnlock *int   `json:"minutes_until_unlock,omitempty"`
}

// SetMerchantSessionContext sets the gin context keys of a merchant session.
func SetMerchantSessionContext(c *gin.Context, token, accountID, merchantID string) {
	c.Set(constants.ContextKeySessionToken, token)
	c.Set(constants.ContextKeyUserID, accountID)
	c.Set(constants.ContextKeyMerchantID, merchantID)
	c.Set(constants.ContextKeyRole, "MERCHANT")
	c.Set(constants.ContextKeySessionType, "merchant")
}
