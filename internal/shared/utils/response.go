package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/heya-pos/heya/internal/shared/errors"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorInfo represents error information in API response
type ErrorInfo struct {
	Type               string `json:"type"`
	Message            string `json:"message"`
	Details            string `json:"details,omitempty"`
	RemainingAttempts  *int   `json:"remaining_attempts,omitempty"`
	MinutesUntilUnlock *int   `json:"minutes_until_unlock,omitempty"`
}

// SuccessResponse sends a successful response with custom status code
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// ErrorResponse sends an error response with custom status code and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Type:    "error",
			Message: message,
		},
	})
}

// ErrorResponseWithError sends an error response based on error type
func ErrorResponseWithError(c *gin.Context, err error) {
	statusCode, info := errorInfoFor(err)
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error:   &info,
	})
}

// AbortWithError is ErrorResponseWithError for middleware: it also stops the chain.
func AbortWithError(c *gin.Context, err error) {
	statusCode, info := errorInfoFor(err)
	c.AbortWithStatusJSON(statusCode, APIResponse{
		Success: false,
		Error:   &info,
	})
}

func errorInfoFor(err error) (int, ErrorInfo) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		// Internal details never leave the process.
		return http.StatusInternalServerError, ErrorInfo{
			Type:    string(errors.ErrorTypeInternal),
			Message: "Internal server error occurred",
		}
	}

	info := ErrorInfo{
		Type:    string(appErr.Type),
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if authErr := errors.GetAuthError(err); authErr != nil {
		info.RemainingAttempts = authErr.RemainingAttempts
		info.MinutesUntilUnlock = authErr.MinutesUntilUnlock
	}
	return appErr.Code, info
}

// NoContentResponse sends a no content response
func NoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
