package respond

import (
	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/telemetry"
)

// Error codes carried next to the human readable message.
const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeTooLarge    = "payload_too_large"
	CodeStorage     = "storage_error"
	CodeInternal    = "internal"
	CodeRateLimited = "rate_limited"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error aborts the request with a standardized error body.
func Error(c *gin.Context, status int, code, message string) {
	ErrorWith(c, status, code, message, ErrorResponse{Message: message, Code: code})
}

// ErrorWith logs like Error but writes body, which should embed ErrorResponse
// so clients still find message and code.
func ErrorWith(c *gin.Context, status int, code, message string, body any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, body)
}
