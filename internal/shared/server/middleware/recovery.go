package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/server/respond"
	"docstore-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 "internal" response. The panic is
// written to the server log as one error entry and the stack goes to telemetry.
func Recovery(log logsink.Sink) gin.HandlerFunc {
	if log == nil {
		log = logsink.Nop{}
	}
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = c.Request.URL.Path
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"route":      route,
				"method":     c.Request.Method,
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
			}
			if userID := c.GetString(UserIDKey); userID != "" {
				fields["user_id"] = userID
			}
			telemetry.Error("http.panic", fields)
			log.Error(fmt.Sprintf("%s %s abgebrochen (Request %s): %v", c.Request.Method, route, RequestIDFromContext(c), rec))

			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Interner Serverfehler")
		}()
		c.Next()
	}
}
