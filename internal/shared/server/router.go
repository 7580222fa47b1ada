package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/activity"
	"docstore-backend/internal/documents"
	"docstore-backend/internal/remotelog"
	"docstore-backend/internal/services/health"
	"docstore-backend/internal/shared/config"
	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/metrics"
	"docstore-backend/internal/shared/server/middleware"
	"docstore-backend/internal/usage"
	"docstore-backend/internal/users"
)

// RouterDeps lists the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	UsersHandler     *users.Handler
	RemoteLogHandler *remotelog.Handler
	ActivityHandler  *activity.Handler
	UsageHandler     *usage.Handler
	Health           *health.Service
	RateLimiter      *middleware.RateLimiter
	// ServerLog receives recovered panics.
	ServerLog logsink.Sink
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	cfg := deps.Config

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(deps.ServerLog),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: middleware.UploadGroup,
			Limiter:  deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				middleware.GroupDefault: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
				middleware.GroupUpload:  {Rate: cfg.UploadRateLimitRPS, Burst: cfg.UploadRateLimitBurst},
			},
		}),
	)

	r.GET("/healthz", func(c *gin.Context) {
		if deps.Health == nil {
			c.JSON(http.StatusOK, health.Report{OK: true, Checks: map[string]string{}})
			return
		}
		rep := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !rep.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, rep)
	})
	r.GET("/metrics", metrics.Handler())

	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(r)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(r)
	}
	if deps.RemoteLogHandler != nil {
		deps.RemoteLogHandler.RegisterRoutes(r)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.RegisterRoutes(r)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(r)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":3000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
