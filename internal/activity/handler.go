package activity

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/server/middleware"
	"docstore-backend/internal/shared/server/respond"
	"docstore-backend/internal/shared/telemetry"
	"docstore-backend/internal/shared/util"
)

// Handler serves the activity feed.
type Handler struct {
	Svc *Service
}

// NewHandler constructs an activity handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts the activity routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/activity", h.list)
}

func (h *Handler) list(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId")
		return
	}
	if err := util.ValidateSegment(userID); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger userId")
		return
	}
	c.Set(middleware.UserIDKey, userID)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiges limit")
			return
		}
		limit = n
	}

	events, err := h.Svc.List(c.Request.Context(), userID, limit)
	if err != nil {
		telemetry.Error("activity.list_failed", map[string]any{"user_id": userID, "err": err})
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, "Aktivitäten konnten nicht geladen werden")
		return
	}
	c.Set(middleware.FileCountKey, len(events))
	respond.OK(c, events)
}
