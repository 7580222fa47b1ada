package usage

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/server/middleware"
	"docstore-backend/internal/shared/server/respond"
)

// Handler exposes usage endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches usage routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/usage", h.getUsage)
}

func (h *Handler) getUsage(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId")
		return
	}
	c.Set(middleware.UserIDKey, userID)

	u, err := h.Svc.Get(c.Request.Context(), userID)
	switch {
	case err == nil:
		respond.OK(c, u)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger userId")
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "Nutzungsdaten konnten nicht gelesen werden")
	}
}
