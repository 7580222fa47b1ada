package users

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/server/middleware"
	"docstore-backend/internal/shared/server/respond"
)

type deleteRequest struct {
	UserID string `json:"userId"`
}

type Handler struct {
	Svc *Service
	Log logsink.Sink
}

func NewHandler(svc *Service, log logsink.Sink) *Handler {
	if log == nil {
		log = logsink.Nop{}
	}
	return &Handler{Svc: svc, Log: log}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/users", h.list)
	r.DELETE("/users", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	names, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.Log.Error(fmt.Sprintf("GET /users fehlgeschlagen: %v", err))
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, "Benutzer konnten nicht gelesen werden")
		return
	}
	h.Log.Log(fmt.Sprintf("GET /users: %d Benutzer gefunden", len(names)))
	respond.OK(c, names)
}

func (h *Handler) delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		h.Log.Warn("DELETE /users ohne userId")
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	c.Set(middleware.UserIDKey, userID)

	err := h.Svc.Delete(c.Request.Context(), middleware.RequestIDFromContext(c), userID)
	switch {
	case err == nil:
		h.Log.Log(fmt.Sprintf("User %s gelöscht", userID))
		respond.Message(c, fmt.Sprintf("User %s gelöscht", userID))
	case errors.Is(err, ErrInvalidInput):
		h.Log.Warn(fmt.Sprintf("DELETE /users: ungültiger userId %q", userID))
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger userId")
	case errors.Is(err, ErrNotFound):
		h.Log.Warn(fmt.Sprintf("DELETE /users: User %s nicht gefunden", userID))
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "User nicht gefunden")
	default:
		h.Log.Error(fmt.Sprintf("DELETE /users für %s fehlgeschlagen: %v", userID, err))
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, "User konnte nicht gelöscht werden")
	}
}
