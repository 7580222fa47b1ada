// Package remotelog accepts log lines from remote callers, typically the
// web frontend, and writes them to a server side sink.
package remotelog

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/server/respond"
)

// maxMessageLen bounds a forwarded message; longer ones are cut.
const maxMessageLen = 8 << 10

type logRequest struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Handler writes forwarded entries to Target.
type Handler struct {
	Target logsink.Sink
}

// NewHandler constructs a Handler writing to target.
func NewHandler(target logsink.Sink) *Handler {
	if target == nil {
		target = logsink.Nop{}
	}
	return &Handler{Target: target}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/logger", h.write)
}

func (h *Handler) write(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Level == "" || strings.TrimSpace(req.Message) == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlende Felder: level oder message")
		return
	}
	level, err := logsink.ParseLevel(req.Level)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger Log-Level")
		return
	}

	msg := req.Message
	if len(msg) > maxMessageLen {
		msg = strings.ToValidUTF8(msg[:maxMessageLen], "") + "…"
	}
	// Forwarded text must not be able to forge extra lines in the file.
	msg = logsink.SingleLine(msg)

	logsink.Write(h.Target, level, msg)
	respond.Message(c, "Log geschrieben")
}
