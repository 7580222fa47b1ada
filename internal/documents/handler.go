package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/server/middleware"
	"docstore-backend/internal/shared/server/respond"
)

// DefaultMaxUploadBytes caps a POST /documents body when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	Log            logsink.Sink
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. Request outcomes are written to log.
func NewHandler(svc *Service, log logsink.Sink, maxUploadBytes int64) *Handler {
	if log == nil {
		log = logsink.Nop{}
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{Svc: svc, Log: log, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches document routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/documents", h.upload)
	r.GET("/documents", h.list)
	r.DELETE("/documents", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Log.Warn(fmt.Sprintf("Upload abgelehnt: Anfrage größer als %d Bytes", h.MaxUploadBytes))
			respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeTooLarge, "Datei zu groß")
			return
		}
		h.Log.Warn("Fehlender userId oder Datei beim Upload")
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId oder Datei")
		return
	}
	defer func() { _ = form.RemoveAll() }()

	userID := firstValue(form.Value["userId"])
	files := form.File["file"]
	if userID == "" || len(files) == 0 {
		h.Log.Warn("Fehlender userId oder Datei beim Upload")
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId oder Datei")
		return
	}
	c.Set(middleware.UserIDKey, userID)

	parts := make([]Part, 0, len(files))
	for _, fh := range files {
		fh := fh
		parts = append(parts, Part{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	stored, err := h.Svc.Upload(c.Request.Context(), middleware.RequestIDFromContext(c), userID, parts)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			h.Log.Warn(fmt.Sprintf("Upload für User %q abgelehnt: ungültiger userId oder Dateiname", userID))
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger userId oder Dateiname")
			return
		}
		if stored == nil {
			stored = []string{}
		}
		c.Set(middleware.FileCountKey, len(stored))
		h.Log.Error(fmt.Sprintf("Upload für User %s fehlgeschlagen, bereits gespeichert: [%s]: %v", userID, strings.Join(stored, ", "), err))
		respond.ErrorWith(c, http.StatusInternalServerError, respond.CodeStorage, "Upload fehlgeschlagen", UploadFailedResponse{
			ErrorResponse: respond.ErrorResponse{Message: "Upload fehlgeschlagen", Code: respond.CodeStorage},
			Files:         stored,
		})
		return
	}

	c.Set(middleware.FileCountKey, len(stored))
	h.Log.Log(fmt.Sprintf("Datei(en) %s für User %s hochgeladen", strings.Join(stored, ", "), userID))
	respond.OK(c, UploadResponse{Message: "Upload erfolgreich", Files: stored})
}

func (h *Handler) list(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		h.Log.Warn("GET /documents ohne userId")
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId")
		return
	}
	c.Set(middleware.UserIDKey, userID)

	names, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			h.Log.Warn(fmt.Sprintf("GET /documents: ungültiger userId %q", userID))
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger userId")
			return
		}
		h.Log.Error(fmt.Sprintf("GET /documents für %s fehlgeschlagen: %v", userID, err))
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, "Dateien konnten nicht gelesen werden")
		return
	}

	c.Set(middleware.FileCountKey, len(names))
	if len(names) == 0 {
		h.Log.Log(fmt.Sprintf("GET /documents: Keine Dateien für %s", userID))
	} else {
		h.Log.Log(fmt.Sprintf("GET /documents: %d Dateien für %s gefunden", len(names), userID))
	}
	respond.OK(c, names)
}

func (h *Handler) delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Log.Warn("DELETE /documents mit ungültigem Body")
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId oder file")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	names := req.File.Names()
	if userID == "" || len(names) == 0 {
		h.Log.Warn("DELETE /documents ohne userId oder file")
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Fehlender userId oder file")
		return
	}
	c.Set(middleware.UserIDKey, userID)

	res, err := h.Svc.Delete(c.Request.Context(), middleware.RequestIDFromContext(c), userID, names)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			h.Log.Warn(fmt.Sprintf("DELETE /documents für User %q abgelehnt: ungültiger userId oder Dateiname", userID))
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "Ungültiger userId oder Dateiname")
			return
		}
		h.logDeleteOutcomes(userID, res)
		h.Log.Error(fmt.Sprintf("DELETE /documents für User %s fehlgeschlagen: %v", userID, err))
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, "Löschen fehlgeschlagen")
		return
	}

	h.logDeleteOutcomes(userID, res)
	c.Set(middleware.FileCountKey, len(res.Deleted))
	respond.OK(c, DeleteResponse{
		Message:  "Löschvorgang abgeschlossen",
		Deleted:  res.Deleted,
		NotFound: res.NotFound,
	})
}

func (h *Handler) logDeleteOutcomes(userID string, res DeleteResult) {
	for _, name := range res.Deleted {
		h.Log.Log(fmt.Sprintf("Datei %s von User %s gelöscht", name, userID))
	}
	for _, name := range res.NotFound {
		h.Log.Warn(fmt.Sprintf("Datei %s für User %s nicht gefunden", name, userID))
	}
}

func firstValue(values []string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
