package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/server/respond"
	"docstore-backend/internal/shared/telemetry"
)

func TestUploadStorageFailureReportsStoredFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	store := &fakeStore{failSave: "b.txt"}
	svc, _ := newService(store)
	log := &logsink.Recorder{}
	r := gin.New()
	NewHandler(svc, log, 0).RegisterRoutes(r)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("userId", "alice")
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		fw, err := w.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write([]byte(name))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp UploadFailedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != respond.CodeStorage || resp.Message != "Upload fehlgeschlagen" {
		t.Fatalf("unexpected error fields %+v", resp)
	}
	if len(resp.Files) != 1 || resp.Files[0] != "1_a.txt" {
		t.Fatalf("expected the stored file to be reported, got %v", resp.Files)
	}

	entries := log.Entries()
	if len(entries) != 1 || entries[0].Level != logsink.LevelError || !strings.Contains(entries[0].Message, "1_a.txt") {
		t.Fatalf("expected one error entry naming the stored file, got %+v", entries)
	}
}
