package users

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/storage/object"
	"docstore-backend/internal/shared/telemetry"
)

type brokenStore struct {
	listErr   error
	deleteErr error
}

func (s brokenStore) Save(context.Context, string, string, io.Reader) (string, error) { return "", nil }
func (s brokenStore) ListDocuments(context.Context, string) ([]string, error) { return nil, nil }
func (s brokenStore) ListUsers(context.Context) ([]string, error) { return []string{"b", "a"}, s.listErr }
func (s brokenStore) DeleteUser(context.Context, string) error { return s.deleteErr }
func (s brokenStore) DeleteDocument(context.Context, string, string) error { return nil }

func newRouter(store object.Store, log logsink.Sink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(store, nil, nil), log).RegisterRoutes(r)
	return r
}

func TestListSorted(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(brokenStore{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != `["a","b"]` {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestStorageErrorsMapTo500AndLogError(t *testing.T) {
	telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	sink := &logsink.Recorder{}
	r := newRouter(brokenStore{listErr: errors.New("eio"), deleteErr: errors.New("eio")}, sink)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("list: expected 500, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/users", strings.NewReader(`{"userId":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("delete: expected 500, got %d", rec.Code)
	}

	entries := sink.Entries()
	if len(entries) != 2 || entries[0].Level != logsink.LevelError || entries[1].Level != logsink.LevelError {
		t.Fatalf("expected two error entries, got %+v", entries)
	}
}

func TestDeleteMissingUserWarns(t *testing.T) {
	sink := &logsink.Recorder{}
	r := newRouter(brokenStore{deleteErr: object.ErrNotFound}, sink)

	req := httptest.NewRequest(http.MethodDelete, "/users", strings.NewReader(`{"userId":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if e := sink.Entries(); len(e) != 1 || e[0].Level != logsink.LevelWarn {
		t.Fatalf("expected one warn entry, got %+v", e)
	}
}
