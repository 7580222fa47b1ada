package health

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

type listStore struct{ err error }

func (s listStore) Save(context.Context, string, string, io.Reader) (string, error) { return "", nil }
func (s listStore) ListDocuments(context.Context, string) ([]string, error)       { return nil, nil }
func (s listStore) ListUsers(context.Context) ([]string, error)                   { return nil, s.err }
func (s listStore) DeleteUser(context.Context, string) error                      { return nil }
func (s listStore) DeleteDocument(context.Context, string, string) error          { return nil }

func TestStatusHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	rep := NewService(db, listStore{}).Status(context.Background())
	if !rep.OK || rep.Checks["storage"] != "ok" || rep.Checks["database"] != "ok" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestStatusStorageDown(t *testing.T) {
	rep := NewService(nil, listStore{err: errors.New("permission denied")}).Status(context.Background())
	if rep.OK {
		t.Fatalf("expected unhealthy report")
	}
	if _, ok := rep.Checks["database"]; ok {
		t.Fatalf("database check must be skipped without a DB")
	}
}
