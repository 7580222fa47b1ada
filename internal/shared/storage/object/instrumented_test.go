package object

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"docstore-backend/internal/shared/metrics"
)

type stubStore struct{ err error }

func (s stubStore) Save(context.Context, string, string, io.Reader) (string, error) {
	return "1_a.txt", s.err
}
func (s stubStore) ListDocuments(context.Context, string) ([]string, error) { return nil, s.err }
func (s stubStore) ListUsers(context.Context) ([]string, error)             { return nil, s.err }
func (s stubStore) DeleteUser(context.Context, string) error                { return s.err }
func (s stubStore) DeleteDocument(context.Context, string, string) error    { return s.err }

func TestInstrumentedCountsResults(t *testing.T) {
	tests := []struct {
		err    error
		result string
	}{
		{err: nil, result: metrics.ResultOK},
		{err: ErrNotFound, result: metrics.ResultNotFound},
		{err: errors.New("disk full"), result: metrics.ResultError},
	}
	for _, tt := range tests {
		counter := metrics.StorageOperations("delete_user", tt.result)
		before := testutil.ToFloat64(counter)

		err := Instrumented(stubStore{err: tt.err}).DeleteUser(context.Background(), "alice")
		if !errors.Is(err, tt.err) {
			t.Fatalf("error not passed through: %v", err)
		}
		if got := testutil.ToFloat64(counter) - before; got != 1 {
			t.Fatalf("result %s: expected 1 increment, got %v", tt.result, got)
		}
	}
}
