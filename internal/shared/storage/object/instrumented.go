package object

import (
	"context"
	"errors"
	"io"

	"docstore-backend/internal/shared/metrics"
	"docstore-backend/internal/shared/util"
)

// Instrumented counts every call on the wrapped store in
// docstore_storage_operations_total.
func Instrumented(s Store) Store {
	return &instrumented{next: s}
}

type instrumented struct {
	next Store
}

func (i *instrumented) Save(ctx context.Context, userID, originalName string, r io.Reader) (string, error) {
	name, err := i.next.Save(ctx, userID, originalName, r)
	observe("save", err)
	return name, err
}

func (i *instrumented) ListDocuments(ctx context.Context, userID string) ([]string, error) {
	names, err := i.next.ListDocuments(ctx, userID)
	observe("list_documents", err)
	return names, err
}

func (i *instrumented) ListUsers(ctx context.Context) ([]string, error) {
	names, err := i.next.ListUsers(ctx)
	observe("list_users", err)
	return names, err
}

func (i *instrumented) DeleteUser(ctx context.Context, userID string) error {
	err := i.next.DeleteUser(ctx, userID)
	observe("delete_user", err)
	return err
}

func (i *instrumented) DeleteDocument(ctx context.Context, userID, name string) error {
	err := i.next.DeleteDocument(ctx, userID, name)
	observe("delete_document", err)
	return err
}

func observe(op string, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = metrics.ResultNotFound
	case errors.Is(err, util.ErrInvalidSegment):
		result = metrics.ResultInvalid
	default:
		result = metrics.ResultError
	}
	metrics.IncStorageOperation(op, result)
}
