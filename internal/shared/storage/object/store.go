package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a referenced user or document does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the per-user document tree. Implementations map a userId to a
// namespace under a fixed root and never resolve outside of it.
type Store interface {
	// Save persists r under a generated stored name and returns that name.
	Save(ctx context.Context, userID, originalName string, r io.Reader) (storedName string, err error)
	// ListDocuments returns the entries directly inside the user's namespace.
	// A user without a namespace yields an empty list, not an error.
	ListDocuments(ctx context.Context, userID string) ([]string, error)
	// ListUsers returns the identifiers of all existing user namespaces.
	ListUsers(ctx context.Context) ([]string, error)
	// DeleteUser removes the user's namespace and everything in it.
	DeleteUser(ctx context.Context, userID string) error
	// DeleteDocument removes one entry from the user's namespace.
	DeleteDocument(ctx context.Context, userID, name string) error
}
