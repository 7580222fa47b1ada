package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"docstore-backend/internal/shared/storage/object"
	"docstore-backend/internal/shared/util"
)

// Store implements object.Store using the local filesystem.
type Store struct {
	mapper *Mapper
	now    func() time.Time
}

// New creates a new local store rooted at baseDir.
func New(baseDir string) (*Store, error) {
	mapper, err := NewMapper(baseDir)
	if err != nil {
		return nil, err
	}
	return &Store{mapper: mapper, now: time.Now}, nil
}

// Mapper exposes the path mapping used by the store.
func (s *Store) Mapper() *Mapper {
	return s.mapper
}

// Save writes the reader into the user's directory under a generated name.
// Existing files are never overwritten.
func (s *Store) Save(ctx context.Context, userID, originalName string, r io.Reader) (string, error) {
	sanitizedName, err := util.SanitizeFileName(originalName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := s.mapper.EnsureUserDirectory(userID); err != nil {
		return "", err
	}

	at := s.now()
	for attempt := 0; attempt < object.MaxNameAttempts; attempt++ {
		storedName := object.NextStoredName(sanitizedName, at, attempt)
		fullPath, err := s.mapper.DocumentPath(userID, storedName)
		if err != nil {
			return "", err
		}

		f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("open file: %w", err)
		}

		_, copyErr := io.Copy(f, r)
		closeErr := f.Close()
		if copyErr != nil {
			_ = os.Remove(fullPath)
			return "", fmt.Errorf("write body: %w", copyErr)
		}
		if closeErr != nil {
			_ = os.Remove(fullPath)
			return "", fmt.Errorf("close file: %w", closeErr)
		}
		return storedName, nil
	}
	return "", fmt.Errorf("no free stored name for %q after %d attempts", sanitizedName, object.MaxNameAttempts)
}

// ListDocuments returns entry names directly inside the user's directory.
func (s *Store) ListDocuments(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.mapper.UserDirectory(userID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// ListUsers returns the names of the immediate subdirectories of the root.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.mapper.Root())
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}
	users := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	return users, nil
}

// DeleteUser removes the user's directory tree.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.mapper.UserDirectory(userID)
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return object.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("stat user directory: %w", err)
	}
	if !info.IsDir() {
		return object.ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove user directory: %w", err)
	}
	return nil
}

// DeleteDocument removes one entry from the user's directory.
func (s *Store) DeleteDocument(ctx context.Context, userID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.mapper.DocumentPath(userID, name)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(fullPath); errors.Is(err, fs.ErrNotExist) {
		return object.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

var _ object.Store = (*Store)(nil)
