package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docstore-backend/internal/shared/util"
)

// Mapper translates (userId[, name]) into paths below a fixed root. Every
// result is checked to be a strict descendant of the root.
type Mapper struct {
	root string
}

// NewMapper resolves root to an absolute path. The directory itself is not created.
func NewMapper(root string) (*Mapper, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Mapper{root: abs}, nil
}

// Root returns the absolute storage root.
func (m *Mapper) Root() string {
	return m.root
}

// UserDirectory returns root/<userID>.
func (m *Mapper) UserDirectory(userID string) (string, error) {
	if err := util.ValidateSegment(userID); err != nil {
		return "", fmt.Errorf("user id %q: %w", userID, err)
	}
	return m.within(filepath.Join(m.root, userID))
}

// EnsureUserDirectory creates root/<userID> and its parents if absent.
func (m *Mapper) EnsureUserDirectory(userID string) (string, error) {
	dir, err := m.UserDirectory(userID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return dir, nil
}

// DocumentPath returns root/<userID>/<name>.
func (m *Mapper) DocumentPath(userID, name string) (string, error) {
	dir, err := m.UserDirectory(userID)
	if err != nil {
		return "", err
	}
	if err := util.ValidateSegment(name); err != nil {
		return "", fmt.Errorf("file name %q: %w", name, err)
	}
	return m.within(filepath.Join(dir, name))
}

func (m *Mapper) within(p string) (string, error) {
	rel, err := filepath.Rel(m.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q escapes storage root: %w", p, util.ErrInvalidSegment)
	}
	return p, nil
}
