package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrInvalidSegment is returned when a client-supplied name cannot be used as a
// single path component.
var ErrInvalidSegment = errors.New("invalid path segment")

const (
	// MaxSegmentBytes is the longest path component the common filesystems accept.
	MaxSegmentBytes = 255
	// storedPrefixBytes is the length of the "<unixMillis>_" prefix a stored name carries.
	storedPrefixBytes = 14
	// MaxOriginalNameBytes leaves room for the stored-name prefix.
	MaxOriginalNameBytes = MaxSegmentBytes - storedPrefixBytes
)

// ValidateSegment checks that name is usable as exactly one path component
// below a storage root. It rejects empty, overlong and dot-only names,
// separators, control characters and anything the OS would treat as
// absolute or volume-qualified.
func ValidateSegment(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidSegment
	}
	if len(name) > MaxSegmentBytes {
		return ErrInvalidSegment
	}
	if name == "." || name == ".." {
		return ErrInvalidSegment
	}
	if strings.ContainsAny(name, "/\\") || hasControl(name) {
		return ErrInvalidSegment
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return ErrInvalidSegment
	}
	return nil
}

// SanitizeFileName removes path separators and rejects traversal patterns.
// Used for client-supplied original names before they become part of a stored name.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") && strings.Trim(name, ".") == "" {
		return "", ErrInvalidSegment
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "\x00", "")
	if s == "" || hasControl(s) || len(s) > MaxOriginalNameBytes {
		return "", ErrInvalidSegment
	}
	return s, nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
