// Package logsink provides the leveled, file-backed logs the HTTP handlers
// write request outcomes to. It is separate from telemetry, which emits
// structured operational JSON to stdout.
package logsink

import (
	"errors"
	"strings"
)

// Level is the severity of a sink entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ErrInvalidLevel is returned by ParseLevel for anything but info, warn or error.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel maps a client supplied level onto a Level. Matching is exact.
func ParseLevel(raw string) (Level, error) {
	switch Level(raw) {
	case LevelInfo, LevelWarn, LevelError:
		return Level(raw), nil
	}
	return "", ErrInvalidLevel
}

// Sink accepts leveled text entries. Implementations never report write
// failures to the caller.
type Sink interface {
	Log(msg string)
	Warn(msg string)
	Error(msg string)
}

// Write dispatches msg to the sink method matching level. Unknown levels
// are written as info.
func Write(s Sink, level Level, msg string) {
	switch level {
	case LevelWarn:
		s.Warn(msg)
	case LevelError:
		s.Error(msg)
	default:
		s.Log(msg)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Log(string)   {}
func (Nop) Warn(string)  {}
func (Nop) Error(string) {}

// Entry is one recorded line, used by Recorder.
type Entry struct {
	Level   Level
	Message string
}

// Role normalises a console role tag, e.g. "backend" -> "BACKEND".
func Role(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
