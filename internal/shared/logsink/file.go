package logsink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"docstore-backend/internal/shared/metrics"
)

const (
	fileTimeFormat    = "2006-01-02T15:04:05.000Z"
	consoleTimeFormat = "2006-01-02 15:04:05"
)

// Options configures a FileSink.
type Options struct {
	// Role tags console lines, e.g. BACKEND or FRONTEND.
	Role string
	// Console receives the mirrored lines. Nil means os.Stdout.
	Console io.Writer
	// Color forces colored console output. Terminals are detected
	// automatically.
	Color bool
}

// FileSink appends entries to a log file and mirrors them to a console.
//
// Open removes a pre-existing file at the path, so a sink should be opened
// once per distinct path at process start. Opening the same path again
// discards what was written before.
type FileSink struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	console io.Writer
	role    string
	now     func() time.Time

	prefixColor *color.Color
	infoColor   *color.Color
	warnColor   *color.Color
	errorColor  *color.Color
}

// Open truncates the file at path and returns a sink appending to it.
func Open(path string, opts Options) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("log sink path is required")
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove previous log file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	role := Role(opts.Role)
	if role == "" {
		role = "BACKEND"
	}

	s := &FileSink{
		path:    path,
		file:    f,
		console: console,
		role:    role,
		now:     time.Now,

		prefixColor: color.New(color.FgHiBlack),
		infoColor:   color.New(color.FgGreen),
		warnColor:   color.New(color.FgYellow),
		errorColor:  color.New(color.FgRed),
	}
	enable := opts.Color || isTerminal(console)
	for _, c := range []*color.Color{s.prefixColor, s.infoColor, s.warnColor, s.errorColor} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s, nil
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Log(msg string)   { s.write(LevelInfo, s.infoColor, msg) }
func (s *FileSink) Warn(msg string)  { s.write(LevelWarn, s.warnColor, msg) }
func (s *FileSink) Error(msg string) { s.write(LevelError, s.errorColor, msg) }

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// SingleLine replaces line breaks so msg occupies exactly one log line.
func SingleLine(msg string) string {
	return lineBreaks.Replace(msg)
}

func (s *FileSink) write(level Level, body *color.Color, msg string) {
	msg = SingleLine(msg)
	now := s.now()
	line := fmt.Sprintf("[%s] %s: %s\n", now.UTC().Format(fileTimeFormat), level, msg)
	head := s.prefixColor.Sprintf("[%s | %s]", now.Local().Format(consoleTimeFormat), s.role)
	tail := body.Sprintf("| %s", msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		metrics.IncLogSinkWriteFailure(s.role)
	} else if _, err := s.file.WriteString(line); err != nil {
		metrics.IncLogSinkWriteFailure(s.role)
	}
	if _, err := fmt.Fprintln(s.console, head+tail); err != nil {
		metrics.IncLogSinkWriteFailure(s.role)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var _ Sink = (*FileSink)(nil)
