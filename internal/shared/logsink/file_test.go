package logsink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"docstore-backend/internal/shared/metrics"
)

func openTestSink(t *testing.T, path string, console *bytes.Buffer) *FileSink {
	t.Helper()
	s, err := Open(path, Options{Role: "backend", Console: console})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("old run\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var console bytes.Buffer
	s := openTestSink(t, path, &console)
	s.Log("fresh")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "old run") {
		t.Fatalf("previous contents survived: %q", data)
	}
	if !strings.HasSuffix(string(data), "info: fresh\n") {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestFileAndConsoleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var console bytes.Buffer
	s := openTestSink(t, path, &console)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 678e6, time.UTC) }

	s.Log("hello")
	s.Warn("careful")
	s.Error("broken")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "[2026-01-02T03:04:05.678Z] info: hello\n" +
		"[2026-01-02T03:04:05.678Z] warn: careful\n" +
		"[2026-01-02T03:04:05.678Z] error: broken\n"
	if string(data) != want {
		t.Fatalf("file contents\n%q\nwant\n%q", data, want)
	}

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 console lines, got %q", console.String())
	}
	consoleLine := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \| BACKEND\]\| hello$`)
	if !consoleLine.MatchString(lines[0]) {
		t.Fatalf("unexpected console line %q", lines[0])
	}
	if strings.Contains(console.String(), "\x1b[") {
		t.Fatalf("expected no colour escapes on a non-terminal writer")
	}
}

func TestLineBreaksStayInsideOneEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var console bytes.Buffer
	s := openTestSink(t, path, &console)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 678e6, time.UTC) }

	s.Log("Keine Dateien für bob\n[2026-01-01T00:00:00.000Z] error: forged\r\nentry")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "[2026-01-02T03:04:05.678Z] info: Keine Dateien für bob [2026-01-01T00:00:00.000Z] error: forged entry\n"
	if string(data) != want {
		t.Fatalf("file contents\n%q\nwant\n%q", data, want)
	}
	if n := strings.Count(console.String(), "\n"); n != 1 {
		t.Fatalf("expected one console line, got %d in %q", n, console.String())
	}
}

func TestForcedColor(t *testing.T) {
	var console bytes.Buffer
	s, err := Open(filepath.Join(t.TempDir(), "c.log"), Options{Role: "FRONTEND", Console: &console, Color: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.Error("red")
	if !strings.Contains(console.String(), "\x1b[31m") {
		t.Fatalf("expected red escape in %q", console.String())
	}
}

func TestConcurrentWritesKeepLinesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var console lockedBuffer
	s, err := Open(path, Options{Role: "BACKEND", Console: &console})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Log(fmt.Sprintf("writer-%d-line-%d", w, i))
			}
		}(w)
	}
	wg.Wait()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("expected %d lines, got %d", writers*perWriter, len(lines))
	}
	whole := regexp.MustCompile(`^\[[^\]]+\] info: writer-\d+-line-\d+$`)
	for _, l := range lines {
		if !whole.MatchString(l) {
			t.Fatalf("interleaved line %q", l)
		}
	}
}

func TestWriteAfterCloseIsSwallowedAndCounted(t *testing.T) {
	var console bytes.Buffer
	s, err := Open(filepath.Join(t.TempDir(), "x.log"), Options{Role: "closedsink", Console: &console})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	before := testutil.ToFloat64(metrics.LogSinkWriteFailures("CLOSEDSINK"))
	s.Log("dropped")
	if got := testutil.ToFloat64(metrics.LogSinkWriteFailures("CLOSEDSINK")) - before; got != 1 {
		t.Fatalf("expected one counted failure, got %v", got)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}
