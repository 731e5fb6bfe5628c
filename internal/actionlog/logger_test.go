package actionlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type bufCloser struct {
	strings.Builder
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestLog_FormatsSortedDetails(t *testing.T) {
	buf := &bufCloser{}
	l := NewWriter(buf)
	l.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	l.Log("mouseMove", map[string]interface{}{
		"y":       20,
		"x":       10,
		"display": ":1",
		"value":   int64(0),
	})

	want := "2026-03-04 05:06:07 [mouseMove] display=\":1\" value=0 x=10 y=20\n"
	if buf.String() != want {
		t.Fatalf("unexpected entry:\n got %q\nwant %q", buf.String(), want)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !buf.closed {
		t.Fatalf("expected underlying writer closed")
	}
	// Logging after close is dropped.
	l.Log("keyDown", nil)
	if strings.Contains(buf.String(), "keyDown") {
		t.Fatalf("expected entry after close to be dropped")
	}
}

func TestNew_DisabledDropsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.log")
	l, err := New(Config{Enabled: false, FilePath: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Log("keyDown", map[string]interface{}{"window": 0})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no log file, stat err=%v", err)
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "actions.log")
	l, err := New(Config{Enabled: true, FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Log("activateWindow", map[string]interface{}{"window": uint32(12345)})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "[activateWindow] window=12345") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Log("keyDown", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
