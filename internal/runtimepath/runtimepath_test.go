package runtimepath

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestDir(t *testing.T) {
	t.Run("xdg runtime dir", func(t *testing.T) {
		want := t.TempDir()
		t.Setenv("XDG_RUNTIME_DIR", want)
		if got, err := Dir(); err != nil || got != want {
			t.Fatalf("Dir() = %q, %v; want %q", got, err, want)
		}
	})

	t.Run("without xdg runtime dir", func(t *testing.T) {
		t.Setenv("XDG_RUNTIME_DIR", "")
		got, err := Dir()
		if err != nil {
			t.Fatalf("Dir(): %v", err)
		}
		uid := strconv.Itoa(os.Getuid())
		candidates := []string{
			filepath.Join("/run/user", uid),
			filepath.Join(os.TempDir(), "deskctl-runtime-"+uid),
		}
		if got != candidates[0] && got != candidates[1] {
			t.Fatalf("Dir() = %q, want one of %q", got, candidates)
		}
		if !isDir(got) {
			t.Fatalf("%s is not a directory", got)
		}
	})
}

func TestResolveSocketPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	tests := []struct {
		configured string
		want       string
	}{
		{"", filepath.Join(dir, SocketName)},
		{"/tmp/custom.sock", "/tmp/custom.sock"},
	}
	for _, tt := range tests {
		got, err := ResolveSocketPath(tt.configured)
		if err != nil {
			t.Fatalf("ResolveSocketPath(%q): %v", tt.configured, err)
		}
		if got != tt.want {
			t.Errorf("ResolveSocketPath(%q) = %q, want %q", tt.configured, got, tt.want)
		}
	}
}
