// Package runtimepath locates per-user runtime files such as the daemon socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SocketName is the daemon socket's file name inside Dir.
const SocketName = "deskctl.sock"

// Dir returns $XDG_RUNTIME_DIR, else /run/user/<uid> when it exists, else a
// private directory under the system temp dir, created with mode 0700.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := strconv.Itoa(os.Getuid())
	if dir := filepath.Join("/run/user", uid); isDir(dir) {
		return dir, nil
	}

	fallback := filepath.Join(os.TempDir(), "deskctl-runtime-"+uid)
	if err := os.MkdirAll(fallback, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir %s: %w", fallback, err)
	}
	return fallback, nil
}

// SocketPath is Dir joined with SocketName.
func SocketPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SocketName), nil
}

// ResolveSocketPath prefers an explicitly configured path.
func ResolveSocketPath(configured string) (string, error) {
	if configured == "" {
		return SocketPath()
	}
	return configured, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
