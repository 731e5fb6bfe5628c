package x11

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeResolver(env map[string]string, session sessionEnv, socket string) displayResolver {
	return displayResolver{
		getenv: func(key string) string { return env[key] },
		setenv: func(key, value string) error {
			env[key] = value
			return nil
		},
		session: func() sessionEnv { return session },
		socket:  func() string { return socket },
	}
}

func TestResolve_UsesExistingEnv(t *testing.T) {
	env := map[string]string{"DISPLAY": ":7", "XAUTHORITY": "/tmp/xauth-existing"}
	r := fakeResolver(env, sessionEnv{":99", "/tmp/should-not-be-used"}, ":88")

	got, err := r.resolve(DisplayDefaults{Display: ":1", XAuthority: "/tmp/cfg"})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got != ":7" {
		t.Fatalf("display = %q, want %q", got, ":7")
	}
	if env["XAUTHORITY"] != "/tmp/xauth-existing" {
		t.Fatalf("XAUTHORITY = %q, want it untouched", env["XAUTHORITY"])
	}
}

func TestResolve_UsesConfigAndFallsBackToHomeXAuthority(t *testing.T) {
	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, []byte("cookie"), 0600); err != nil {
		t.Fatalf("write xauthority: %v", err)
	}

	env := map[string]string{"HOME": home}
	r := fakeResolver(env, sessionEnv{}, "")

	got, err := r.resolve(DisplayDefaults{Display: ":1"})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got != ":1" {
		t.Fatalf("display = %q, want %q", got, ":1")
	}
	if env["XAUTHORITY"] != xauth {
		t.Fatalf("XAUTHORITY = %q, want %q", env["XAUTHORITY"], xauth)
	}
}

func TestResolve_UsesSessionValues(t *testing.T) {
	env := map[string]string{"HOME": t.TempDir()}
	r := fakeResolver(env, sessionEnv{":5", "/tmp/xauth-detected"}, "")

	got, err := r.resolve(DisplayDefaults{})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got != ":5" {
		t.Fatalf("display = %q, want %q", got, ":5")
	}
	if env["XAUTHORITY"] != "/tmp/xauth-detected" {
		t.Fatalf("XAUTHORITY = %q, want %q", env["XAUTHORITY"], "/tmp/xauth-detected")
	}
}

func TestResolve_FallsBackToSocketScan(t *testing.T) {
	r := fakeResolver(map[string]string{"HOME": t.TempDir()}, sessionEnv{}, ":3")

	got, err := r.resolve(DisplayDefaults{})
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if got != ":3" {
		t.Fatalf("display = %q, want %q", got, ":3")
	}
}

func TestResolve_NoDisplay(t *testing.T) {
	r := fakeResolver(map[string]string{"HOME": t.TempDir()}, sessionEnv{}, "")

	_, err := r.resolve(DisplayDefaults{})
	if !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
	if !strings.Contains(err.Error(), "no X display found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHighestSocketDisplay(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"X0", "X2", "X10", "not-a-display", "Xfoo"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if got := highestSocketDisplay(dir); got != ":10" {
		t.Fatalf("highestSocketDisplay = %q, want %q", got, ":10")
	}
	if got := highestSocketDisplay(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("missing dir = %q, want empty", got)
	}
}

func TestSessionsForUID(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := sessionsForUID(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("sessionsForUID = %v, want [1 3]", got)
	}
}

func TestProcEnviron(t *testing.T) {
	env := procEnviron([]byte("DISPLAY=:4\x00XAUTHORITY=/run/user/1000/xauth\x00BROKEN\x00"))
	if env["DISPLAY"] != ":4" || env["XAUTHORITY"] != "/run/user/1000/xauth" {
		t.Fatalf("unexpected env: %v", env)
	}
	if _, ok := env["BROKEN"]; ok {
		t.Fatalf("entry without '=' should be skipped: %v", env)
	}
}

func TestLoginSession(t *testing.T) {
	props := map[string]string{
		"1/Display": "n/a",
		"3/Display": ":0",
		"3/Leader":  "4242",
	}
	run := func(name string, args ...string) (string, error) {
		switch args[0] {
		case "list-sessions":
			return "1 1000 george tty1\n3 1000 george seat0\n", nil
		case "show-session":
			return props[args[1]+"/"+args[3]] + "\n", nil
		}
		return "", errors.New("unexpected")
	}
	readFile := func(path string) ([]byte, error) {
		if path != "/proc/4242/environ" {
			t.Fatalf("read %s", path)
		}
		return []byte("DISPLAY=:1\x00XAUTHORITY=/run/user/1000/gdm/Xauthority\x00"), nil
	}

	got := loginSession("1000", run, readFile)
	if got.Display != ":1" || got.XAuthority != "/run/user/1000/gdm/Xauthority" {
		t.Fatalf("loginSession = %+v", got)
	}

	failing := func(string, ...string) (string, error) { return "", errors.New("no logind") }
	if got := loginSession("1000", failing, readFile); got != (sessionEnv{}) {
		t.Fatalf("loginSession without logind = %+v", got)
	}
}
