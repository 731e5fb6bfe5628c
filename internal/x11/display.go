package x11

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const x11SocketDir = "/tmp/.X11-unix"

var errNoDisplay = errors.New(`no X display found; export DISPLAY or set display in config (e.g. display: ":1")`)

// DisplayDefaults are the configured fallbacks used when neither the caller
// nor the environment names a display.
type DisplayDefaults struct {
	Display    string
	XAuthority string
}

// ResolveDefaultDisplay picks the display a "default display" connection goes
// to. Order: $DISPLAY, configured display, the logind session display, the
// highest X socket under /tmp/.X11-unix. It also exports XAUTHORITY when the
// process was started without one, since xgb reads the cookie from there.
func ResolveDefaultDisplay(defaults DisplayDefaults) (string, error) {
	return systemResolver().resolve(defaults)
}

// sessionEnv is the display environment of a graphical login session.
type sessionEnv struct {
	Display    string
	XAuthority string
}

type displayResolver struct {
	getenv  func(string) string
	setenv  func(string, string) error
	session func() sessionEnv
	socket  func() string
}

// The logind lookup shells out, and every command opens a fresh connection.
var cachedSession = sync.OnceValue(func() sessionEnv {
	return loginSession(strconv.Itoa(os.Getuid()), runCommandOutput, os.ReadFile)
})

func systemResolver() displayResolver {
	return displayResolver{
		getenv:  os.Getenv,
		setenv:  os.Setenv,
		session: cachedSession,
		socket:  func() string { return highestSocketDisplay(x11SocketDir) },
	}
}

func (r displayResolver) resolve(defaults DisplayDefaults) (string, error) {
	envXAuth := strings.TrimSpace(r.getenv("XAUTHORITY"))
	display := firstNonEmpty(r.getenv("DISPLAY"), defaults.Display)
	xauth := firstNonEmpty(envXAuth, defaults.XAuthority)

	if display == "" || xauth == "" {
		s := r.session()
		display = firstNonEmpty(display, s.Display)
		xauth = firstNonEmpty(xauth, s.XAuthority)
	}
	if display == "" {
		display = r.socket()
	}
	if display == "" {
		return "", errNoDisplay
	}

	if xauth == "" {
		home := strings.TrimSpace(r.getenv("HOME"))
		if home == "" {
			home, _ = os.UserHomeDir()
		}
		if home != "" {
			if candidate := filepath.Join(home, ".Xauthority"); fileExists(candidate) {
				xauth = candidate
			}
		}
	}

	if xauth != "" && envXAuth == "" {
		if err := r.setenv("XAUTHORITY", xauth); err != nil {
			return "", fmt.Errorf("failed to export XAUTHORITY: %w", err)
		}
	}
	return display, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	return string(out), err
}

// loginSession asks logind for uid's first session with a display. The
// session leader's environment, when readable, overrides what logind reports.
func loginSession(
	uid string,
	run func(name string, args ...string) (string, error),
	readFile func(string) ([]byte, error),
) sessionEnv {
	list, err := run("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return sessionEnv{}
	}

	prop := func(id, name string) string {
		out, err := run("loginctl", "show-session", id, "-p", name, "--value")
		if err != nil {
			return ""
		}
		return strings.TrimSpace(out)
	}

	for _, id := range sessionsForUID(list, uid) {
		env := sessionEnv{Display: prop(id, "Display")}
		if env.Display == "" || strings.EqualFold(env.Display, "n/a") {
			continue
		}
		leader := prop(id, "Leader")
		if leader == "" || leader == "0" {
			return env
		}
		if data, err := readFile(filepath.Join("/proc", leader, "environ")); err == nil {
			vars := procEnviron(data)
			env.Display = firstNonEmpty(vars["DISPLAY"], env.Display)
			env.XAuthority = strings.TrimSpace(vars["XAUTHORITY"])
		}
		return env
	}
	return sessionEnv{}
}

// sessionsForUID picks session ids from `loginctl list-sessions --no-legend`.
func sessionsForUID(output, uid string) []string {
	var ids []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == uid {
			ids = append(ids, fields[0])
		}
	}
	return ids
}

// procEnviron parses a NUL-separated /proc/<pid>/environ.
func procEnviron(data []byte) map[string]string {
	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		if k, v, ok := strings.Cut(part, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// highestSocketDisplay returns ":<n>" for the highest-numbered X<n> socket
// in dir, or "".
func highestSocketDisplay(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	best := -1
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "X") {
			continue
		}
		if n, err := strconv.Atoi(name[1:]); err == nil && n > best {
			best = n
		}
	}
	if best < 0 {
		return ""
	}
	return ":" + strconv.Itoa(best)
}
