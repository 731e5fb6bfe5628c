package x11

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

const (
	DefaultPollInterval = 30 * time.Millisecond
	DefaultMaxTries     = 500
)

// Options bounds the polling performed by the Wait* helpers.
type Options struct {
	PollInterval time.Duration
	MaxTries     int
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxTries <= 0 {
		o.MaxTries = DefaultMaxTries
	}
	return o
}

// Connection manages one X11 connection and the extensions input injection needs.
type Connection struct {
	XUtil   *xgbutil.XUtil
	Root    xproto.Window
	Display string

	opts Options
}

// NewConnection connects to the named display ("" uses $DISPLAY) and
// initializes the XTEST extension and the keyboard mapping.
func NewConnection(display string, opts Options) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	if err := xtest.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("xtest extension unavailable: %w", err)
	}
	keybind.Initialize(xu)

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		Display: display,
		opts:    opts.withDefaults(),
	}, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// screenRoot returns the root window of the given screen number.
func (c *Connection) screenRoot(screen int) (xproto.Window, error) {
	setup := xproto.Setup(c.XUtil.Conn())
	if screen < 0 || screen >= len(setup.Roots) {
		return 0, fmt.Errorf("screen %d out of range (have %d)", screen, len(setup.Roots))
	}
	return setup.Roots[screen].Root, nil
}

// screenOf returns the screen number whose root is root.
func (c *Connection) screenOf(root xproto.Window) int {
	setup := xproto.Setup(c.XUtil.Conn())
	for i, s := range setup.Roots {
		if s.Root == root {
			return i
		}
	}
	return 0
}

// poll calls done every PollInterval until it reports true or MaxTries is
// exhausted.
func (c *Connection) poll(what string, done func() (bool, error)) error {
	for i := 0; i < c.opts.MaxTries; i++ {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		time.Sleep(c.opts.PollInterval)
	}
	return fmt.Errorf("timed out waiting for %s after %d tries", what, c.opts.MaxTries)
}
