package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor is one enabled RandR CRTC and the output driving it.
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// Monitors lists the enabled CRTCs of the default screen, primary first and
// then left to right.
func (c *Connection) Monitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	res, err := randr.GetScreenResourcesCurrent(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	monitors := make([]Monitor, 0, len(res.Crtcs))
	for idx, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to query crtc %d: %w", crtc, err)
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		m := Monitor{
			ID:     idx,
			Name:   c.outputName(info.Outputs[0], res.ConfigTimestamp, idx),
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		}
		for _, out := range info.Outputs {
			if primary != 0 && out == primary {
				m.Primary = true
			}
		}
		monitors = append(monitors, m)
	}

	sort.SliceStable(monitors, func(i, j int) bool {
		if monitors[i].Primary != monitors[j].Primary {
			return monitors[i].Primary
		}
		if monitors[i].X != monitors[j].X {
			return monitors[i].X < monitors[j].X
		}
		return monitors[i].Y < monitors[j].Y
	})
	return monitors, nil
}

// outputName falls back to "CRTC<n>" when the output cannot be queried.
func (c *Connection) outputName(out randr.Output, ts xproto.Timestamp, idx int) string {
	info, err := randr.GetOutputInfo(c.XUtil.Conn(), out, ts).Reply()
	if err != nil || len(info.Name) == 0 {
		return fmt.Sprintf("CRTC%d", idx)
	}
	return string(info.Name)
}
