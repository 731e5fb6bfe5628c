package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/deskctl/internal/platform"
	"github.com/1broseidon/deskctl/internal/platform/platformtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitOutcome(t *testing.T, out *Outcome) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := out.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestInvoke_KeyDownUsesDefaultsForOmittedArgs(t *testing.T) {
	op := platformtest.NewOpener()
	d := NewDispatcher(op)

	out, err := d.Invoke("keyDown", Args{"a"})
	require.NoError(t, err)

	assert.False(t, out.Pending())
	assert.Equal(t, int64(0), out.Result.Value)
	assert.Equal(t, []string{""}, op.Opened(), "default display is requested as empty name")
	assert.Equal(t, []string{`SendKeySequence(0,"a",down,0s)`}, op.Backend.Calls())
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestInvoke_ExplicitNoValueMatchesOmitted(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args Args
		want string
	}{
		{"key window nil", "keyPress", Args{"Return", nil, nil, nil}, `SendKeySequence(0,"Return",press,0s)`},
		{"click window nil", "clickWindow", Args{1, nil}, "ClickWindow(0,1)"},
		{"mouse down explicit", "mouseDown", Args{3, 77}, "MouseDown(77,3)"},
		{"key delay", "keyUp", Args{"ctrl+c", 12, ":0", 1500}, `SendKeySequence(12,"ctrl+c",up,1.5ms)`},
		{"minimize current", "minimizeWindow", Args{}, "MinimizeWindow(0)"},
		{"desktop for window", "getDesktopForWindow", Args{nil}, "DesktopForWindow(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := platformtest.NewOpener()
			_, err := NewDispatcher(op).Invoke(tt.cmd, tt.args)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, op.Backend.Calls())
		})
	}
}

func TestInvoke_NulInKeySequenceNeverReachesBackend(t *testing.T) {
	op := platformtest.NewOpener()
	d := NewDispatcher(op)

	_, err := d.Invoke("keyPress", Args{"a\x00b"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrValidation))
	var nul *NulError
	require.ErrorAs(t, err, &nul)
	assert.Equal(t, 1, nul.Pos)
	assert.Empty(t, op.Opened())
	assert.Empty(t, op.Backend.Calls())
}

func TestInvoke_NulInDisplayIsValidationError(t *testing.T) {
	op := platformtest.NewOpener()
	_, err := NewDispatcher(op).Invoke("getActiveWindow", Args{":0\x00"})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, op.Opened())
}

func TestInvoke_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args Args
	}{
		{"unknown command", "teleport", nil},
		{"missing keys", "keyDown", Args{}},
		{"keys not a string", "keyDown", Args{42}},
		{"button not a number", "mouseDown", Args{"left"}},
		{"negative delay", "keyPress", Args{"a", nil, nil, -1}},
		{"missing y", "mouseMoveRelative", Args{10}},
		{"missing window id", "activateWindow", Args{}},
		{"nil window id", "killWindow", Args{nil}},
		{"display not a string", "getFocusedWindow", Args{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := platformtest.NewOpener()
			_, err := NewDispatcher(op).Invoke(tt.cmd, tt.args)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Empty(t, op.Opened())
		})
	}
}

func TestInvoke_ConnectionRefused(t *testing.T) {
	op := platformtest.NewOpener()
	op.Refuse = true

	_, err := NewDispatcher(op).Invoke("getActiveWindow", Args{":9"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), `":9"`)
	assert.Empty(t, op.Backend.Calls())
}

func TestInvoke_GetPIDWindowInvalidPID(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.PID = -1

	_, err := NewDispatcher(op).Invoke("getPIDWindow", Args{0})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrInvalidPID)
	assert.False(t, errors.Is(err, ErrLibraryCall))
	assert.Equal(t, "getPIDWindow: invalid pid : (-1)", err.Error())
	assert.Equal(t, []string{"PIDWindow(0)"}, op.Backend.Calls())
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestInvoke_GetPIDWindow(t *testing.T) {
	op := platformtest.NewOpener()

	out, err := NewDispatcher(op).Invoke("getPIDWindow", Args{float64(0x1a00003)})
	require.NoError(t, err)

	assert.Equal(t, int64(4242), out.Result.Value)
	assert.Equal(t, []string{fmt.Sprintf("PIDWindow(%d)", 0x1a00003)}, op.Backend.Calls())
}

func TestInvoke_RawStatusPassesThrough(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["KillWindow"] = &platform.StatusError{Code: 3}

	out, err := NewDispatcher(op).Invoke("killWindow", Args{99})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Result.Value)
}

func TestInvoke_StrictStatusTurnsNonzeroIntoError(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["KillWindow"] = &platform.StatusError{Code: 3}

	_, err := NewDispatcher(op, WithStrictStatus(true)).Invoke("killWindow", Args{99})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLibraryCall)
	assert.Equal(t, "killWindow: failed to kill_window : 3", err.Error())
}

func TestInvoke_QueryFailureIsLibraryError(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["ActiveWindow"] = errors.New("no _NET_ACTIVE_WINDOW")

	_, err := NewDispatcher(op).Invoke("getActiveWindow", nil)
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindLibraryCall, e.Kind)
	assert.Equal(t, "get_active_window", e.Call)
	assert.Equal(t, platform.StatusFailure, e.Code)
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestInvoke_Queries(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Active = 0x2c00007
	op.Backend.Pointer = platform.Pointer{X: 5, Y: 6, Screen: 1}
	d := NewDispatcher(op)

	out, err := d.Invoke("getActiveWindow", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0x2c00007), out.Result.Value)

	out, err = d.Invoke("getMouseLocation", nil)
	require.NoError(t, err)
	assert.Equal(t, Location{X: 5, Y: 6, Screen: 1}, out.Result.Data)

	out, err = d.Invoke("getWindowName", Args{12})
	require.NoError(t, err)
	assert.Equal(t, "xterm", out.Result.Data)

	out, err = d.Invoke("getCurrentDesktop", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Result.Value)

	out, err = d.Invoke("getDisplays", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Result.Value)
	monitors, ok := out.Result.Data.([]Monitor)
	require.True(t, ok)
	assert.Equal(t, "HDMI-1", monitors[1].Name)
	assert.Equal(t, 1920, monitors[1].X)

	assert.Equal(t, int32(5), op.Backend.Closed.Load())
}

func TestInvoke_MouseMoveRelativeCompletesAfterPointerMoves(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Pointer = platform.Pointer{X: 100, Y: 200}
	op.Backend.Gate = make(chan struct{})
	d := NewDispatcher(op)

	out, err := d.Invoke("mouseMoveRelative", Args{10, -5})
	require.NoError(t, err)

	assert.True(t, out.Pending())
	assert.Equal(t, []string{"MouseLocation()", "MoveMouseRelative(10,-5)"}, op.Backend.Calls())
	assert.Equal(t, int32(0), op.Backend.Closed.Load(), "session stays open during the wait")

	close(op.Backend.Gate)
	res := waitOutcome(t, out)

	assert.Equal(t, int64(0), res.Value)
	assert.Equal(t, []string{
		"MouseLocation()",
		"MoveMouseRelative(10,-5)",
		"WaitForMouseMoveFrom(100,200,0)",
	}, op.Backend.Calls())
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestInvoke_MouseMoveOmittedScreenMatchesZero(t *testing.T) {
	omitted := platformtest.NewOpener()
	explicit := platformtest.NewOpener()

	a, err := NewDispatcher(omitted).Invoke("mouseMove", Args{300, 400})
	require.NoError(t, err)
	b, err := NewDispatcher(explicit).Invoke("mouseMove", Args{300, 400, 0})
	require.NoError(t, err)

	waitOutcome(t, a)
	waitOutcome(t, b)
	assert.Equal(t, explicit.Backend.Calls(), omitted.Backend.Calls())
	assert.Contains(t, omitted.Backend.Calls(), "MoveMouse(300,400,0)")
}

func TestInvoke_MouseMoveRelativeToWindowDefaultsToCurrent(t *testing.T) {
	op := platformtest.NewOpener()

	out, err := NewDispatcher(op).Invoke("mouseMoveRelativeToWindow", Args{4, 8})
	require.NoError(t, err)
	waitOutcome(t, out)

	assert.Contains(t, op.Backend.Calls(), "MoveMouseRelativeToWindow(0,4,8)")
}

func TestInvoke_ActivateWindowAlreadyActive(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Active = 12345

	out, err := NewDispatcher(op).Invoke("activateWindow", Args{12345})
	require.NoError(t, err)

	res := waitOutcome(t, out)
	assert.Equal(t, int64(0), res.Value)
	assert.Equal(t, []string{"ActivateWindow(12345)", "WaitForWindowActive(12345)"}, op.Backend.Calls())
}

func TestInvoke_FocusWindowRawFailureStillWaits(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["FocusWindow"] = &platform.StatusError{Code: 1}
	op.Backend.Fail["WaitForWindowFocus"] = errors.New("timed out")

	out, err := NewDispatcher(op).Invoke("focusWindow", Args{7})
	require.NoError(t, err)

	res := waitOutcome(t, out)
	assert.Equal(t, int64(1), res.Value, "raw status survives the wait")
	assert.Equal(t, []string{"FocusWindow(7)", "WaitForWindowFocus(7)"}, op.Backend.Calls())
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestInvoke_MouseMoveFailureIsLibraryError(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["MoveMouse"] = &platform.StatusError{Code: 2}

	_, err := NewDispatcher(op).Invoke("mouseMove", Args{1, 1})
	require.Error(t, err)

	assert.Equal(t, "mouseMove: failed to move_mouse : 2", err.Error())
	assert.Equal(t, []string{"MouseLocation()", "MoveMouse(1,1,0)"}, op.Backend.Calls())
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestInvoke_OriginCaptureFailure(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["MouseLocation"] = errors.New("query pointer")

	_, err := NewDispatcher(op).Invoke("mouseMoveRelative", Args{1, 1})
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "get_mouse_location", e.Call)
	assert.Equal(t, []string{"MouseLocation()"}, op.Backend.Calls())
}

func TestInvoke_WaitErrorStillCompletes(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Fail["WaitForWindowFocus"] = errors.New("timed out")

	out, err := NewDispatcher(op).Invoke("focusWindow", Args{7})
	require.NoError(t, err)

	res := waitOutcome(t, out)
	assert.Equal(t, int64(0), res.Value)
	assert.Equal(t, int32(1), op.Backend.Closed.Load())
}

func TestOutcome_WaitHonoursContext(t *testing.T) {
	op := platformtest.NewOpener()
	op.Backend.Gate = make(chan struct{})
	d := NewDispatcher(op)

	out, err := d.Invoke("focusWindow", Args{7})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = out.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, out.Pending())

	close(op.Backend.Gate)
	require.NoError(t, d.Drain(context.Background()))
	assert.False(t, out.Pending())
}

func TestDrain_RejectsAsyncCommandsAfterwards(t *testing.T) {
	op := platformtest.NewOpener()
	d := NewDispatcher(op)
	require.NoError(t, d.Drain(context.Background()))

	_, err := d.Invoke("focusWindow", Args{7})
	require.ErrorIs(t, err, ErrDraining)
	assert.Empty(t, op.Backend.Calls(), "nothing reaches the backend once draining")
	assert.Equal(t, int32(1), op.Backend.Closed.Load(), "the session is still released")

	out, err := d.Invoke("getFocusedWindow", nil)
	require.NoError(t, err, "sync commands are unaffected")
	assert.False(t, out.Pending())
}

func TestDrain_ConcurrentWithInvoke(t *testing.T) {
	for round := 0; round < 200; round++ {
		op := platformtest.NewOpener()
		d := NewDispatcher(op)

		var (
			g   errgroup.Group
			out *Outcome
		)
		g.Go(func() error {
			var err error
			out, err = d.Invoke("focusWindow", Args{7})
			if errors.Is(err, ErrDraining) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return d.Drain(ctx)
		})
		require.NoError(t, g.Wait())

		// Any wait that was accepted finished before Drain returned.
		if out != nil {
			assert.False(t, out.Pending(), "round %d", round)
		}
		assert.Equal(t, int32(1), op.Backend.Closed.Load(), "round %d", round)
	}
}

func TestInvoke_ActionLog(t *testing.T) {
	tests := []struct {
		name        string
		includeKeys bool
		wantKeys    bool
	}{
		{"keys hidden", false, false},
		{"keys included", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := NewDispatcher(platformtest.NewOpener(), WithActionLog(rec, tt.includeKeys))

			_, err := d.Invoke("keyPress", Args{"ctrl+l", 9})
			require.NoError(t, err)

			require.Equal(t, []string{"keyPress"}, rec.actions)
			entry := rec.entries[0]
			assert.Equal(t, uint32(9), entry["window"])
			assert.Equal(t, "default", entry["display"])
			assert.Equal(t, int64(0), entry["value"])
			_, hasKeys := entry["keys"]
			assert.Equal(t, tt.wantKeys, hasKeys)
		})
	}
}

func TestInvoke_ConcurrentInvocationsUseSeparateSessions(t *testing.T) {
	op := platformtest.NewOpener()
	d := NewDispatcher(op)

	const n = 16
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			name := "getFocusedWindow"
			args := Args{}
			if i%2 == 0 {
				name = "mouseMoveRelative"
				args = Args{i, i}
			}
			out, err := d.Invoke(name, args)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err = out.Wait(ctx)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, d.Drain(context.Background()))

	assert.Len(t, op.Opened(), n)
	assert.Equal(t, int32(n), op.Backend.Closed.Load())
}

func TestCommands_TableIsConsistent(t *testing.T) {
	cmds := Commands()
	require.Len(t, cmds, 23)

	for _, cmd := range cmds {
		t.Run(cmd.Name, func(t *testing.T) {
			assert.NotEmpty(t, cmd.Summary)
			assert.NotEmpty(t, cmd.Call)
			last := cmd.Params[len(cmd.Params)-1]
			if cmd.Params[0].Kind != ParamKeySequence {
				assert.Equal(t, ParamDisplay, last.Kind)
			}
			switch cmd.Mode {
			case Sync:
				assert.NotNil(t, cmd.Exec)
				assert.Nil(t, cmd.Mutate)
			case Async:
				assert.Nil(t, cmd.Exec)
				assert.NotNil(t, cmd.Mutate)
				assert.NotNil(t, cmd.Wait)
			}
			got, ok := Lookup(cmd.Name)
			require.True(t, ok)
			assert.Same(t, cmd, got)
		})
	}
}
