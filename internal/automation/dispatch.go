package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1broseidon/deskctl/internal/platform"
)

// ErrDraining is returned for async commands once Drain has been called.
var ErrDraining = errors.New("dispatcher is draining; no new completion waits are accepted")

// ActionRecorder receives one entry per dispatched command.
type ActionRecorder interface {
	Log(action string, details map[string]interface{})
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithActionLog records every command that reached the backend. Key sequences
// are only included when includeKeys is set.
func WithActionLog(rec ActionRecorder, includeKeys bool) Option {
	return func(d *Dispatcher) {
		d.actions = rec
		d.includeKeys = includeKeys
	}
}

// WithStrictStatus makes every nonzero backend status a LibraryCallError,
// including commands that otherwise report it as their value.
func WithStrictStatus(strict bool) Option {
	return func(d *Dispatcher) { d.strict = strict }
}

// Dispatcher runs commands against sessions it opens through an Opener. It
// holds no per-invocation state; Invoke is safe for concurrent use.
type Dispatcher struct {
	opener      platform.Opener
	logger      *zap.Logger
	actions     ActionRecorder
	includeKeys bool
	strict      bool

	// mu orders pending.Add against Drain setting draining.
	mu       sync.Mutex
	draining bool
	pending  sync.WaitGroup
}

// NewDispatcher creates a Dispatcher over opener.
func NewDispatcher(opener platform.Opener, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		opener: opener,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoke runs the named command. Sync commands are complete when Invoke
// returns. Async commands return as soon as the mutating call has been
// issued; the returned Outcome completes when the backend wait finishes.
func (d *Dispatcher) Invoke(name string, args Args) (*Outcome, error) {
	cmd, ok := Lookup(name)
	if !ok {
		return nil, validationError(name, fmt.Errorf("unknown command %q", name))
	}

	call, err := Normalize(cmd, args)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := d.logger.With(
		zap.String("invocation", id),
		zap.String("command", cmd.Name),
		zap.Stringer("display", call.Display),
	)

	sess, err := OpenSession(d.opener, cmd.Name, call.Display)
	if err != nil {
		log.Debug("open session failed", zap.Error(err))
		return nil, err
	}

	if cmd.Mode == Async {
		return d.invokeAsync(id, cmd, call, sess, log)
	}
	return d.invokeSync(id, cmd, call, sess, log)
}

func (d *Dispatcher) invokeSync(id string, cmd *Command, call Call, sess *Session, log *zap.Logger) (*Outcome, error) {
	defer sess.Release()

	b, err := sess.Backend()
	if err != nil {
		return nil, err
	}

	res, callErr := cmd.Exec(b, call)
	res, err = d.translate(cmd, res, callErr)
	d.record(cmd, call, res, err)
	if err != nil {
		log.Debug("command failed", zap.Error(err))
		return nil, err
	}

	log.Debug("command done", zap.Int64("value", res.Value))
	return completedOutcome(id, cmd, res), nil
}

// hold registers a background wait, or reports false once Drain has begun.
func (d *Dispatcher) hold() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draining {
		return false
	}
	d.pending.Add(1)
	return true
}

func (d *Dispatcher) invokeAsync(id string, cmd *Command, call Call, sess *Session, log *zap.Logger) (*Outcome, error) {
	if !d.hold() {
		sess.Release()
		return nil, ErrDraining
	}
	started := false
	defer func() {
		if !started {
			d.pending.Done()
		}
	}()

	b, err := sess.Backend()
	if err != nil {
		sess.Release()
		return nil, err
	}

	var origin platform.Pointer
	if cmd.CaptureOrigin {
		origin, err = b.MouseLocation()
		if err != nil {
			sess.Release()
			return nil, libraryError(cmd.Name, "get_mouse_location", platform.Status(err), err)
		}
	}

	mutateErr := cmd.Mutate(b, call)
	res, err := d.translate(cmd, Result{}, mutateErr)
	d.record(cmd, call, res, err)
	if err != nil {
		sess.Release()
		log.Debug("mutating call failed", zap.Error(err))
		return nil, err
	}
	if mutateErr != nil {
		// The wait still runs; its result is discarded either way.
		log.Debug("mutating call returned nonzero status", zap.Int64("status", res.Value))
	}

	out := newOutcome(id, cmd, res)
	started = true
	go func() {
		defer d.pending.Done()
		defer close(out.done)
		defer sess.Release()

		if err := cmd.Wait(b, call, origin); err != nil {
			log.Debug("completion wait ended without observing the change", zap.Error(err))
			return
		}
		log.Debug("command done", zap.Int64("value", res.Value))
	}()
	return out, nil
}

// translate applies the status policy to what a command returned.
func (d *Dispatcher) translate(cmd *Command, res Result, err error) (Result, error) {
	if err == nil {
		return res, nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return Result{}, typed
	}

	code := platform.Status(err)
	if cmd.Returns == ReturnsValue || cmd.Strict || d.strict {
		return Result{}, libraryError(cmd.Name, cmd.Call, code, err)
	}
	return Result{Value: int64(code)}, nil
}

func (d *Dispatcher) record(cmd *Command, call Call, res Result, err error) {
	if d.actions == nil {
		return
	}
	details := map[string]interface{}{
		"display": call.Display.String(),
	}
	for _, p := range cmd.Params {
		switch p.Kind {
		case ParamKeySequence:
			if d.includeKeys {
				details["keys"] = call.Sequence
			}
		case ParamButton:
			details["button"] = call.Button
		case ParamCoord:
			details["x"] = call.X
			details["y"] = call.Y
		case ParamScreen:
			details["screen"] = call.Screen
		case ParamWindowTarget, ParamWindowOptional, ParamWindowRequired:
			details["window"] = uint32(call.Target())
		}
	}
	if err != nil {
		details["error"] = KindOf(err).String()
	} else {
		details["value"] = res.Value
	}
	d.actions.Log(cmd.Name, details)
}

// Drain stops accepting async commands, then blocks until every background
// wait has finished or ctx ends.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	d.draining = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
