package automation

import (
	"context"
)

// Result is what a command produced. Value is the status code, pid, window
// id or desktop index; Data carries structured results.
type Result struct {
	Value int64 `json:"value" yaml:"value"`
	Data  any   `json:"result,omitempty" yaml:"result,omitempty"`
}

// Location is a pointer position.
type Location struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Screen int `json:"screen" yaml:"screen"`
}

// Monitor is one physical display.
type Monitor struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	X       int    `json:"x" yaml:"x"`
	Y       int    `json:"y" yaml:"y"`
	Width   int    `json:"width" yaml:"width"`
	Height  int    `json:"height" yaml:"height"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// Outcome is the handle a caller gets back from Invoke. For Sync commands it
// is already complete. For Async commands Result holds the status of the
// mutating call from the moment Invoke returns, and Done closes once the
// background wait has finished and the session is released.
type Outcome struct {
	ID      string
	Command string
	Mode    Mode
	Result  Result

	done chan struct{}
}

func newOutcome(id string, cmd *Command, res Result) *Outcome {
	return &Outcome{
		ID:      id,
		Command: cmd.Name,
		Mode:    cmd.Mode,
		Result:  res,
		done:    make(chan struct{}),
	}
}

func completedOutcome(id string, cmd *Command, res Result) *Outcome {
	o := newOutcome(id, cmd, res)
	close(o.done)
	return o
}

// Done is closed when the outcome is complete.
func (o *Outcome) Done() <-chan struct{} { return o.done }

// Pending reports whether the background wait is still running.
func (o *Outcome) Pending() bool {
	select {
	case <-o.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the outcome completes or ctx ends. Ending ctx stops the
// caller from waiting; it does not cancel the background wait.
func (o *Outcome) Wait(ctx context.Context) (Result, error) {
	select {
	case <-o.done:
		return o.Result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
