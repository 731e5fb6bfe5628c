package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/deskctl/internal/automation"
	"github.com/1broseidon/deskctl/internal/runtimepath"
)

// DefaultTimeout bounds dialing and the built-in requests. Command
// invocations are only bounded while dialing: a command returns when the
// backend is done, however long its key delays or completion wait take.
const DefaultTimeout = 5 * time.Second

// Client sends one request per connection to the daemon socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or the default socket when empty.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		// A failure here surfaces as a ConnectError on the first request.
		socketPath, _ = runtimepath.SocketPath()
	}
	return &Client{socketPath: socketPath, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of c using timeout for dialing and built-in
// requests.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	cp := *c
	cp.timeout = timeout
	return &cp
}

// ConnectError reports that the daemon could not be reached.
type ConnectError struct {
	SocketPath string
	Err        error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to daemon at %s: %v (is the daemon running?)", e.SocketPath, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// roundTrip writes req as one JSON line and reads one JSON line back. The
// exchange after dialing is bounded by c.timeout only when bounded is set.
func (c *Client) roundTrip(req *Request, bounded bool) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, &ConnectError{SocketPath: c.socketPath, Err: err}
	}
	defer conn.Close()
	if bounded {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	// Encoder terminates each value with '\n', which is the frame delimiter.
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send %s request: %w", req.Command, err)
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Command, err)
	}

	resp := new(Response)
	if err := json.Unmarshal(line, resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", req.Command, err)
	}
	switch {
	case resp.ID != "" && resp.ID != req.ID:
		return nil, fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	case resp.Status == StatusError:
		return nil, &RemoteError{Kind: automation.ParseKind(resp.ErrorKind), Message: resp.Error}
	}
	return resp, nil
}

// call performs req and decodes the response data into out, when non-nil.
// Only built-in requests are bounded by c.timeout.
func (c *Client) call(req *Request, out any) error {
	resp, err := c.roundTrip(req, isBuiltin(req.Command))
	if err != nil || out == nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", req.Command, err)
	}
	return nil
}

func isBuiltin(command string) bool {
	switch command {
	case CommandPing, CommandGetStatus, CommandListCommands:
		return true
	}
	return false
}

// Ping checks that the daemon answers.
func (c *Client) Ping() error {
	return c.call(&Request{Command: CommandPing}, nil)
}

// GetStatus retrieves daemon status.
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(&Request{Command: CommandGetStatus}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListCommands retrieves the daemon's command table.
func (c *Client) ListCommands() (*CommandsData, error) {
	var cmds CommandsData
	if err := c.call(&Request{Command: CommandListCommands}, &cmds); err != nil {
		return nil, err
	}
	return &cmds, nil
}

// Invoke runs an automation command in the daemon. Unless noWait is set the
// reply arrives after an async command has completed.
func (c *Client) Invoke(command string, args []any, noWait bool) (*CommandData, error) {
	var data CommandData
	if err := c.call(&Request{Command: command, Args: args, NoWait: noWait}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
