package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/1broseidon/deskctl/internal/automation"
)

// Built-in daemon commands. Every other command name is dispatched to the
// automation command table.
const (
	CommandPing         = "PING"
	CommandGetStatus    = "GET_STATUS"
	CommandListCommands = "LIST_COMMANDS"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
	// Args are positional: a missing trailing entry is absent, null is "no value".
	Args []any `json:"args,omitempty"`
	// NoWait replies as soon as an async command has issued its mutating call.
	NoWait bool `json:"no_wait,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status    string          `json:"status"` // "OK" or "ERROR"
	ID        string          `json:"id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
}

// CommandData is the data of a dispatched command.
type CommandData struct {
	Command string `json:"command"`
	Value   int64  `json:"value"`
	Result  any    `json:"result,omitempty"`
	Pending bool   `json:"pending,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	PID           int    `json:"pid"`
	SocketPath    string `json:"socket_path"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	Served        int64  `json:"served"`
}

// ParamInfo describes one positional argument.
type ParamInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

// CommandInfo describes one automation command.
type CommandInfo struct {
	Name    string      `json:"name"`
	Summary string      `json:"summary"`
	Mode    string      `json:"mode"`
	Params  []ParamInfo `json:"params"`
}

// CommandsData represents the data returned by LIST_COMMANDS
type CommandsData struct {
	Commands []CommandInfo `json:"commands"`
}

// DescribeCommands lists the automation command table.
func DescribeCommands() CommandsData {
	cmds := automation.Commands()
	out := CommandsData{Commands: make([]CommandInfo, 0, len(cmds))}
	for _, cmd := range cmds {
		info := CommandInfo{Name: cmd.Name, Summary: cmd.Summary, Mode: cmd.Mode.String()}
		for _, p := range cmd.Params {
			info.Params = append(info.Params, ParamInfo{Name: p.Name, Kind: p.Kind.String(), Required: p.Required()})
		}
		out.Commands = append(out.Commands, info)
	}
	return out
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(id string, data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = raw
	}

	return &Response{
		Status: StatusOK,
		ID:     id,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response carrying err's kind.
func NewErrorResponse(id string, err error) *Response {
	resp := &Response{
		Status: StatusError,
		ID:     id,
		Error:  err.Error(),
	}
	if kind := automation.KindOf(err); kind != automation.KindUnknown {
		resp.ErrorKind = kind.String()
	}
	return resp
}

// ParseRequest parses a request from JSON bytes. Numbers are kept as
// json.Number so window ids survive without float rounding.
func ParseRequest(data []byte) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// RemoteError is a command failure reported by the daemon. It unwraps to an
// *automation.Error of the same kind, so errors.Is against the automation
// sentinels and automation.KindOf work across the socket.
type RemoteError struct {
	Kind    automation.Kind
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error {
	if e.Kind == automation.KindUnknown {
		return nil
	}
	return &automation.Error{Kind: e.Kind}
}
