package mcp

import (
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/deskctl/internal/automation"
	"github.com/1broseidon/deskctl/internal/platform"
	"github.com/1broseidon/deskctl/internal/platform/platformtest"
)

func connect(t *testing.T) (*platformtest.Opener, *mcpsdk.ClientSession) {
	t.Helper()
	op := platformtest.NewOpener()
	srv := NewServer(automation.NewDispatcher(op), nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := srv.Connect(t.Context(), serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	cs, err := client.Connect(t.Context(), clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })

	return op, cs
}

func call(t *testing.T, cs *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(t.Context(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcpsdk.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestToolName(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"keyDown", "key_down"},
		{"mouseMoveRelativeToWindow", "mouse_move_relative_to_window"},
		{"getPIDWindow", "get_pid_window"},
		{"getDisplays", "get_displays"},
	}
	for _, tt := range tests {
		if got := ToolName(tt.command); got != tt.want {
			t.Errorf("ToolName(%q) = %q, want %q", tt.command, got, tt.want)
		}
	}
}

func TestPositionalArgs(t *testing.T) {
	cmd, ok := automation.Lookup("mouseMoveRelativeToWindow")
	require.True(t, ok)

	args, err := positionalArgs(cmd, map[string]any{"x": 1.0, "y": 2.0, "display": ":1"})
	require.NoError(t, err)
	assert.Equal(t, automation.Args{1.0, 2.0, nil, ":1"}, args)

	args, err = positionalArgs(cmd, map[string]any{"x": 1.0, "y": 2.0})
	require.NoError(t, err)
	assert.Equal(t, automation.Args{1.0, 2.0}, args)

	_, err = positionalArgs(cmd, map[string]any{"x": 1.0, "y": 2.0, "z": 3.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown argument(s): z")
}

func TestInputSchema(t *testing.T) {
	cmd, ok := automation.Lookup("keyPress")
	require.True(t, ok)

	schema := inputSchema(cmd)
	assert.Equal(t, []string{"keys"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["keys"].Type)
	assert.Equal(t, []string{"integer", "null"}, schema.Properties["window"].Types)
	assert.Equal(t, []string{"integer", "null"}, schema.Properties["delay"].Types)
	assert.Equal(t, []string{"string", "null"}, schema.Properties["display"].Types)
}

func TestServer_ListTools(t *testing.T) {
	_, cs := connect(t)

	res, err := cs.ListTools(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, len(automation.Commands()))

	names := map[string]string{}
	for _, tool := range res.Tools {
		names[tool.Name] = tool.Description
	}
	assert.Contains(t, names, "get_pid_window")
	assert.Contains(t, names["activate_window"], "observable")
	assert.NotContains(t, names["key_down"], "observable")
}

func TestServer_CallSyncTool(t *testing.T) {
	op, cs := connect(t)

	res := call(t, cs, "key_down", map[string]any{"keys": "a"})
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"command":"keyDown"`)
	assert.Equal(t, []string{`SendKeySequence(0,"a",down,0s)`}, op.Backend.Calls())
}

func TestServer_CallAsyncToolWaitsForCompletion(t *testing.T) {
	op, cs := connect(t)

	res := call(t, cs, "activate_window", map[string]any{"windowId": 5})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, []string{"ActivateWindow(5)", "WaitForWindowActive(5)"}, op.Backend.Calls())
}

func TestServer_QueryResult(t *testing.T) {
	op, cs := connect(t)
	op.Backend.Pointer = platform.Pointer{X: 10, Y: 20, Screen: 1}

	res := call(t, cs, "get_mouse_location", map[string]any{})
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"result":{"x":10,"y":20,"screen":1}`)
}

func TestServer_ToolErrors(t *testing.T) {
	op, cs := connect(t)
	op.Backend.PID = -1

	res := call(t, cs, "get_pid_window", map[string]any{"windowId": 1})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "invalid pid")

	res = call(t, cs, "key_up", map[string]any{"keys": "a\x00"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "nul byte found")
}

func TestServer_RejectsUnknownArguments(t *testing.T) {
	op, cs := connect(t)

	res, err := cs.CallTool(t.Context(), &mcpsdk.CallToolParams{
		Name:      "get_active_window",
		Arguments: map[string]any{"bogus": 1},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
	assert.Empty(t, op.Backend.Calls())
}
