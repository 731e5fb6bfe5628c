package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/deskctl/internal/automation"
)

func (s *Server) registerTools() {
	for _, cmd := range automation.Commands() {
		mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
			Name:        ToolName(cmd.Name),
			Description: toolDescription(cmd),
			InputSchema: inputSchema(cmd),
		}, s.commandHandler(cmd))
	}
}

func toolDescription(cmd *automation.Command) string {
	if cmd.Mode == automation.Async {
		return cmd.Summary + ". Returns once the change is observable on the display."
	}
	return cmd.Summary + "."
}

// ToolName converts a command name to its tool name: mouseMove becomes
// mouse_move and getPIDWindow becomes get_pid_window.
func ToolName(command string) string {
	runes := []rune(command)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func (s *Server) commandHandler(cmd *automation.Command) mcpsdk.ToolHandlerFor[map[string]any, CommandOutput] {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, input map[string]any) (*mcpsdk.CallToolResult, CommandOutput, error) {
		args, err := positionalArgs(cmd, input)
		if err != nil {
			return nil, CommandOutput{}, err
		}

		out, err := s.invoker.Invoke(cmd.Name, args)
		if err != nil {
			s.logger.Debug("tool call failed", zap.String("command", cmd.Name), zap.Error(err))
			return nil, CommandOutput{}, err
		}

		// Tool calls are synchronous from the client's point of view.
		res, err := out.Wait(ctx)
		if err != nil {
			return nil, CommandOutput{}, fmt.Errorf("%s: %w", cmd.Name, err)
		}

		return nil, CommandOutput{
			Command: cmd.Name,
			Value:   res.Value,
			Result:  res.Data,
		}, nil
	}
}

// positionalArgs orders named tool arguments by cmd's parameter list.
// Trailing absent arguments are dropped; absent ones in between become nil.
func positionalArgs(cmd *automation.Command, input map[string]any) (automation.Args, error) {
	known := make(map[string]bool, len(cmd.Params))
	for _, p := range cmd.Params {
		known[p.Name] = true
	}
	var unknown []string
	for name := range input {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s: unknown argument(s): %s", cmd.Name, strings.Join(unknown, ", "))
	}

	args := make(automation.Args, len(cmd.Params))
	last := -1
	for i, p := range cmd.Params {
		v, ok := input[p.Name]
		if !ok {
			continue
		}
		args[i] = v
		last = i
	}
	return args[:last+1], nil
}
