package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/deskctl/internal/automation"
)

const (
	ServerName    = "deskctl"
	ServerVersion = "0.1.0"
)

// Invoker runs automation commands. *automation.Dispatcher implements it.
type Invoker interface {
	Invoke(name string, args automation.Args) (*automation.Outcome, error)
}

// Server exposes the automation command table as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	invoker   Invoker
	logger    *zap.Logger
}

// NewServer creates a new MCP server that dispatches through invoker.
func NewServer(invoker Invoker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		invoker: invoker,
		logger:  logger.Named("mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over t. Used by tests with in-memory
// transports.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}
