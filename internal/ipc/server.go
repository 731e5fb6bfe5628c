package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/deskctl/internal/automation"
)

// Invoker runs automation commands. *automation.Dispatcher implements it.
type Invoker interface {
	Invoke(name string, args automation.Args) (*automation.Outcome, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	invoker    Invoker
	logger     *zap.Logger
	startTime  time.Time
	served     atomic.Int64

	// ctx ends pending completion waits when the server stops.
	ctx    context.Context
	cancel context.CancelFunc

	handlers     sync.WaitGroup
	connMu       sync.Mutex
	conns        map[net.Conn]struct{}
	shuttingDown bool
}

// NewServer creates a new IPC server on socketPath.
func NewServer(socketPath string, invoker Invoker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		invoker:    invoker,
		logger:     logger.Named("ipc"),
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		conns:      make(map[net.Conn]struct{}),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a previous daemon.
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", zap.String("socket", s.socketPath))

	s.handlers.Add(1)
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.handlers.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", zap.Error(err))
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return
		}
		s.handlers.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) stopping() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.shuttingDown
}

func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.shuttingDown {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, conn)
}

// handleConnection serves newline-delimited requests until the client hangs up.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.handlers.Done()
	defer s.untrack(conn)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		data, err := reader.ReadBytes('\n')
		if len(data) > 0 {
			resp := s.handleLine(data)
			if werr := s.writeResponse(conn, resp); werr != nil {
				s.logger.Debug("failed to send response", zap.Error(werr))
				return
			}
		}
		if err != nil {
			if err != io.EOF && !s.stopping() {
				s.logger.Debug("IPC read error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) handleLine(data []byte) *Response {
	req, err := ParseRequest(data)
	if err != nil {
		return &Response{Status: StatusError, Error: fmt.Sprintf("Invalid request: %v", err)}
	}
	s.served.Add(1)
	return s.handleCommand(req)
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		resp, _ := NewOKResponse(req.ID, map[string]string{"pong": "deskctl"})
		return resp
	case CommandGetStatus:
		return s.handleGetStatus(req)
	case CommandListCommands:
		resp, _ := NewOKResponse(req.ID, DescribeCommands())
		return resp
	default:
		return s.handleInvoke(req)
	}
}

func (s *Server) handleGetStatus(req *Request) *Response {
	status := StatusData{
		PID:           os.Getpid(),
		SocketPath:    s.socketPath,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		Served:        s.served.Load(),
	}
	resp, _ := NewOKResponse(req.ID, status)
	return resp
}

func (s *Server) handleInvoke(req *Request) *Response {
	log := s.logger.With(zap.String("request", req.ID), zap.String("command", req.Command))

	out, err := s.invoker.Invoke(req.Command, automation.Args(req.Args))
	if err != nil {
		log.Debug("command failed", zap.Error(err))
		return NewErrorResponse(req.ID, err)
	}

	res := out.Result
	if !req.NoWait {
		res, err = out.Wait(s.ctx)
		if err != nil {
			return NewErrorResponse(req.ID, fmt.Errorf("%s: daemon shutting down before completion: %w", req.Command, err))
		}
	}

	resp, err := NewOKResponse(req.ID, CommandData{
		Command: out.Command,
		Value:   res.Value,
		Result:  res.Data,
		Pending: out.Pending(),
	})
	if err != nil {
		return NewErrorResponse(req.ID, err)
	}
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) error {
	respData, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	respData = append(respData, '\n')
	_, err = conn.Write(respData)
	return err
}

// Stop closes the listener and every open connection, and waits for the
// handlers to return. Pending waits end with an error reply.
func (s *Server) Stop() {
	s.connMu.Lock()
	if s.shuttingDown {
		s.connMu.Unlock()
		return
	}
	s.shuttingDown = true
	if s.listener != nil {
		s.listener.Close()
	}
	s.cancel()
	for conn := range s.conns {
		// Unblocks readers; writers in flight finish first.
		if uc, ok := conn.(*net.UnixConn); ok {
			uc.CloseRead()
		} else {
			conn.Close()
		}
	}
	s.connMu.Unlock()

	s.handlers.Wait()
	os.Remove(s.socketPath)
}
