package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/1broseidon/deskctl/internal/ipc"
	"github.com/1broseidon/deskctl/internal/runtimepath"
)

func runDaemon(args []string) int {
	fs := pflag.NewFlagSet("daemon", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	socket := fs.String("socket", "", "Socket path (default: config socket_path or the runtime dir)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskctl daemon [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Serve automation commands over a unix socket (foreground).")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return exitUsage
	}

	a, code := loadApp(common)
	if a == nil {
		return code
	}
	defer a.Close()

	configured := *socket
	if configured == "" {
		configured = a.cfg.SocketPath
	}
	socketPath, err := runtimepath.ResolveSocketPath(configured)
	if err != nil {
		a.logger.Error("failed to resolve socket path", zap.Error(err))
		return exitFailure
	}

	// Start would unlink a live daemon's socket.
	if err := ipc.NewClient(socketPath).WithTimeout(time.Second).Ping(); err == nil {
		a.logger.Error("daemon already running", zap.String("socket", socketPath))
		return exitFailure
	}

	server := ipc.NewServer(socketPath, a.dispatcher, a.logger)
	if err := server.Start(); err != nil {
		a.logger.Error("failed to start IPC server", zap.Error(err))
		return exitFailure
	}
	a.logger.Info("deskctl daemon started", zap.Int("pid", os.Getpid()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	a.logger.Info("shutting down")
	// Stop returns once no handler can call Invoke, so Drain sees every wait.
	server.Stop()

	// Pending completion waits hold display connections; let them finish.
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout(a.cfg.Wait))
	defer cancel()
	if err := a.dispatcher.Drain(drainCtx); err != nil {
		a.logger.Warn("shutdown incomplete", zap.Error(err))
		return exitFailure
	}
	return exitOK
}

func runStatus(args []string) int {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	socket := fs.String("socket", "", "Daemon socket path (default: config socket_path or the runtime dir)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskctl status [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return exitUsage
	}

	printer, err := out.printer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	configured := *socket
	if configured == "" {
		res, err := common.load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		configured = res.Config.SocketPath
	}
	socketPath, err := runtimepath.ResolveSocketPath(configured)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	status, err := ipc.NewClient(socketPath).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	if err := printer.Print(status); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}
