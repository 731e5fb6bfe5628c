package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/1broseidon/deskctl/internal/actionlog"
	"github.com/1broseidon/deskctl/internal/automation"
	"github.com/1broseidon/deskctl/internal/config"
	"github.com/1broseidon/deskctl/internal/observability"
	"github.com/1broseidon/deskctl/internal/platform"
	"github.com/1broseidon/deskctl/internal/x11"
)

// drainSlack is added to the backend's poll budget when draining.
const drainSlack = 2 * time.Second

// drainTimeout bounds how long shutdown waits for async completion waits: a
// wait started just before shutdown may poll for its full budget.
func drainTimeout(w config.WaitConfig) time.Duration {
	return w.PollInterval()*time.Duration(w.MaxTries) + drainSlack
}

// app is everything a process needs to dispatch commands in-process.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	actions    *actionlog.Logger
	dispatcher *automation.Dispatcher
}

func newApp(cfg *config.Config, logLevel string) (*app, error) {
	logger, err := observability.NewStderr(cfg.Log, observability.Options{
		Name:  "deskctl",
		Color: cfg.Log.Format != "json" && term.IsTerminal(int(os.Stderr.Fd())),
		Level: logLevel,
	})
	if err != nil {
		return nil, err
	}

	actions, err := actionlog.New(actionlog.Config{
		Enabled:   cfg.ActionLog.Enabled,
		FilePath:  cfg.ActionLogPath(),
		MaxSizeMB: cfg.ActionLog.MaxSizeMB,
		MaxFiles:  cfg.ActionLog.MaxFiles,
	})
	if err != nil {
		logger.Warn("action log disabled", zap.Error(err))
		actions = nil
	}

	opener := &platform.LinuxOpener{
		Defaults: x11.DisplayDefaults{Display: cfg.Display, XAuthority: cfg.XAuthority},
		Options:  x11.Options{PollInterval: cfg.Wait.PollInterval(), MaxTries: cfg.Wait.MaxTries},
	}

	opts := []automation.Option{
		automation.WithLogger(logger),
		automation.WithStrictStatus(cfg.StrictStatus),
	}
	if actions != nil {
		opts = append(opts, automation.WithActionLog(actions, cfg.ActionLog.IncludeKeys))
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		actions:    actions,
		dispatcher: automation.NewDispatcher(opener, opts...),
	}, nil
}

// Close waits for pending completion waits, then flushes logs.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout(a.cfg.Wait))
	defer cancel()
	if err := a.dispatcher.Drain(ctx); err != nil {
		a.logger.Warn("pending commands did not finish before exit", zap.Error(err))
	}
	if a.actions != nil {
		if err := a.actions.Close(); err != nil {
			a.logger.Debug("failed to close action log", zap.Error(err))
		}
	}
	observability.Sync(a.logger)
}

// loadApp loads configuration and builds the app, reporting failures on stderr.
func loadApp(common *commonFlags) (*app, int) {
	res, err := common.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, exitFailure
	}
	a, err := newApp(res.Config, common.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, exitUsage
	}
	return a, exitOK
}
