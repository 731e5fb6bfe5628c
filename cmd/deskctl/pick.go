package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/1broseidon/deskctl/internal/tui"
)

func runPick(args []string) int {
	fs := pflag.NewFlagSet("pick", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	dispatch := addDispatchFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskctl pick [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Choose a command and fill in its arguments interactively, then run it.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "pick takes no arguments")
		return exitUsage
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "pick needs an interactive terminal; use 'deskctl run' instead")
		return exitUsage
	}

	printer, err := out.printer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sel, err := tui.Pick(ctx)
	if errors.Is(err, tui.ErrAborted) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return execute(common, dispatch, printer, sel.Command, sel.Args)
}
