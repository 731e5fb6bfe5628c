package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/1broseidon/deskctl/internal/automation"
	"github.com/1broseidon/deskctl/internal/config"
	"github.com/1broseidon/deskctl/internal/ipc"
	"github.com/1broseidon/deskctl/internal/output"
	"github.com/1broseidon/deskctl/internal/runtimepath"
	"github.com/1broseidon/deskctl/internal/tui"
)

type outputFlags struct {
	format string
	pretty bool
}

func addOutputFlags(fs *pflag.FlagSet) *outputFlags {
	o := &outputFlags{}
	fs.StringVarP(&o.format, "output", "o", "", "Output format: yaml or json (default: yaml on a terminal, json otherwise)")
	fs.BoolVar(&o.pretty, "pretty", false, "Indent JSON output")
	return o
}

func (o *outputFlags) printer() (*output.Printer, error) {
	if o.format == "" {
		return output.Stdout("", o.pretty), nil
	}
	format, ok := output.ParseFormat(o.format)
	if !ok {
		return nil, fmt.Errorf("invalid --output %q (want yaml or json)", o.format)
	}
	return output.Stdout(format, o.pretty), nil
}

// dispatchFlags select where and how a command runs.
type dispatchFlags struct {
	display string
	noWait  bool
	direct  bool
	socket  string
}

func addDispatchFlags(fs *pflag.FlagSet) *dispatchFlags {
	d := &dispatchFlags{}
	fs.StringVar(&d.display, "display", "", "X display for the command (same as passing it positionally)")
	fs.BoolVar(&d.noWait, "no-wait", false, "Return before an async command's change is observable (daemon only)")
	fs.BoolVar(&d.direct, "direct", false, "Run in this process even when a daemon is listening")
	fs.StringVar(&d.socket, "socket", "", "Daemon socket path (default: config socket_path or the runtime dir)")
	return d
}

func runRun(args []string) int {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	// Flags end at the command name so negative coordinates stay positional.
	fs.SetInterspersed(false)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	dispatch := addDispatchFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskctl run [options] <command> [args...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Arguments are positional; use - or null to leave one unset.")
		fmt.Fprintln(os.Stderr, "Run 'deskctl commands' for the argument lists.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitUsage
	}

	printer, err := out.printer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	name := fs.Arg(0)
	cmd, ok := automation.Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown automation command: %s\n", name)
		return exitUsage
	}
	return execute(common, dispatch, printer, cmd, fs.Args()[1:])
}

// execute parses raw CLI arguments for cmd, runs it and prints the result.
func execute(common *commonFlags, dispatch *dispatchFlags, printer *output.Printer, cmd *automation.Command, raw []string) int {
	cmdArgs, err := automation.ParseArgs(cmd, raw)
	if err == nil && dispatch.display != "" {
		cmdArgs, err = withDisplay(cmd, cmdArgs, dispatch.display)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}

	res, err := common.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	var result *output.CommandResult
	if !dispatch.direct {
		result, err = invokeDaemon(dispatch.socket, res.Config.SocketPath, cmd.Name, cmdArgs, dispatch.noWait)
		var cerr *ipc.ConnectError
		if errors.As(err, &cerr) {
			result, err = nil, nil
		}
	}
	if result == nil && err == nil {
		result, err = invokeDirect(res.Config, common.logLevel, cmd.Name, cmdArgs)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}

	if err := printer.Print(result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}

// withDisplay fills cmd's display argument from the --display flag.
func withDisplay(cmd *automation.Command, args automation.Args, display string) (automation.Args, error) {
	for i, p := range cmd.Params {
		if p.Kind != automation.ParamDisplay {
			continue
		}
		if i < len(args) && args[i] != nil {
			return nil, fmt.Errorf("%s: display given both positionally and with --display", cmd.Name)
		}
		for len(args) <= i {
			args = append(args, nil)
		}
		args[i] = display
		return args, nil
	}
	return nil, fmt.Errorf("%s: command takes no display argument", cmd.Name)
}

func invokeDaemon(flagSocket, configSocket, name string, args automation.Args, noWait bool) (*output.CommandResult, error) {
	configured := strings.TrimSpace(flagSocket)
	if configured == "" {
		configured = configSocket
	}
	socketPath, err := runtimepath.ResolveSocketPath(configured)
	if err != nil {
		return nil, &ipc.ConnectError{SocketPath: configured, Err: err}
	}

	data, err := ipc.NewClient(socketPath).Invoke(name, []any(args), noWait)
	if err != nil {
		return nil, err
	}
	return &output.CommandResult{
		Command: data.Command,
		Value:   data.Value,
		Result:  data.Result,
		Pending: data.Pending,
	}, nil
}

// invokeDirect runs the command in this process. The process is about to
// exit, so async commands are always waited for.
func invokeDirect(cfg *config.Config, logLevel, name string, args automation.Args) (*output.CommandResult, error) {
	a, err := newApp(cfg, logLevel)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	out, err := a.dispatcher.Invoke(name, args)
	if err != nil {
		return nil, err
	}
	res, err := out.Wait(context.Background())
	if err != nil {
		return nil, err
	}
	return &output.CommandResult{
		Command: out.Command,
		Value:   res.Value,
		Result:  res.Data,
	}, nil
}

func runCommands(args []string) int {
	fs := pflag.NewFlagSet("commands", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := addOutputFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskctl commands [-o yaml|json|table]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "commands takes no arguments")
		return exitUsage
	}

	if out.format == "table" {
		fmt.Println(tui.CommandTable(automation.Commands()))
		return exitOK
	}

	printer, err := out.printer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if err := printer.Print(ipc.DescribeCommands()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}
