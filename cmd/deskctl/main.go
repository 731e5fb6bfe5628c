package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/1broseidon/deskctl/internal/automation"
	"github.com/1broseidon/deskctl/internal/config"
	"github.com/1broseidon/deskctl/internal/ipc"
)

// Exit codes. Command failures map their error kind to a distinct code so
// scripts can tell a bad argument from a missing display.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitConnection = 3
	exitLibrary    = 4
	exitInvalidPID = 5
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(exitOK)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "commands":
		os.Exit(runCommands(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(exitOK)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(exitUsage)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: deskctl <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run <name> [args]   Run an automation command (via the daemon when running)")
	fmt.Fprintln(w, "  commands            List automation commands and their arguments")
	fmt.Fprintln(w, "  pick                Choose and run a command interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Start the deskctl daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print the configuration file path")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskctl <command> --help' for command-specific options.")
}

// commonFlags are accepted by every subcommand that loads configuration.
type commonFlags struct {
	configPath string
	logLevel   string
}

func addCommonFlags(fs *pflag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "Config file path (default: ~/.config/deskctl/config.yaml)")
	fs.StringVar(&c.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	return c
}

func (c *commonFlags) load() (*config.LoadResult, error) {
	if c.configPath == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(c.configPath)
}

// parseFlags parses args and reports the exit code to use when parsing did
// not succeed.
func parseFlags(fs *pflag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	return exitOK, true
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch automation.KindOf(err) {
	case automation.KindValidation:
		return exitUsage
	case automation.KindConnection:
		return exitConnection
	case automation.KindLibraryCall:
		return exitLibrary
	case automation.KindInvalidPID:
		return exitInvalidPID
	}
	var cerr *ipc.ConnectError
	if errors.As(err, &cerr) {
		return exitConnection
	}
	return exitFailure
}
