package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/deskctl/internal/config"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  deskctl config validate [--path PATH]")
	fmt.Fprintln(w, "  deskctl config print [--path PATH] [--defaults]")
	fmt.Fprintln(w, "  deskctl config path")
	fmt.Fprintln(w, "  deskctl config explain [--path PATH] <yaml.path>")
}

func runConfig(args []string) int {
	return runConfigTo(os.Stdout, args)
}

func runConfigTo(stdout io.Writer, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stderr)
		return exitUsage
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/deskctl/config.yaml)")
	printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
	if code, ok := parseFlags(fs, args[1:]); !ok {
		return code
	}

	load := func() (*config.LoadResult, error) {
		if *path == "" {
			return config.LoadWithSources()
		}
		return config.LoadFromPath(*path)
	}

	switch args[0] {
	case "validate":
		if _, err := load(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		fmt.Fprintln(stdout, "config: ok")
		return exitOK

	case "print":
		var cfg *config.Config
		if *printDefaults {
			cfg = config.DefaultConfig()
		} else {
			res, err := load()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitFailure
			}
			for _, f := range res.Files {
				fmt.Fprintf(stdout, "# loaded: %s\n", f)
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		fmt.Fprint(stdout, string(data))
		return exitOK

	case "path":
		p := *path
		if p == "" {
			var err error
			p, err = config.DefaultConfigPath()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitFailure
			}
		}
		fmt.Fprintln(stdout, p)
		return exitOK

	case "explain":
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return exitUsage
		}
		queryPath := fs.Arg(0)

		res, err := load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}

		fmt.Fprintf(stdout, "path: %s\n", queryPath)
		fmt.Fprintf(stdout, "source: %s\n", src)
		fmt.Fprintf(stdout, "value:\n%s", string(out))
		return exitOK

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		printConfigUsage(os.Stderr)
		return exitUsage
	}
}
