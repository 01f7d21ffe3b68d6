// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and the small commands (version, help).
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output destinations; tests swap them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdRun Command = iota
	CmdList
	CmdInfo
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdRun:
		return "run"
	case CmdList:
		return "list"
	case CmdInfo:
		return "info"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool
	Quiet      bool
	Verbose    bool
	ConfigPath string
	Format     string // text, json, yaml, markdown; "" means configured default

	// Subcommand is the first argument after the command (e.g. "show").
	Subcommand string

	// Raw holds the remaining arguments, flags included, for the command's
	// own ArgParser.
	Raw []string
}

const usageText = `rigbench - CPU and memory benchmark

Usage:
  rigbench [run] [flags]          Run the benchmark battery (default)
  rigbench list                   List workloads and whether this CPU supports them
  rigbench info                   Show CPU topology and detected extensions
  rigbench history [subcommand]   Browse stored runs
  rigbench config [subcommand]    Manage configuration
  rigbench version                Show version information
  rigbench help                   Show this help

Run Flags:
  --suite <list>       Suites to run: memory,single,multi (default: all)
  --only <ids>         Run only these workload ids (see "rigbench list")
  --replicas <n>       Multi-core replica count (default: logical CPUs)
  --iterations <n>     Base iteration count for work sizes
  --format <fmt>       Report format: text, json, yaml, markdown
  --no-save            Do not store the result
  --tui                Force the live progress view
  --no-tui             Disable the live progress view

History Commands:
  rigbench history list [--limit N]        Stored runs, newest first
  rigbench history show <id>               Full report for a run (id prefix)
  rigbench history compare <base> <cand>   Compare two runs
  rigbench history best                    Best run per aggregate
  rigbench history trend <workload> [--suite single]
  rigbench history clear [--yes]           Delete every stored run

Config Commands:
  rigbench config show           Print the effective configuration
  rigbench config path           Print configuration file paths
  rigbench config init [--yes]   Write a default configuration file
  rigbench config validate       Check the configuration file
  rigbench config get <key>      Print one setting (e.g. workloads.iterations)
  rigbench config set <key> <v>  Change one setting

Global Flags:
  --json               Output as JSON
  -q, --quiet          Only print the final report
  -v, --verbose        Debug logging to stderr
  --config <path>      Use this configuration file

Exit Codes:
  0  success
  1  general error
  2  usage error
  3  benchmark finished with failed workloads
  4  configuration error
  5  run or workload not found

Environment:
  RIGBENCH_ITERATIONS, RIGBENCH_K, RIGBENCH_LOGICAL_CPUS, RIGBENCH_DISABLE_CAPS,
  RIGBENCH_RESULTS_DIR, RIGBENCH_HISTORY_DB, RIGBENCH_FORMAT, RIGBENCH_LOG_LEVEL,
  RIGBENCH_LOG_FILE, RIGBENCH_NO_PRIORITY (also read from ./.env)

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Fprintf(stdout, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Fprintf(stdout, "rigbench version %s\n", Version)
	fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(stdout, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(stdout, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name) into a command and its
// arguments. With no command, or when the first argument is a flag, the
// command is run.
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}

	cmd := CmdRun
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		switch strings.ToLower(remaining[0]) {
		case "run", "bench":
			cmd = CmdRun
		case "list", "ls", "workloads":
			cmd = CmdList
		case "info", "host":
			cmd = CmdInfo
		case "history", "hist":
			cmd = CmdHistory
		case "config", "cfg":
			cmd = CmdConfig
		case "version":
			cmd = CmdVersion
		case "help":
			cmd = CmdHelp
		default:
			return CmdHelp, args, &ValidationError{
				Field:   "command",
				Value:   remaining[0],
				Reason:  "unknown command",
				Example: "rigbench help",
			}
		}
		remaining = remaining[1:]
	}

	args.Raw = remaining
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		args.Subcommand = strings.ToLower(remaining[0])
	}
	return cmd, args, nil
}

// parseGlobalFlags extracts global flags from anywhere in argv.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "-h" || arg == "--help":
			remaining = append([]string{"help"}, remaining...)
		case arg == "--version":
			remaining = append([]string{"version"}, remaining...)
		case arg == "--config" || arg == "--format":
			if i+1 >= len(argv) {
				return nil, args, ErrMissingArgument(strings.TrimLeft(arg, "-"), arg+" <value>")
			}
			i++
			setValueFlag(&args, arg, argv[i])
		case strings.HasPrefix(arg, "--config=") || strings.HasPrefix(arg, "--format="):
			name, value, _ := strings.Cut(arg, "=")
			setValueFlag(&args, name, value)
		default:
			remaining = append(remaining, arg)
		}
	}

	if args.Format != "" {
		args.Format = strings.ToLower(args.Format)
		if !isFormat(args.Format) {
			return nil, args, ErrUnsupportedFormat(args.Format, formats)
		}
		if args.Format == "json" {
			args.JSON = true
		}
	}
	if args.JSON && args.Format == "" {
		args.Format = "json"
	}
	return remaining, args, nil
}

func setValueFlag(args *Args, name, value string) {
	switch name {
	case "--config":
		args.ConfigPath = value
	case "--format":
		args.Format = value
	}
}

// =============================================================================
// SMALL COMMANDS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).Write(stdout)
	}
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp() error {
	PrintUsage()
	return nil
}
