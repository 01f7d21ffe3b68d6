// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers for
// rigbench.
//
// # Key Types
//
//   - Command: Enumeration of the top-level commands
//   - Args: Global flags plus the unparsed remainder for the command
//   - ArgParser: Per-command flag and positional parsing
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdRun:
//	    err = cli.HandleRun(ctx, args)
//	case cli.CmdHistory:
//	    err = cli.HandleHistory(ctx, args)
//	// ... other commands
//	}
//	if err != nil {
//	    cli.DisplayError(os.Stderr, err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands Overview
//
//   - run: Execute the battery and print a report (default command)
//   - list: Workloads and whether this CPU supports them
//   - info: Topology, extensions and memory buffer sizes
//   - history: Stored runs, comparisons, best scores and trends
//   - config: Show, validate and edit configuration
//
// Reports go to stdout; progress, warnings and errors go to stderr so a JSON
// or YAML report can be piped.
package cli
