// rigbench - CPU and memory benchmark harness.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/rigbench/internal/cli"
	"github.com/jeranaias/rigbench/internal/logutil"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

// run dispatches the command and returns the process exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logutil.GetLogger().Sync() }()

	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		if !args.JSON {
			fmt.Fprintln(os.Stderr, "Run 'rigbench help' for usage.")
		}
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdRun:
		err = cli.HandleRun(ctx, args)
	case cli.CmdList:
		err = cli.HandleList(args)
	case cli.CmdInfo:
		err = cli.HandleInfo(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(ctx, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		err = cli.HandleHelp()
	}

	if err == nil {
		return cli.ExitSuccess
	}
	// A second signal during shutdown should still kill the process.
	if errors.Is(err, cli.ErrInterrupted) {
		stop()
	}
	cli.DisplayError(os.Stderr, err, args.JSON)
	return cli.GetExitCode(err)
}
