// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package runview

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/multierr"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// RunFunc performs a benchmark run, reporting progress through report.
type RunFunc func(ctx context.Context, report func(benchmark.Progress)) (*benchmark.Result, error)

// Options configures Run.
type Options struct {
	Width  int
	Input  io.Reader
	Output io.Writer
	// NoInput disables keyboard handling entirely.
	NoInput bool
}

type outcome struct {
	result *benchmark.Result
	err    error
}

// Run executes fn in the background while the live display runs in the
// foreground. It returns once fn has returned, even if the display exits
// first.
func Run(ctx context.Context, fn RunFunc, opts Options) (*benchmark.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	switch {
	case opts.NoInput:
		programOpts = append(programOpts, tea.WithInput(nil))
	case opts.Input != nil:
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	program := tea.NewProgram(New(cancel, opts.Width), programOpts...)

	done := make(chan outcome, 1)
	go func() {
		res, err := fn(runCtx, func(p benchmark.Progress) {
			program.Send(ProgressMsg{Progress: p})
		})
		done <- outcome{result: res, err: err}
		program.Send(DoneMsg{Result: res, Err: err})
	}()

	_, runErr := program.Run()
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		cancel()
		out := <-done
		return out.result, multierr.Append(out.err, runErr)
	}

	// The display may quit before the run does (second q press); the run
	// observes the canceled context between workloads.
	cancel()
	out := <-done
	return out.result, out.err
}
