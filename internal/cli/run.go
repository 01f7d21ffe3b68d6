// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - The run command: detect the host, build the battery, execute it
// and report.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/config"
	"github.com/jeranaias/rigbench/internal/detect"
	"github.com/jeranaias/rigbench/internal/ui/components"
	"github.com/jeranaias/rigbench/internal/ui/runview"
	"github.com/jeranaias/rigbench/internal/workloads"
)

// heartbeatInterval bounds how often "still running" lines appear while a
// single workload takes a long time.
const heartbeatInterval = 15 * time.Second

// runFlags are the boolean flags of the run command.
var runFlags = []string{"no-save", "tui", "no-tui"}

// runPlan is everything needed to start a run, resolved from flags and
// configuration.
type runPlan struct {
	cfg      *config.Config
	topology detect.Topology
	probe    *detect.CPUProbe
	catalog  *benchmark.Catalog
	options  []benchmark.RunnerOption
	save     bool
	tui      bool
}

// HandleRun handles the "run" command.
func HandleRun(ctx context.Context, args Args) (err error) {
	p := NewArgParser(args.Raw, runFlags...)
	if p.PositionalCount() > 0 {
		return &ValidationError{Field: "argument", Value: p.Positional(0), Reason: "run takes no positional arguments", Example: "rigbench run --suite single"}
	}

	cfg, logger, err := setup(args)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	plan, err := buildRunPlan(cfg, args, p, logger)
	if err != nil {
		return err
	}

	if cfg.Run.RaisePriority {
		if perr := detect.RaisePriority(); perr != nil {
			logger.Debug("could not raise process priority", zap.Error(perr))
		}
	}

	format := reportFormat(cfg, args)
	runFn := func(ctx context.Context, report func(benchmark.Progress)) (*benchmark.Result, error) {
		opts := append(append([]benchmark.RunnerOption(nil), plan.options...), benchmark.WithProgress(report))
		return benchmark.NewRunner(plan.catalog, plan.probe, opts...).Run(ctx)
	}

	var result *benchmark.Result
	if plan.tui {
		result, err = runview.Run(ctx, runFn, runview.Options{Width: GetTerminalWidth()})
	} else {
		printer := newProgressPrinter(stderr, args.Quiet || format != "text", logger)
		stop := printer.startHeartbeat()
		result, err = runFn(ctx, printer.report)
		stop()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if result != nil && len(result.Workloads) > 0 && !args.JSON {
				fmt.Fprintf(stderr, "%s stopped after %d workload(s); result not saved\n",
					WarningStyle.Render("[WARN]"), len(result.Workloads))
			}
			return ErrInterrupted
		}
		if errors.Is(err, benchmark.ErrUnknownWorkload) {
			return &ValidationError{Field: "only", Reason: err.Error(), Example: "rigbench list"}
		}
		return WrapError(err, "benchmark run")
	}

	if plan.save {
		if serr := saveResult(ctx, cfg, result); serr != nil {
			logger.Warn("result not fully saved", zap.Error(serr))
			if !args.JSON {
				fmt.Fprintf(stderr, "%s %v\n", WarningStyle.Render("[WARN]"), serr)
			}
		}
	}

	if werr := WriteReport(stdout, "run", format, result, ColorsEnabled()); werr != nil {
		return werr
	}
	return newBenchmarkFailed(result)
}

// buildRunPlan applies run flags to the configuration and prepares the
// probe, catalog and runner options.
func buildRunPlan(cfg *config.Config, args Args, p *ArgParser, logger *zap.Logger) (*runPlan, error) {
	if p.HasFlag("iterations") {
		n, err := ParseIntWithValidation(p.Flag("iterations"), "iterations")
		if err != nil {
			return nil, err
		}
		cfg.Workloads.Iterations = n
	}

	suites, err := benchmark.ParseSuites(p.FlagOrDefault("suite", "all"))
	if err != nil {
		return nil, &ValidationError{Field: "suite", Value: p.Flag("suite"), Reason: err.Error(), Example: "--suite memory,single,multi"}
	}

	replicas := 0
	if p.HasFlag("replicas") {
		if replicas, err = ParseIntWithValidation(p.Flag("replicas"), "replicas"); err != nil {
			return nil, err
		}
	}

	topology, terr := detect.DetectTopologyCached()
	if terr != nil {
		logger.Warn("topology detection incomplete", zap.Error(terr))
	}
	topology = cfg.ApplyTopology(topology)

	probe, err := cfg.Probe()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	catalog, err := workloads.NewCatalog(cfg.WorkloadOptions(topology))
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	normalizer, err := cfg.Normalizer()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	options := []benchmark.RunnerOption{
		benchmark.WithLogger(logger),
		benchmark.WithNormalizer(normalizer),
		benchmark.WithTopology(topology),
		benchmark.WithReplicas(replicas),
		benchmark.WithSuites(suites),
	}
	if only := ParseList(p.Flag("only")); len(only) > 0 {
		options = append(options, benchmark.WithFilter(only))
	}

	force := p.BoolFlag("tui")
	tui := !p.BoolFlag("no-tui") && UseTUI(cfg.Run.TUI, force, args)

	return &runPlan{
		cfg:      cfg,
		topology: topology,
		probe:    probe,
		catalog:  catalog,
		options:  options,
		save:     cfg.Output.Save && !p.BoolFlag("no-save"),
		tui:      tui,
	}, nil
}

// saveResult writes the result file and records it in the history index.
// Both are attempted; their errors are combined.
func saveResult(ctx context.Context, cfg *config.Config, result *benchmark.Result) error {
	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("open result storage: %w", err)
	}
	path, saveErr := store.Save(result)
	if saveErr != nil {
		saveErr = fmt.Errorf("save result: %w", saveErr)
	}

	h, err := openHistory(ctx, cfg)
	if err != nil {
		return multierr.Append(saveErr, fmt.Errorf("open history: %w", err))
	}
	recErr := h.Record(ctx, result, path)
	if recErr != nil {
		recErr = fmt.Errorf("record history: %w", recErr)
	}
	return multierr.Combine(saveErr, recErr, h.Close())
}

// =============================================================================
// PLAIN PROGRESS OUTPUT
// =============================================================================

// progressPrinter writes one line per finished workload and an occasional
// heartbeat while a long workload runs.
type progressPrinter struct {
	w      io.Writer
	quiet  bool
	logger *zap.Logger
	view   *components.BenchmarkView

	mu        sync.Mutex
	current   benchmark.Progress
	startedAt time.Time
	sometimes rate.Sometimes
}

func newProgressPrinter(w io.Writer, quiet bool, logger *zap.Logger) *progressPrinter {
	return &progressPrinter{
		w:         w,
		quiet:     quiet,
		logger:    logger,
		view:      components.NewBenchmarkView(GetTerminalWidth()),
		sometimes: rate.Sometimes{Interval: heartbeatInterval},
	}
}

func (pp *progressPrinter) report(p benchmark.Progress) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if !p.Done {
		pp.current = p
		pp.startedAt = time.Now()
		pp.logger.Debug("workload starting",
			zap.String("suite", p.Suite.Key()),
			zap.String("workload", p.Workload),
			zap.Int("index", p.Index),
			zap.Int("total", p.Total))
		return
	}

	pp.current = benchmark.Progress{}
	if p.Record != nil {
		pp.logger.Debug("workload finished",
			zap.String("suite", p.Record.Suite),
			zap.String("workload", p.Record.ID),
			zap.String("status", string(p.Record.Status)),
			zap.Float64("elapsed_ms", p.Record.ElapsedMs),
			zap.Float64("score", p.Record.Score))
	}
	if !pp.quiet {
		fmt.Fprintln(pp.w, pp.view.RenderProgress(p))
	}
}

// heartbeat prints a "still running" line at most once per interval.
func (pp *progressPrinter) heartbeat(now time.Time) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.quiet || pp.current.Name == "" || now.Sub(pp.startedAt) < heartbeatInterval {
		return
	}
	pp.sometimes.Do(func() {
		fmt.Fprintln(pp.w, DimStyle.Render(fmt.Sprintf("      still running %s (%s)",
			pp.current.Name, now.Sub(pp.startedAt).Truncate(time.Second))))
	})
}

// startHeartbeat ticks heartbeat in the background until the returned
// function is called.
func (pp *progressPrinter) startHeartbeat() (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				pp.heartbeat(now)
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
