// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - The history command: browse, compare and clear stored
// runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/config"
	"github.com/jeranaias/rigbench/internal/history"
	"github.com/jeranaias/rigbench/internal/ui/components"
	"github.com/jeranaias/rigbench/internal/util"
)

const (
	// defaultHistoryLimit is how many runs "history list" shows.
	defaultHistoryLimit = 20
	cpuColumnWidth      = 24
)

// HandleHistory handles the "history" command.
func HandleHistory(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "yes", "y")

	cfg, logger, err := setup(args)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	switch args.Subcommand {
	case "", "list", "ls":
		return historyList(ctx, cfg, args, p)
	case "show":
		return historyShow(ctx, cfg, args, p)
	case "compare", "diff":
		return historyCompare(ctx, cfg, args, p)
	case "best":
		return historyBest(ctx, cfg, args)
	case "trend":
		return historyTrend(ctx, cfg, args, p)
	case "clear":
		return historyClear(ctx, cfg, args, p)
	}
	return &ValidationError{
		Field:   "subcommand",
		Value:   args.Subcommand,
		Reason:  "unknown history subcommand",
		Example: "rigbench history [list|show|compare|best|trend|clear]",
	}
}

// mapHistoryErr converts index lookup errors to CLI error types.
func mapHistoryErr(err error, id string) error {
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		return &NotFoundError{Resource: "run", ID: id}
	case errors.Is(err, history.ErrAmbiguousID):
		return &ValidationError{Field: "run id", Value: id, Reason: "matches more than one run; use more characters"}
	}
	return err
}

func historyList(ctx context.Context, cfg *config.Config, args Args, p *ArgParser) (err error) {
	limit := defaultHistoryLimit
	if p.HasFlag("limit") {
		if limit, err = ParseIntWithValidation(p.Flag("limit"), "limit"); err != nil {
			return err
		}
	}
	if p.BoolFlag("all") {
		limit = 0
	}

	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory(h, &err)

	entries, err := h.List(ctx, limit)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("history list", entries).Write(stdout)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No stored runs. Run \"rigbench\" to create one."))
		return nil
	}

	header := fmt.Sprintf("%-10s %-17s %s %-14s %14s %14s %14s  %s",
		"ID", "Started", util.PadWidth("CPU", cpuColumnWidth), "Duration", benchmark.AggregateMemory, benchmark.AggregateSingleCore, benchmark.AggregateMultiCore, "Status")
	fmt.Fprintln(stdout, TitleStyle.Render("Run History"))
	fmt.Fprintln(stdout, DimStyle.Render(header))
	fmt.Fprintln(stdout, RenderSeparator(len(header)))
	for _, e := range entries {
		status := SuccessStyle.Render("ok")
		if e.Failed > 0 {
			status = ErrorStyle.Render(fmt.Sprintf("%d failed", e.Failed))
		}
		fmt.Fprintf(stdout, "%-10s %-17s %s %-14s %14s %14s %14s  %s\n",
			e.ShortID(),
			e.StartTime.Local().Format("2006-01-02 15:04"),
			util.PadWidth(e.CPUName, cpuColumnWidth),
			benchmark.FormatDuration(e.Duration),
			components.FormatScore(e.Scores[benchmark.AggregateMemory]),
			components.FormatScore(e.Scores[benchmark.AggregateSingleCore]),
			components.FormatScore(e.Scores[benchmark.AggregateMultiCore]),
			status)
	}
	return nil
}

func historyShow(ctx context.Context, cfg *config.Config, args Args, p *ArgParser) error {
	id := p.Positional(1)
	if id == "" {
		return ErrMissingArgument("run id", "rigbench history show <id>")
	}
	store, err := openStorage(cfg)
	if err != nil {
		return err
	}

	var result *benchmark.Result
	if id == "latest" {
		result, err = store.Latest()
		if err != nil {
			return &NotFoundError{Resource: "run", ID: id}
		}
	} else if result, err = resolveRun(ctx, cfg, store, id); err != nil {
		return err
	}
	return WriteReport(stdout, "history show", reportFormat(cfg, args), result, ColorsEnabled())
}

func historyCompare(ctx context.Context, cfg *config.Config, args Args, p *ArgParser) error {
	baseID, candID := p.Positional(1), p.Positional(2)
	if baseID == "" || candID == "" {
		return ErrMissingArgument("run ids", "rigbench history compare <baseline> <candidate>")
	}
	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	base, err := resolveRun(ctx, cfg, store, baseID)
	if err != nil {
		return err
	}
	cand, err := resolveRun(ctx, cfg, store, candID)
	if err != nil {
		return err
	}
	return WriteReport(stdout, "history compare", reportFormat(cfg, args), benchmark.Compare(base, cand), ColorsEnabled())
}

func historyBest(ctx context.Context, cfg *config.Config, args Args) (err error) {
	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory(h, &err)

	best, err := h.Best(ctx, cfg.Scoring.NormalizationConstant)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("history best", best).Write(stdout)
	}
	if len(best) == 0 {
		fmt.Fprintln(stdout, DimStyle.Render("No stored runs with the configured normalization constant."))
		return nil
	}

	fmt.Fprintln(stdout, TitleStyle.Render("Best Scores"))
	for _, key := range benchmark.AggregateKeys {
		e, ok := best[key]
		if !ok {
			continue
		}
		fmt.Fprintf(stdout, "%s%14s  %s %s\n",
			RenderLabel(key, 22),
			components.FormatScore(e.Scores[key]),
			e.ShortID(),
			DimStyle.Render(e.StartTime.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

func historyTrend(ctx context.Context, cfg *config.Config, args Args, p *ArgParser) (err error) {
	id := p.Positional(1)
	if id == "" {
		return ErrMissingArgument("workload id", "rigbench history trend fibonacci --suite single")
	}
	suite := ""
	if s := p.Flag("suite"); s != "" {
		parsed, perr := benchmark.ParseSuites(s)
		if perr != nil || parsed.Key() == "" {
			return &ValidationError{Field: "suite", Value: s, Reason: "must name exactly one suite", Example: "--suite single"}
		}
		suite = parsed.Key()
	}

	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory(h, &err)

	points, err := h.Trend(ctx, id, suite)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("history trend", points).Write(stdout)
	}
	if len(points) == 0 {
		return &NotFoundError{Resource: "workload history", ID: id}
	}

	fmt.Fprintln(stdout, TitleStyle.Render("Trend: "+id))
	var prev float64
	for _, pt := range points {
		change := ""
		if prev > 0 && pt.Score > 0 {
			change = components.FormatRatio(pt.Score / prev)
		}
		if pt.Score > 0 {
			prev = pt.Score
		}
		fmt.Fprintf(stdout, "%-10s %-17s %-8s %14s  %s\n",
			shortID(pt.RunID),
			pt.StartTime.Local().Format("2006-01-02 15:04"),
			pt.Status,
			components.FormatScore(pt.Score),
			DimStyle.Render(change))
	}
	return nil
}

func historyClear(ctx context.Context, cfg *config.Config, args Args, p *ArgParser) (err error) {
	confirmed, err := RequireConfirmation(p.BoolFlag("yes") || p.BoolFlag("y"), "delete every stored run", args.JSON)
	if err != nil || !confirmed {
		return err
	}

	h, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHistory(h, &err)

	indexed, clearErr := h.Clear(ctx)
	files := 0
	store, storeErr := openStorage(cfg)
	if storeErr == nil {
		files, storeErr = store.Delete()
	}
	if err := multierr.Combine(clearErr, storeErr); err != nil {
		return NewCommandError("history", "clear", "could not remove every run", err)
	}

	if args.JSON {
		return NewJSONResponse("history clear", map[string]int{"indexed": indexed, "files": files}).Write(stdout)
	}
	fmt.Fprintf(stdout, "%s removed %d indexed run(s) and %d result file(s)\n", SuccessStyle.Render("[OK]"), indexed, files)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return strings.TrimSpace(id)
}
