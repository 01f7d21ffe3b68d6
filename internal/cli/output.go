// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - Report rendering in every supported format.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/ui/components"
)

// formats lists the accepted --format values.
var formats = []string{"text", "json", "yaml", "markdown"}

func isFormat(f string) bool {
	for _, known := range formats {
		if f == known {
			return true
		}
	}
	return false
}

// Report is anything a command can print in every format: a Result or a
// Comparison.
type Report interface {
	markdown() string
	text(view *components.BenchmarkView) string
}

type resultReport struct{ *benchmark.Result }

type comparisonReport struct{ *benchmark.Comparison }

func (r resultReport) text(v *components.BenchmarkView) string {
	return v.RenderResult(r.Result)
}

func (r resultReport) markdown() string {
	return ResultMarkdown(r.Result)
}

func (c comparisonReport) text(v *components.BenchmarkView) string {
	return v.RenderComparison(c.Comparison)
}

func (c comparisonReport) markdown() string {
	return ComparisonMarkdown(c.Comparison)
}

// WriteReport writes payload in format. JSON goes through the standard
// envelope; markdown is rendered by glamour when styled is set.
func WriteReport(w io.Writer, command, format string, payload interface{}, styled bool) error {
	var rep Report
	switch p := payload.(type) {
	case *benchmark.Result:
		rep = resultReport{p}
	case *benchmark.Comparison:
		rep = comparisonReport{p}
	default:
		return fmt.Errorf("no report for %T", payload)
	}

	switch format {
	case "", "text":
		_, err := fmt.Fprintln(w, rep.text(components.NewBenchmarkView(GetTerminalWidth())))
		return err
	case "json":
		return NewJSONResponse(command, payload).Write(w)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "markdown":
		md := rep.markdown()
		if styled {
			rendered, err := RenderMarkdown(md, GetTerminalWidth())
			if err == nil {
				md = rendered
			}
		}
		_, err := fmt.Fprint(w, md)
		return err
	}
	return ErrUnsupportedFormat(format, formats)
}

// RenderMarkdown renders markdown for the terminal with glamour.
func RenderMarkdown(md string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}

// =============================================================================
// MARKDOWN
// =============================================================================

// ResultMarkdown renders a run as a markdown document.
func ResultMarkdown(r *benchmark.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Benchmark %s\n\n", r.ShortID())
	fmt.Fprintf(&b, "- **CPU:** %s\n", r.Host.String())
	fmt.Fprintf(&b, "- **Started:** %s\n", r.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", benchmark.FormatDuration(r.Duration))
	fmt.Fprintf(&b, "- **Replicas:** %d\n", r.Replicas)
	fmt.Fprintf(&b, "- **K:** %s\n", components.FormatScore(r.NormalizationConstant))
	if len(r.Capabilities) > 0 {
		fmt.Fprintf(&b, "- **Extensions:** %s\n", strings.Join(r.Capabilities, ", "))
	}

	b.WriteString("\n## Scores\n\n| Aggregate | Score | Included | Excluded | Failed |\n|---|---:|---:|---:|---:|\n")
	for _, key := range benchmark.AggregateKeys {
		agg, ok := r.Aggregates[key]
		if !ok {
			continue
		}
		score, _ := r.Score(key)
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n",
			key, components.FormatScore(score), agg.IncludedCount, agg.ExcludedCount, agg.FailedCount)
	}

	b.WriteString("\n## Workloads\n\n| Suite | Workload | Status | Time | Score |\n|---|---|---|---:|---:|\n")
	for _, w := range r.Workloads {
		status := string(w.Status)
		switch {
		case w.Status == benchmark.StatusSkipped && w.Capability != "":
			status += " (requires " + w.Capability + ")"
		case w.Status == benchmark.StatusFailed:
			status += ": " + strings.ReplaceAll(w.Error, "|", "\\|")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			w.Suite, w.Name, status, benchmark.FormatElapsed(w.Elapsed), components.FormatScore(w.Score))
	}

	fmt.Fprintf(&b, "\n%d passed, %d failed, %d skipped\n", r.PassedCount, r.FailedCount, r.SkippedCount)
	return b.String()
}

// ComparisonMarkdown renders a comparison as a markdown document.
func ComparisonMarkdown(c *benchmark.Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Comparison %s vs %s\n\n", c.Baseline.ShortID(), c.Candidate.ShortID())
	b.WriteString("| Aggregate | Baseline | Candidate | Change |\n|---|---:|---:|---:|\n")
	for _, d := range c.Deltas {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			d.Key, components.FormatScore(d.Baseline), components.FormatScore(d.Candidate), components.FormatRatio(d.Ratio))
	}
	for _, w := range c.Warnings {
		fmt.Fprintf(&b, "\n> **Warning:** %s\n", w)
	}
	return b.String()
}
