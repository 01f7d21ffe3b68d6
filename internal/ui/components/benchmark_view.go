// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/detect"
	"github.com/jeranaias/rigbench/internal/ui/styles"
)

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

var printer = message.NewPrinter(language.English)

// FormatScore renders a score with thousands separators ("1,234,567").
// Zero renders as N/A.
func FormatScore(score float64) string {
	if score == 0 {
		return "N/A"
	}
	return printer.Sprintf("%d", int64(score))
}

// FormatRatio renders a candidate/baseline ratio as a signed percentage.
func FormatRatio(ratio float64) string {
	if ratio == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", (ratio-1)*100)
}

// padRight pads s with spaces to width display columns, truncating with an
// ellipsis when it does not fit.
func padRight(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

// padLeft right-aligns s within width display columns.
func padLeft(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillLeft(s, width)
}

// statusCell renders a status indicator padded to four columns before
// styling, so escape codes never count toward the width.
func statusCell(status string) string {
	indicator, color := styles.Status(status)
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(runewidth.FillRight(indicator, 4))
}

// =============================================================================
// BENCHMARK VIEW
// =============================================================================

// BenchmarkView renders benchmark results.
type BenchmarkView struct {
	width int
}

// NewBenchmarkView creates a new benchmark view. Widths below 60 are raised
// to 60.
func NewBenchmarkView(width int) *BenchmarkView {
	v := &BenchmarkView{}
	v.SetWidth(width)
	return v
}

// SetWidth updates the view width.
func (v *BenchmarkView) SetWidth(width int) {
	if width < 60 {
		width = 60
	}
	v.width = width
}

func (v *BenchmarkView) rule(ch string) string {
	return styles.Muted.Render(strings.Repeat(ch, v.width-4))
}

// RenderHost renders the host banner: CPU, cores, caches and capabilities.
func (v *BenchmarkView) RenderHost(t detect.Topology, capabilities []string) string {
	var b strings.Builder
	label := lipgloss.NewStyle().Bold(true).Width(14)

	row := func(k, val string) {
		b.WriteString(label.Render(k))
		b.WriteString(val)
		b.WriteString("\n")
	}

	name := t.CPUName
	if name == "" {
		name = "Unknown CPU"
	}
	row("CPU:", name)
	if t.Vendor != "" {
		row("Vendor:", t.Vendor)
	}
	row("Cores:", fmt.Sprintf("%d physical / %d logical", t.PhysicalCores, t.LogicalCPUs))
	row("Caches:", fmt.Sprintf("L1d %s, L2 %s, L3 %s",
		humanize.IBytes(uint64(max64(t.L1DataBytes, 0))),
		humanize.IBytes(uint64(max64(t.L2Bytes, 0))),
		humanize.IBytes(uint64(max64(t.L3Bytes, 0)))))
	if t.OS != "" {
		row("Platform:", t.OS+"/"+t.Arch)
	}
	if len(capabilities) > 0 {
		row("Extensions:", strings.Join(capabilities, " "))
	} else {
		row("Extensions:", styles.Muted.Render("none detected"))
	}
	for _, w := range t.Warnings {
		b.WriteString(styles.Warning.Render("warning: " + w))
		b.WriteString("\n")
	}

	return styles.Box.Render(strings.TrimRight(b.String(), "\n"))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// RenderResult renders a complete run: summary, aggregate scores and the
// per-workload table.
func (v *BenchmarkView) RenderResult(result *benchmark.Result) string {
	if result == nil {
		return "No benchmark result available"
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Benchmark Results: %s", result.ShortID())))
	b.WriteString("\n\n")
	b.WriteString(v.RenderHost(result.Host, result.Capabilities))
	b.WriteString("\n\n")
	b.WriteString(v.formatAggregates(result))
	b.WriteString("\n")
	b.WriteString(v.formatWorkloads(result))
	b.WriteString("\n")
	b.WriteString(v.formatSummary(result))

	return b.String()
}

// formatSummary renders the final totals line.
func (v *BenchmarkView) formatSummary(result *benchmark.Result) string {
	counts := fmt.Sprintf("%d passed, %d failed, %d skipped",
		result.PassedCount, result.FailedCount, result.SkippedCount)
	if result.FailedCount > 0 {
		counts = styles.Error.Render(counts)
	}
	return fmt.Sprintf("%s  |  %d replicas  |  K=%s  |  %s",
		counts,
		result.Replicas,
		printer.Sprintf("%d", int64(result.NormalizationConstant)),
		benchmark.FormatDuration(result.Duration))
}

// formatAggregates renders the aggregate score table.
func (v *BenchmarkView) formatAggregates(result *benchmark.Result) string {
	var b strings.Builder

	b.WriteString(styles.Section.Render("Scores"))
	b.WriteString("\n")
	b.WriteString(v.rule("-"))
	b.WriteString("\n")

	scoreStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	for _, key := range benchmark.AggregateKeys {
		agg, ok := result.Aggregates[key]
		if !ok {
			continue
		}
		score, _ := result.Score(key)

		line := padRight(key, 22) + scoreStyle.Render(padLeft(FormatScore(score), 14))
		var notes []string
		notes = append(notes, fmt.Sprintf("%d included", agg.IncludedCount))
		if agg.ExcludedCount > 0 {
			notes = append(notes, fmt.Sprintf("%d excluded", agg.ExcludedCount))
		}
		if agg.FailedCount > 0 {
			notes = append(notes, styles.Error.Render(fmt.Sprintf("%d failed, incomplete", agg.FailedCount)))
		}
		line += "  " + styles.Muted.Render("("+strings.Join(notes, ", ")+")")

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// formatWorkloads renders one table per suite that ran.
func (v *BenchmarkView) formatWorkloads(result *benchmark.Result) string {
	var b strings.Builder

	bySuite := make(map[string][]benchmark.WorkloadResult)
	var order []string
	for _, w := range result.Workloads {
		if _, seen := bySuite[w.Suite]; !seen {
			order = append(order, w.Suite)
		}
		bySuite[w.Suite] = append(bySuite[w.Suite], w)
	}

	for _, suite := range order {
		b.WriteString(styles.Section.Render(suite))
		b.WriteString("\n")
		header := fmt.Sprintf("     %s %s %s", padRight("Workload", 30), padLeft("Time", 10), padLeft("Score", 14))
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
		b.WriteString("\n")
		b.WriteString(v.rule("-"))
		b.WriteString("\n")
		for _, w := range bySuite[suite] {
			b.WriteString(v.FormatWorkload(w))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatWorkload renders a single workload row.
func (v *BenchmarkView) FormatWorkload(w benchmark.WorkloadResult) string {
	row := fmt.Sprintf("%s %s %s %s",
		statusCell(string(w.Status)),
		padRight(w.Name, 30),
		padLeft(benchmark.FormatElapsed(w.Elapsed), 10),
		padLeft(FormatScore(w.Score), 14))

	switch w.Status {
	case benchmark.StatusFailed:
		row += "\n" + lipgloss.NewStyle().PaddingLeft(5).Italic(true).Foreground(styles.Rose).
			Render("Error: "+w.Error)
	case benchmark.StatusSkipped:
		if w.Capability != "" {
			row += styles.Muted.Render("  requires " + w.Capability)
		}
	}
	return row
}

// RenderComparison renders a comparison of two runs.
func (v *BenchmarkView) RenderComparison(c *benchmark.Comparison) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Run Comparison"))
	b.WriteString("\n\n")

	summary := fmt.Sprintf("Baseline:  %s  %s\nCandidate: %s  %s",
		c.Baseline.ShortID(), c.Baseline.StartTime.Format("2006-01-02 15:04"),
		c.Candidate.ShortID(), c.Candidate.StartTime.Format("2006-01-02 15:04"))
	b.WriteString(styles.Box.Render(summary))
	b.WriteString("\n\n")

	header := fmt.Sprintf("%s %s %s %s",
		padRight("Aggregate", 22), padLeft("Baseline", 14), padLeft("Candidate", 14), padLeft("Change", 10))
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n")
	b.WriteString(v.rule("="))
	b.WriteString("\n")

	for _, d := range c.Deltas {
		change := padLeft(FormatRatio(d.Ratio), 10)
		switch {
		case d.Ratio > 1:
			change = lipgloss.NewStyle().Foreground(styles.Emerald).Render(change)
		case d.Ratio > 0 && d.Ratio < 1:
			change = lipgloss.NewStyle().Foreground(styles.Rose).Render(change)
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			padRight(d.Key, 22),
			padLeft(FormatScore(d.Baseline), 14),
			padLeft(FormatScore(d.Candidate), 14),
			change))
	}

	for _, w := range c.Warnings {
		b.WriteString("\n")
		b.WriteString(styles.Warning.Render("warning: " + w))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderProgress renders a one-line progress entry for a workload event.
func (v *BenchmarkView) RenderProgress(p benchmark.Progress) string {
	counter := styles.Muted.Render(fmt.Sprintf("[%*d/%d]", len(fmt.Sprint(p.Total)), p.Index, p.Total))
	suite := padRight(p.Suite.Key(), 12)

	if !p.Done || p.Record == nil {
		return fmt.Sprintf("%s %s %s %s", counter, statusCell("running"), suite, p.Name)
	}

	w := *p.Record
	line := fmt.Sprintf("%s %s %s %s %s %s",
		counter,
		statusCell(string(w.Status)),
		suite,
		padRight(w.Name, 30),
		padLeft(benchmark.FormatElapsed(w.Elapsed), 10),
		padLeft(FormatScore(w.Score), 14))
	if w.Status == benchmark.StatusFailed {
		line += " " + styles.Error.Render(w.Error)
	}
	return line
}

// RenderBenchmarkError formats a run-level error.
func RenderBenchmarkError(err error) string {
	errorStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Rose).
		Padding(0, 2).
		Foreground(styles.Rose).
		Bold(true)

	return errorStyle.Render(fmt.Sprintf("Benchmark Error: %s", err.Error()))
}
