// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, titles, aggregate scores
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, workload names, info
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Passed workloads
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Failed workloads, errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Running workloads, warnings
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextMuted - Skipped workloads, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// Gradient start/end for the progress bar
var (
	GradientStart = "#A78BFA"
	GradientEnd   = "#22D3EE"
)

// =============================================================================
// ACCESSIBILITY: Shapes alongside colors
// =============================================================================

// StatusIndicatorSet contains text indicators for workload states.
type StatusIndicatorSet struct {
	Passed  string
	Failed  string
	Skipped string
	Running string
	Pending string
}

// StatusIndicators are ASCII-only so they survive any terminal.
var StatusIndicators = StatusIndicatorSet{
	Passed:  "[OK]",
	Failed:  "[X]",
	Skipped: "[-]",
	Running: "[.]",
	Pending: "[ ]",
}

// Status returns the indicator and color for a workload status string
// (passed, failed, skipped, running, pending).
func Status(status string) (string, lipgloss.AdaptiveColor) {
	switch status {
	case "passed":
		return StatusIndicators.Passed, Emerald
	case "failed":
		return StatusIndicators.Failed, Rose
	case "skipped":
		return StatusIndicators.Skipped, TextMuted
	case "running":
		return StatusIndicators.Running, Amber
	default:
		return StatusIndicators.Pending, TextMuted
	}
}

// RenderStatus renders the indicator for status in its color.
func RenderStatus(status string) string {
	indicator, color := Status(status)
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(indicator)
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// Title is used for view headers.
	Title = lipgloss.NewStyle().Bold(true).Foreground(Purple)

	// Section is used for table headings.
	Section = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	// Box frames summary panels.
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2)

	// Muted is used for secondary text.
	Muted = lipgloss.NewStyle().Foreground(TextMuted)

	// Error is used for error text.
	Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	// Warning is used for warnings.
	Warning = lipgloss.NewStyle().Foreground(Amber)
)
