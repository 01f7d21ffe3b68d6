// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders benchmark data for the terminal.

BenchmarkView (benchmark_view.go) turns results, comparisons and progress
events into styled text:

	view := components.NewBenchmarkView(width)
	fmt.Println(view.RenderResult(result))

Column widths are measured with go-runewidth, and padding is applied before
any lipgloss styling so escape sequences never count toward a column.
Scores use English thousands separators via golang.org/x/text/message.
*/
package components
