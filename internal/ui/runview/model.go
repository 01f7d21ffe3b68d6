// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package runview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/ui/components"
	"github.com/jeranaias/rigbench/internal/ui/styles"
)

// maxLogLines is how many finished workloads stay on screen.
const maxLogLines = 12

// =============================================================================
// MESSAGES
// =============================================================================

// ProgressMsg delivers a runner progress event.
type ProgressMsg struct {
	Progress benchmark.Progress
}

// DoneMsg signals that the run returned.
type DoneMsg struct {
	Result *benchmark.Result
	Err    error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the live run display.
type Model struct {
	view    *components.BenchmarkView
	bar     progress.Model
	spinner spinner.Model
	cancel  context.CancelFunc

	width     int
	start     time.Time
	current   benchmark.Progress
	completed int
	total     int
	failed    int
	log       []string

	canceling bool
	done      bool
	result    *benchmark.Result
	err       error
}

// New creates the run display. cancel is invoked when the user presses q or
// ctrl+c; it may be nil.
func New(cancel context.CancelFunc, width int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = lipgloss.NewStyle().Foreground(styles.Amber)

	m := Model{
		view:    components.NewBenchmarkView(width),
		bar:     progress.New(progress.WithGradient(styles.GradientStart, styles.GradientEnd)),
		spinner: sp,
		cancel:  cancel,
		start:   time.Now(),
	}
	m.setWidth(width)
	return m
}

func (m *Model) setWidth(width int) {
	if width <= 0 {
		width = 80
	}
	m.width = width
	m.view.SetWidth(width)
	m.bar.Width = width - 20
	if m.bar.Width < 20 {
		m.bar.Width = 20
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress events, key presses and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.canceling {
				// Second press: stop waiting for the current workload.
				return m, tea.Quit
			}
			m.canceling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.setWidth(msg.Width)
		return m, nil

	case ProgressMsg:
		m.handleProgress(msg.Progress)
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleProgress(p benchmark.Progress) {
	m.total = p.Total
	m.current = p
	if !p.Done {
		return
	}
	m.completed = p.Index
	if p.Record != nil && p.Record.Status == benchmark.StatusFailed {
		m.failed++
	}
	m.log = append(m.log, m.view.RenderProgress(p))
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

// Percent returns the completed fraction of the run.
func (m Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

// Result returns what the run returned, once DoneMsg arrived.
func (m Model) Result() (*benchmark.Result, error) {
	return m.result, m.err
}

// Canceled reports whether the user asked to stop.
func (m Model) Canceled() bool { return m.canceling }

// Done reports whether the run finished.
func (m Model) Done() bool { return m.done }

// View renders the display.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("rigbench"))
	if elapsed := time.Since(m.start).Truncate(time.Second); elapsed >= time.Second {
		b.WriteString(styles.Muted.Render("  elapsed " + benchmark.FormatDuration(elapsed)))
	}
	b.WriteString("\n\n")

	for _, line := range m.log {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.log) > 0 {
		b.WriteString("\n")
	}

	if !m.done {
		if m.current.Name != "" {
			b.WriteString(fmt.Sprintf("%s %s  %s\n",
				m.spinner.View(),
				lipgloss.NewStyle().Foreground(styles.Cyan).Render(m.current.Name),
				styles.Muted.Render(m.current.Suite.Key())))
		} else {
			b.WriteString(m.spinner.View() + " preparing workloads\n")
		}
	}

	counter := fmt.Sprintf(" %d/%d", m.completed, m.total)
	if m.failed > 0 {
		counter += styles.Error.Render(fmt.Sprintf("  %d failed", m.failed))
	}
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(counter)
	b.WriteString("\n\n")

	switch {
	case m.canceling && !m.done:
		b.WriteString(styles.Warning.Render("canceling after the current workload (press q again to quit now)"))
	case !m.done:
		b.WriteString(styles.Muted.Render("q: cancel"))
	}
	b.WriteString("\n")

	return b.String()
}
