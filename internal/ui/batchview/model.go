// Package batchview provides a Bubble Tea progress view for batch scoring
// runs. It subscribes to work pool events and renders per-article results as
// they land, then a summary when the batch drains.
package batchview

import (
	"fmt"
	"strings"

	"github.com/abelbrown/baitline/internal/work"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#58a6ff"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3fb950"))

	baitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d29922"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f85149"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#484f58"))
)

// maxLines caps the scrollback of finished items.
const maxLines = 15

type eventMsg work.Event

// Model is the Bubble Tea model for a batch run.
type Model struct {
	events  <-chan work.Event
	spinner spinner.Model

	total     int
	completed int
	failed    int
	lines     []string
	done      bool
	width     int
}

// New creates a batch view over a subscribed event channel.
// total is the number of score items expected.
func New(events <-chan work.Event, total int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))

	return Model{
		events:  events,
		spinner: s,
		total:   total,
	}
}

// Done reports whether every expected item has finished.
func (m Model) Done() bool { return m.done }

// Failed returns the number of failed items.
func (m Model) Failed() int { return m.failed }

// Init starts the spinner and the event listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// waitForEvent blocks on the next pool event.
func waitForEvent(events <-chan work.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(evt)
	}
}

// Update handles spinner ticks, pool events, and quit keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m = m.applyEvent(work.Event(msg))
		if m.done {
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	}

	return m, nil
}

// applyEvent folds one pool event into the view state.
func (m Model) applyEvent(evt work.Event) Model {
	if evt.Item == nil || evt.Item.Type != work.TypeScore {
		return m
	}

	switch evt.Change {
	case "completed":
		m.completed++
		m.lines = appendLine(m.lines, renderResult(evt.Item))
	case "failed":
		m.failed++
		m.lines = appendLine(m.lines, renderFailure(evt.Item))
	default:
		return m
	}

	if m.completed+m.failed >= m.total {
		m.done = true
	}
	return m
}

func appendLine(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

func renderResult(item *work.Item) string {
	result := item.Result
	style := okStyle
	if strings.HasPrefix(result, "clickbait") {
		style = baitStyle
	}
	return fmt.Sprintf("%s %s  %s",
		style.Render(item.StatusIcon()),
		truncate(item.Description, 50),
		style.Render(result))
}

func renderFailure(item *work.Item) string {
	errStr := "unknown error"
	if item.Error != nil {
		errStr = item.Error.Error()
	}
	return fmt.Sprintf("%s %s  %s",
		failedStyle.Render(item.StatusIcon()),
		truncate(item.Description, 50),
		failedStyle.Render(truncate(errStr, 40)))
}

// View renders progress and the recent results.
func (m Model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("SCORING %s", m.spinner.View())
	if m.done {
		header = "SCORING done"
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("  ")
	b.WriteString(statsStyle.Render(fmt.Sprintf("%d of %d", m.completed+m.failed, m.total)))
	if m.failed > 0 {
		b.WriteString("  ")
		b.WriteString(failedStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("q:quit"))
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
