// Package tui implements the trace browser: a terminal view over a
// finished run's trace events, grouped by feature and scenario.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/stepbind/pkg/report"
)

// rowKind distinguishes list rows.
type rowKind int

const (
	rowFeature rowKind = iota
	rowScenario
	rowStep
	rowHook
)

// row is one navigable line of the browser.
type row struct {
	kind     rowKind
	label    string
	status   string
	duration time.Duration
	detail   string // error text or markdown description for the detail pane
}

// Model is the Bubble Tea model for the trace browser.
type Model struct {
	title      string
	rows       []row
	selected   int
	showDetail bool
	detail     viewport.Model
	width      int
	height     int
}

// NewModel builds a browser over trace events, typically loaded with
// report.ReadTrace.
func NewModel(title string, events []report.Event) Model {
	var rows []row
	lastFeature, lastScenario := "", ""
	for _, evt := range events {
		if evt.Feature != lastFeature && evt.Feature != "" {
			rows = append(rows, row{kind: rowFeature, label: evt.Feature})
			lastFeature = evt.Feature
			lastScenario = ""
		}
		if evt.Scenario != lastScenario && evt.Scenario != "" {
			rows = append(rows, row{kind: rowScenario, label: evt.Scenario})
			lastScenario = evt.Scenario
		}
		switch {
		case evt.Step != nil:
			rows = append(rows, row{
				kind:     rowStep,
				label:    evt.Step.Keyword + " " + evt.Step.Text,
				status:   evt.Step.StatusStr,
				duration: evt.Step.Duration,
				detail:   evt.Step.Error,
			})
		case evt.Hook != nil && evt.Hook.Error != "":
			rows = append(rows, row{
				kind:   rowHook,
				label:  evt.Hook.Name + " hook",
				status: "failed",
				detail: evt.Hook.Error,
			})
		}
	}
	return Model{title: title, rows: rows, detail: viewport.New(0, 0)}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			m.syncDetail()
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
			m.syncDetail()
		case "enter":
			m.showDetail = !m.showDetail
			m.syncDetail()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 4
		m.detail.Height = msg.Height / 3
		m.syncDetail()
	}

	return m, nil
}

func (m *Model) syncDetail() {
	if !m.showDetail || m.selected >= len(m.rows) {
		return
	}
	m.detail.SetContent(renderMarkdown(m.rows[m.selected].detail))
	m.detail.GotoTop()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	b.WriteString(headerStyle.Render("  stepbind trace: " + m.title))
	b.WriteString("\n\n")

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	for i, r := range m.rows {
		line := m.renderRow(r)
		if i == m.selected {
			selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.showDetail && m.selected < len(m.rows) && m.rows[m.selected].detail != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  Detail:"))
		b.WriteString("\n")
		b.WriteString(m.detail.View())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  q: quit  ↑/↓: navigate  enter: detail"))
	return b.String()
}

func (m Model) renderRow(r row) string {
	switch r.kind {
	case rowFeature:
		return lipgloss.NewStyle().Bold(true).Render("Feature: " + r.label)
	case rowScenario:
		return "  Scenario: " + r.label
	}
	line := fmt.Sprintf("    %s %s", statusIcon(r.status), r.label)
	if r.duration > 0 {
		line += fmt.Sprintf("  %s", r.duration.Truncate(time.Millisecond))
	}
	return line
}

func statusIcon(status string) string {
	switch status {
	case "passed":
		return "✓"
	case "failed", "ambiguous":
		return "✗"
	case "undefined":
		return "?"
	case "skipped":
		return "⊘"
	}
	return "○"
}

// renderMarkdown converts markdown to styled terminal output, falling
// back to the raw input when rendering fails.
func renderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Run starts the browser over a trace file.
func Run(title, tracePath string) error {
	events, err := report.ReadTrace(tracePath)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(NewModel(title, events), tea.WithAltScreen()).Run()
	return err
}
