package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/stepbind/pkg/dispatch"
)

var (
	passStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	undefinedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	skipStyle      = lipgloss.NewStyle().Faint(true)
	headerStyle    = lipgloss.NewStyle().Bold(true)
)

func statusStyle(s dispatch.Status) lipgloss.Style {
	switch s {
	case dispatch.Passed:
		return passStyle
	case dispatch.Failed, dispatch.Ambiguous:
		return failStyle
	case dispatch.Undefined:
		return undefinedStyle
	}
	return skipStyle
}

func statusMark(s dispatch.Status) string {
	switch s {
	case dispatch.Passed:
		return "✓"
	case dispatch.Failed, dispatch.Ambiguous:
		return "✗"
	case dispatch.Undefined:
		return "?"
	}
	return "-"
}

// Printer renders a run result as a styled terminal report.
type Printer struct {
	out io.Writer
}

// NewPrinter writes reports to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Run prints every feature, scenario, and step of the result,
// followed by the run summary.
func (p *Printer) Run(res *dispatch.RunResult) {
	width := stepColumnWidth(res)
	for _, f := range res.Features {
		fmt.Fprintln(p.out, headerStyle.Render("Feature: "+f.Name))
		for _, sc := range f.Scenarios {
			fmt.Fprintf(p.out, "  Scenario: %s\n", sc.Name)
			for _, st := range sc.Steps {
				p.step(st, width)
			}
			for _, err := range sc.Secondary {
				fmt.Fprintf(p.out, "    %s\n", failStyle.Render("also: "+err.Error()))
			}
		}
		fmt.Fprintln(p.out)
	}
	p.Summary(res)
}

func (p *Printer) step(st dispatch.StepResult, width int) {
	style := statusStyle(st.Status)
	label := st.Keyword + " " + st.Text
	pad := strings.Repeat(" ", width-runewidth.StringWidth(label))
	line := fmt.Sprintf("    %s %s%s  %s", statusMark(st.Status), label, pad, st.Status)
	fmt.Fprintln(p.out, style.Render(line))
	if st.Err != nil && st.Status != dispatch.Skipped {
		fmt.Fprintf(p.out, "      %s\n", failStyle.Render(st.Err.Error()))
	}
}

// Summary prints the step and scenario counts.
func (p *Printer) Summary(res *dispatch.RunResult) {
	passed, failed := 0, 0
	for _, f := range res.Features {
		passed += f.ScenariosPassed
		failed += f.ScenariosFailed
	}
	verdict := passStyle.Render("PASS")
	if res.Failed() {
		verdict = failStyle.Render("FAIL")
	}
	fmt.Fprintf(p.out, "%s  scenarios: %d passed, %d failed — steps: %d passed, %d failed, %d undefined, %d skipped, %d ambiguous (%s)\n",
		verdict, passed, failed,
		res.Steps.Passed, res.Steps.Failed, res.Steps.Undefined, res.Steps.Skipped, res.Steps.Ambiguous,
		res.EndedAt.Sub(res.StartedAt).Round(time.Millisecond))
}

// stepColumnWidth computes the padding column so step statuses align,
// using display width rather than byte length.
func stepColumnWidth(res *dispatch.RunResult) int {
	width := 0
	for _, f := range res.Features {
		for _, sc := range f.Scenarios {
			for _, st := range sc.Steps {
				if w := runewidth.StringWidth(st.Keyword + " " + st.Text); w > width {
					width = w
				}
			}
		}
	}
	return width
}
