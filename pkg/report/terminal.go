package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// TerminalReporter renders comparison reports with colors and bar charts.
type TerminalReporter struct {
	out        io.Writer
	comparator *Comparator
	noColor    bool

	successStyle lipgloss.Style
	failedStyle  lipgloss.Style
	headerStyle  lipgloss.Style
	dimStyle     lipgloss.Style
	boldStyle    lipgloss.Style
	barStyle     lipgloss.Style
	winnerStyle  lipgloss.Style
	latencyStyle lipgloss.Style
}

// NewTerminalReporter creates a reporter writing to stdout.
func NewTerminalReporter(comparator *Comparator) *TerminalReporter {
	return NewTerminalReporterWithOutput(os.Stdout, comparator)
}

// NewTerminalReporterWithOutput creates a reporter with custom output.
func NewTerminalReporterWithOutput(out io.Writer, comparator *Comparator) *TerminalReporter {
	return &TerminalReporter{
		out:        out,
		comparator: comparator,

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}),

		failedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}),

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
			Bold(true),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),

		boldStyle: lipgloss.NewStyle().Bold(true),

		barStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),

		winnerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}).
			Bold(true),

		latencyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
	}
}

// SetNoColor disables color output.
func (r *TerminalReporter) SetNoColor(noColor bool) {
	r.noColor = noColor
}

// RenderReport renders a full comparison for a contract.
func (r *TerminalReporter) RenderReport(contract string, limit int) error {
	if r.comparator == nil {
		return fmt.Errorf("comparator unavailable")
	}
	report, err := r.comparator.Compare(contract, limit)
	if err != nil {
		return err
	}

	r.renderHeader(report)
	r.renderResultsTable(report)
	r.renderSuccessChart(report)
	r.renderLatencyChart(report)
	r.renderWinner(report)
	return nil
}

func (r *TerminalReporter) renderHeader(report *ComparisonReport) {
	width := r.terminalWidth()
	title := fmt.Sprintf("Contract: %s", report.Contract)
	counts := fmt.Sprintf("(%d invocations, %d recovered, %d failed)",
		report.TotalInvocations, report.Recovered, report.Failed)

	fmt.Fprintln(r.out, r.style(r.headerStyle, title)+" "+r.style(r.dimStyle, counts))
	fmt.Fprintln(r.out, r.style(r.dimStyle, strings.Repeat("─", min(width-2, 70))))
	fmt.Fprintln(r.out)
}

func (r *TerminalReporter) renderResultsTable(report *ComparisonReport) {
	fmt.Fprintf(r.out, "%-16s │ %8s │ %8s │ %8s │ %8s │ %8s\n",
		r.style(r.boldStyle, "Trial"),
		r.style(r.boldStyle, "Success"),
		r.style(r.boldStyle, "Attempts"),
		r.style(r.boldStyle, "Rescues"),
		r.style(r.boldStyle, "p50"),
		r.style(r.boldStyle, "p95"),
	)
	fmt.Fprintln(r.out, strings.Repeat("─", 16)+"─┼"+strings.Repeat("─", 10)+"┼"+
		strings.Repeat("─", 10)+"┼"+strings.Repeat("─", 10)+"┼"+
		strings.Repeat("─", 10)+"┼"+strings.Repeat("─", 10))

	for _, ranking := range report.Rankings {
		t := findTrialReport(report.Trials, ranking.Key)
		if t == nil {
			continue
		}

		var indicator string
		switch {
		case t.Attempts == 0:
			indicator = r.style(r.dimStyle, "○")
		case t.Failures == 0:
			indicator = r.style(r.successStyle, "✓")
		default:
			indicator = r.style(r.failedStyle, "✗")
		}

		fmt.Fprintf(r.out, "%s %-14s │ %8s │ %8d │ %8d │ %8s │ %8s\n",
			indicator,
			truncateString(t.Key, 14),
			fmt.Sprintf("%.0f%%", t.SuccessRate*100),
			t.Attempts,
			t.Rescues,
			formatDurationMs(t.P50Ms),
			formatDurationMs(t.P95Ms),
		)
	}
	fmt.Fprintln(r.out)
}

func (r *TerminalReporter) renderSuccessChart(report *ComparisonReport) {
	fmt.Fprintln(r.out, r.style(r.boldStyle, "Success Rate:"))

	entries := make([]TrialReport, len(report.Trials))
	copy(entries, report.Trials)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SuccessRate > entries[j].SuccessRate
	})

	barWidth := r.chartBarWidth()
	for _, t := range entries {
		label := truncateString(t.Key, 14)
		bar := r.buildBar(t.SuccessRate, 1.0, barWidth)
		fmt.Fprintf(r.out, "%-14s %s %s\n",
			label,
			r.style(r.barStyle, bar),
			r.style(r.successStyle, fmt.Sprintf("%.0f%%", t.SuccessRate*100)),
		)
	}
	fmt.Fprintln(r.out)
}

func (r *TerminalReporter) renderLatencyChart(report *ComparisonReport) {
	fmt.Fprintln(r.out, r.style(r.boldStyle, "Latency (p50):"))

	entries := make([]TrialReport, len(report.Trials))
	copy(entries, report.Trials)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].P50Ms > entries[j].P50Ms
	})

	var maxMs int64
	for _, t := range entries {
		if t.P50Ms > maxMs {
			maxMs = t.P50Ms
		}
	}

	barWidth := r.chartBarWidth()
	for _, t := range entries {
		label := truncateString(t.Key, 14)
		bar := r.buildBar(float64(t.P50Ms), float64(maxMs), barWidth)
		fmt.Fprintf(r.out, "%-14s %s %s\n",
			label,
			r.style(r.barStyle, bar),
			r.style(r.latencyStyle, formatDurationMs(t.P50Ms)),
		)
	}
	fmt.Fprintln(r.out)
}

func (r *TerminalReporter) buildBar(value, maxValue float64, width int) string {
	if maxValue == 0 {
		return strings.Repeat("░", width)
	}

	filled := int(value / maxValue * float64(width))
	if filled > width {
		filled = width
	}
	if value > 0 && filled == 0 {
		filled = 1
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (r *TerminalReporter) renderWinner(report *ComparisonReport) {
	if len(report.Rankings) == 0 {
		return
	}

	winner := report.Rankings[0]
	t := findTrialReport(report.Trials, winner.Key)
	if t == nil {
		return
	}

	var reasons []string
	if winner.Score >= 1.0 {
		reasons = append(reasons, "100% success")
	}
	fastest := true
	for _, other := range report.Trials {
		if other.Key != winner.Key && other.P50Ms > 0 && other.P50Ms < t.P50Ms {
			fastest = false
			break
		}
	}
	if fastest && t.P50Ms > 0 {
		reasons = append(reasons, "fastest")
	}

	reasonStr := ""
	if len(reasons) > 0 {
		reasonStr = " (" + strings.Join(reasons, ", ") + ")"
	}

	fmt.Fprintf(r.out, "%s %s%s\n",
		r.style(r.winnerStyle, "Winner:"),
		r.style(r.boldStyle, winner.Key),
		r.style(r.dimStyle, reasonStr),
	)
}

// RenderCompact renders a one-line summary per trial.
func (r *TerminalReporter) RenderCompact(contract string, limit int) error {
	if r.comparator == nil {
		return fmt.Errorf("comparator unavailable")
	}
	report, err := r.comparator.Compare(contract, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%s %s\n",
		r.style(r.boldStyle, report.Contract),
		r.style(r.dimStyle, fmt.Sprintf("(%d invocations)", report.TotalInvocations)),
	)
	for _, ranking := range report.Rankings {
		t := findTrialReport(report.Trials, ranking.Key)
		if t == nil {
			continue
		}
		var indicator string
		switch {
		case t.Attempts == 0:
			indicator = r.style(r.dimStyle, "○")
		case t.Failures == 0:
			indicator = r.style(r.successStyle, "✓")
		default:
			indicator = r.style(r.failedStyle, "✗")
		}
		fmt.Fprintf(r.out, "  %s %s %.0f%% %s\n",
			indicator,
			truncateString(t.Key, 20),
			ranking.Score*100,
			formatDurationMs(t.P50Ms),
		)
	}
	return nil
}

func (r *TerminalReporter) style(s lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return s.Render(text)
}

func (r *TerminalReporter) terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		return 80
	}
	return width
}

func (r *TerminalReporter) chartBarWidth() int {
	width := r.terminalWidth()
	barWidth := width - 14 - 12
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}
	return barWidth
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
