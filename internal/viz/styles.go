package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles derived from a Theme.
type palette struct {
	header lipgloss.Style
	cloud  lipgloss.Style
	graph  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	help   lipgloss.Style
	status lipgloss.Style
	paused lipgloss.Style
	failed lipgloss.Style
	panel  lipgloss.Style
	spark  lipgloss.Style
	canvas lipgloss.Style
	cursor lipgloss.Style
	subtle lipgloss.Style
}

func newPalette(t Theme) palette {
	return palette{
		header: lipgloss.NewStyle().Foreground(t.Title).Bold(true).MarginBottom(1),
		cloud:  lipgloss.NewStyle().Foreground(t.Cloud),
		graph:  lipgloss.NewStyle().Foreground(t.Graph).Padding(1, 0),
		label:  lipgloss.NewStyle().Foreground(t.Label).Width(16),
		value:  lipgloss.NewStyle().Foreground(t.Value),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		status: lipgloss.NewStyle().Foreground(t.Graph).Bold(true),
		paused: lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		failed: lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(48),
		spark:  lipgloss.NewStyle().Foreground(t.Graph),
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Cloud),
		cursor: lipgloss.NewStyle().Foreground(t.Cloud).Bold(true),
		subtle: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// ProgressBar renders a fraction in [0, 1] as a bar of the given width.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values as a one-line chart. Non-finite
// values render as blanks.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo
	if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / span * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

func Separator(width int) string {
	return strings.Repeat("─", width)
}
