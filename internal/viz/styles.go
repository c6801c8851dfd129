package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/nonsmooth/internal/link"
)

// Styles are the lipgloss styles of one theme.
type Styles struct {
	theme  Theme
	Canvas lipgloss.Style
	Panel  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Graph  lipgloss.Style
	Help   lipgloss.Style
	Alert  lipgloss.Style
	Select lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		theme:  t,
		Canvas: lipgloss.NewStyle().Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Border).
			Padding(1, 2).
			Width(48),
		Header: lipgloss.NewStyle().Foreground(t.Title).Bold(true).MarginBottom(1),
		Label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:  lipgloss.NewStyle().Foreground(t.Text),
		Graph:  lipgloss.NewStyle().Foreground(t.Graph).Padding(1, 0),
		Help:   lipgloss.NewStyle().Foreground(t.Border).MarginTop(1),
		Alert:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		Select: lipgloss.NewStyle().Foreground(t.Active).Bold(true),
	}
}

func (s Styles) Theme() Theme { return s.theme }

// Row renders a label/value line.
func (s Styles) Row(label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value) + "\n"
}

// Status renders a slot status in its theme color.
func (s Styles) Status(st link.Status) string {
	c := s.theme.Inactive
	switch st {
	case link.Active:
		c = s.theme.Active
	case link.Sticking:
		c = s.theme.Sticking
	case link.Sliding:
		c = s.theme.Sliding
	}
	return lipgloss.NewStyle().Foreground(c).Width(9).Render(st.String())
}

// ProgressBar renders the fraction done as a bar of width cells.
func (s Styles) ProgressBar(frac float64, width int) string {
	filled := int(math.Round(frac * float64(width)))
	filled = max(0, min(width, filled))
	return lipgloss.NewStyle().Foreground(s.theme.Graph).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(s.theme.Border).Render(strings.Repeat("░", width-filled))
}

var sparkChars = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values scaled between their minimum
// and maximum. NaN values render as blanks.
func Sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !math.IsNaN(v) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	rng := hi - lo
	if rng <= 0 || math.IsInf(rng, 0) {
		rng = 1
	}
	var b strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			b.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / rng * float64(len(sparkChars)-1))
		b.WriteRune(sparkChars[max(0, min(len(sparkChars)-1, idx))])
	}
	return b.String()
}

// FormatValue prints v compactly; NaN prints as a dash.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}
