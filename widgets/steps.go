package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-braid/theme"
)

// RenderSteps draws one cell per step with the playhead on index.
// Long patterns are cut to max cells.
func RenderSteps(th *theme.Theme, steps, index int, running bool, max int) string {
	if steps <= 0 {
		return ""
	}
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	head := lipgloss.NewStyle().Foreground(th.Active()).Bold(true)

	n := steps
	if max > 0 && n > max {
		n = max
	}
	var out strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			out.WriteString(" ")
		}
		switch {
		case !running:
			out.WriteString(dim.Render(string(th.Symbols.StepIdle)))
		case i == index:
			out.WriteString(head.Render(string(th.Symbols.StepPlayhead)))
		default:
			out.WriteString(dim.Render(string(th.Symbols.StepEmpty)))
		}
	}
	if n < steps {
		out.WriteString(dim.Render(" …"))
	}
	return out.String()
}

// Meter renders value in [0,1] as a bar of width cells
func Meter(th *theme.Theme, value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	full := int(value*float64(width) + 0.5)
	fill := lipgloss.NewStyle().Foreground(th.Color(value))
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	return fill.Render(strings.Repeat("█", full)) + dim.Render(strings.Repeat("░", width-full))
}
