package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"go-braid/theme"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderSteps(t *testing.T) {
	th := theme.New(nil)
	tests := []struct {
		name         string
		steps, index int
		running      bool
		max          int
		want         string
	}{
		{"playhead", 4, 1, true, 0, "· ▶ · ·"},
		{"stopped", 3, 0, false, 0, "- - -"},
		{"cut", 5, 0, true, 2, "▶ · …"},
		{"empty", 0, 0, true, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderSteps(th, tt.steps, tt.index, tt.running, tt.max); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMeter(t *testing.T) {
	th := theme.New(nil)
	got := Meter(th, 0.5, 4)
	if strings.Count(got, "█") != 2 || strings.Count(got, "░") != 2 {
		t.Errorf("Meter(0.5) = %q", got)
	}
	if got := Meter(th, 3, 2); got != "██" {
		t.Errorf("Meter clamps: %q", got)
	}
}
