package tui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-braid/sequencer"
	"go-braid/theme"
)

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel() (Model, *sequencer.Driver) {
	d := sequencer.NewDriver(sequencer.Options{})
	d.NewVoice(1, sequencer.WithPattern(sequencer.Steps(1, 2, 3)))
	return NewModel(d, nil, theme.New(nil)), d
}

func TestKeysRunOnClock(t *testing.T) {
	m, d := newTestModel()
	start := time.Unix(0, 0)

	next, _ := m.Update(key(" "))
	m = next.(Model)
	if err := d.Tick(start); err != nil {
		t.Fatal(err)
	}
	if d.State() != sequencer.Running {
		t.Fatalf("state = %v after space", d.State())
	}

	next, _ = m.Update(key("+"))
	m = next.(Model)
	next, _ = m.Update(key("1"))
	m = next.(Model)
	if err := d.Tick(start.Add(10 * time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	if math.Abs(d.Tempo()-(sequencer.DefaultBPM+tempoStep)) > 1e-9 {
		t.Errorf("tempo = %v", d.Tempo())
	}
	if !d.VoiceOn(1).Mute {
		t.Error("voice 1 not muted")
	}

	next, cmd := m.Update(key("q"))
	if cmd == nil || !next.(Model).quitting {
		t.Fatal("q did not quit")
	}
	d.Tick(start.Add(20 * time.Millisecond))
	if d.State() != sequencer.Stopped {
		t.Errorf("state = %v after quit", d.State())
	}
}

func TestViewShowsStatus(t *testing.T) {
	m, _ := newTestModel()
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	next, _ = m.Update(errMsg{errors.New("boom")})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"go-braid", "STOP", "ch1", "1 2 3", "error: boom"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestLogIsBounded(t *testing.T) {
	m, _ := newTestModel()
	for i := 0; i < maxLog+3; i++ {
		m.push("line")
	}
	if len(m.log) != maxLog {
		t.Errorf("log holds %d lines", len(m.log))
	}
}
