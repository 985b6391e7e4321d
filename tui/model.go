package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-braid/midi"
	"go-braid/sequencer"
	"go-braid/theme"
	"go-braid/widgets"
)

const (
	refreshRate = 50 * time.Millisecond
	tempoStep   = 5
	maxCells    = 32
	maxLog      = 4
)

// Model is a read-only monitor of a running driver. Keys are turned into
// commands executed on the clock goroutine.
type Model struct {
	Driver   *sequencer.Driver
	Watcher  *midi.Watcher // may be nil
	Theme    *theme.Theme
	status   sequencer.Status
	log      []string
	quitting bool
}

type tickMsg time.Time

type errMsg struct{ err error }

type portMsg midi.PortEvent

func NewModel(d *sequencer.Driver, w *midi.Watcher, th *theme.Theme) Model {
	return Model{
		Driver:  d,
		Watcher: w,
		Theme:   th,
		status:  d.Status(),
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ListenForErrors waits for the next isolated failure from the driver
func ListenForErrors(d *sequencer.Driver) tea.Cmd {
	return func() tea.Msg {
		return errMsg{<-d.Errors()}
	}
}

// ListenForPorts waits for the next hot-plug event
func ListenForPorts(w *midi.Watcher) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-w.Events()
		if !ok {
			return nil
		}
		return portMsg(e)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refresh(), ListenForErrors(m.Driver)}
	if m.Watcher != nil {
		cmds = append(cmds, ListenForPorts(m.Watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Driver.Exec(func(d *sequencer.Driver) { d.Stop() })
			return m, tea.Quit

		case " ", "p":
			m.Driver.Exec(func(d *sequencer.Driver) {
				if d.State() == sequencer.Running {
					d.Pause()
				} else {
					d.Play()
				}
			})

		case "+", "=":
			m.Driver.Exec(func(d *sequencer.Driver) { d.SetTempo(d.Tempo() + tempoStep) })

		case "-", "_":
			m.Driver.Exec(func(d *sequencer.Driver) { d.SetTempo(d.Tempo() - tempoStep) })

		case "c":
			m.Driver.Exec(func(d *sequencer.Driver) { d.Clear() })

		case "t":
			m.Driver.Exec(func(d *sequencer.Driver) { d.ClearTriggers() })

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			ch := int(msg.String()[0] - '0')
			m.Driver.Exec(func(d *sequencer.Driver) {
				if v := d.VoiceOn(ch); v != nil {
					v.Mute = !v.Mute
					if v.Mute {
						v.End()
					}
				}
			})
		}

	case tickMsg:
		m.status = m.Driver.Status()
		return m, refresh()

	case errMsg:
		m.push(fmt.Sprintf("error: %v", msg.err))
		return m, ListenForErrors(m.Driver)

	case portMsg:
		dir := "out"
		if msg.Input {
			dir = "in"
		}
		m.push(fmt.Sprintf("%s port %s %s", dir, msg.Name, msg.Type))
		return m, ListenForPorts(m.Watcher)
	}

	return m, nil
}

func (m *Model) push(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLog {
		m.log = m.log[len(m.log)-maxLog:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	textStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	s := m.status
	header := headerStyle.Render(fmt.Sprintf("go-braid  %s  %5.1fbpm  cycle:%7.2f  triggers:%d",
		s.State, s.BPM, s.Cycles, s.Triggers))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(widgets.Meter(m.Theme, s.Cycles-float64(int(s.Cycles)), 32))
	out.WriteString("\n\n")

	if len(s.Voices) == 0 {
		out.WriteString(dimStyle.Render("no voices"))
		out.WriteString("\n")
	}
	for _, v := range s.Voices {
		label := fmt.Sprintf("ch%-2d %3d ", v.Channel, v.Pitch)
		switch {
		case v.Mute:
			label += "mute "
		case v.Sequence:
			label += "seq  "
		default:
			label += "     "
		}
		out.WriteString(textStyle.Render(label))
		out.WriteString(widgets.RenderSteps(m.Theme, v.Steps, v.Index, v.Running, maxCells))
		out.WriteString("  ")
		out.WriteString(dimStyle.Render(v.Pattern))
		out.WriteString("\n")
	}

	if len(m.log) > 0 {
		out.WriteString("\n")
		for _, line := range m.log {
			out.WriteString(warnStyle.Render(line))
			out.WriteString("\n")
		}
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("space:play/pause  +/-:tempo  1-9:mute  c:clear  t:triggers  q:quit"))
	return out.String()
}
