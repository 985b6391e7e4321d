package sequencer

import "time"

// Sink receives the notes and controls voices emit. Implementations queue
// and return immediately; the clock goroutine never waits on a device.
// Channels are 1-based, values are 0-127 and velocity 0 is a note off.
type Sink interface {
	SendNote(channel, pitch, velocity int)
	SendControl(channel, controller, value int)
}

// NopSink discards everything
type NopSink struct{}

func (NopSink) SendNote(channel, pitch, velocity int)      {}
func (NopSink) SendControl(channel, controller, value int) {}

// Tee sends everything to each sink in order
type Tee []Sink

func (t Tee) SendNote(channel, pitch, velocity int) {
	for _, s := range t {
		s.SendNote(channel, pitch, velocity)
	}
}

func (t Tee) SendControl(channel, controller, value int) {
	for _, s := range t {
		s.SendControl(channel, controller, value)
	}
}

// PulseKind distinguishes clock ticks from transport messages
type PulseKind uint8

const (
	PulseTick PulseKind = iota
	PulseStart
	PulseContinue
	PulseStop
)

func (k PulseKind) String() string {
	switch k {
	case PulseTick:
		return "tick"
	case PulseStart:
		return "start"
	case PulseContinue:
		return "continue"
	case PulseStop:
		return "stop"
	}
	return "unknown"
}

// Pulse is one message from an external clock source
type Pulse struct {
	Kind PulseKind
	At   time.Time
}

// ControlValue is an incoming controller message normalized to [0,1]
type ControlValue struct {
	ID    int
	Value float64
}

// NoteInput is a note played into the engine. It is routed to the voice on
// the same channel.
type NoteInput struct {
	Channel  int
	Pitch    int
	Velocity int
}

// Receiver accepts input from transport goroutines. Every method must be
// safe to call concurrently and must not block.
type Receiver interface {
	Pulse(p Pulse)
	Control(c ControlValue)
	Note(n NoteInput)
}
