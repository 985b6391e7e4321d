package midi

import (
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-braid/debug"
	"go-braid/sequencer"
)

// In listens on a MIDI input port and forwards clock, transport, controller
// and note messages to a receiver.
type In struct {
	name string
	port drivers.In
	stop func()
}

// OpenIn listens on the first input port whose name contains name
func OpenIn(name string, recv sequencer.Receiver) (*In, error) {
	ports, err := ListPorts(ScanTimeout)
	if err != nil {
		return nil, err
	}
	port := ports.FindIn(name)
	if port == nil {
		return nil, fmt.Errorf("midi input %q not found", name)
	}
	return Listen(port, recv)
}

// Listen forwards everything arriving on port to recv
func Listen(port drivers.In, recv sequencer.Receiver) (*In, error) {
	in := &In{name: port.String(), port: port}
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		Translate(msg, time.Now(), recv)
	}, gomidi.UseTimeCode(), gomidi.HandleError(func(err error) {
		debug.Error("midi", err, "listener on %s", in.name)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", in.name, err)
	}
	in.stop = stop
	debug.Log("midi", "listening on %s", in.name)
	return in, nil
}

// Name is the port name
func (in *In) Name() string { return in.name }

// Close stops listening
func (in *In) Close() error {
	if in.stop != nil {
		in.stop()
		in.stop = nil
	}
	return nil
}

// Translate decodes one message and hands it to recv. It reports whether
// the message meant anything to the sequencer.
func Translate(msg gomidi.Message, at time.Time, recv sequencer.Receiver) bool {
	if len(msg) == 1 {
		switch msg[0] {
		case Clock:
			recv.Pulse(sequencer.Pulse{Kind: sequencer.PulseTick, At: at})
		case Start:
			recv.Pulse(sequencer.Pulse{Kind: sequencer.PulseStart, At: at})
		case Continue:
			recv.Pulse(sequencer.Pulse{Kind: sequencer.PulseContinue, At: at})
		case Stop:
			recv.Pulse(sequencer.Pulse{Kind: sequencer.PulseStop, At: at})
		default:
			return false
		}
		return true
	}

	var channel, key, value uint8
	switch {
	case msg.GetControlChange(&channel, &key, &value):
		recv.Control(sequencer.ControlValue{ID: int(key), Value: float64(value) / 127})
	case msg.GetNoteStart(&channel, &key, &value):
		recv.Note(sequencer.NoteInput{Channel: int(channel) + 1, Pitch: int(key), Velocity: int(value)})
	default:
		return false
	}
	return true
}
