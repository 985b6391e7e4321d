package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// System real-time messages
const (
	Clock    uint8 = 0xF8
	Start    uint8 = 0xFA
	Continue uint8 = 0xFB
	Stop     uint8 = 0xFC
)

// Event is one queued output message. Channel is 0-based on the wire.
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8
	Note     uint8 // key, or controller number for CC
	Velocity uint8 // velocity, or controller value for CC
}

// Message encodes the event for gomidi
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		if e.Velocity == 0 {
			return gomidi.NoteOff(e.Channel, e.Note)
		}
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}

// wireChannel maps 1-based voice channels onto 0-15
func wireChannel(channel int) uint8 {
	if channel < 1 {
		return 0
	}
	if channel > 16 {
		return 15
	}
	return uint8(channel - 1)
}

func data(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
