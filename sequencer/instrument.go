package sequencer

// Control maps a named voice attribute to a MIDI controller number
type Control struct {
	Name    string  `json:"name"`
	ID      int     `json:"id"`
	Default float64 `json:"default"`
}

// Instrument describes the controls of an external device. A voice built
// with an instrument gets one tweenable attribute per control and sends a
// controller message whenever the integer value changes.
type Instrument struct {
	Name     string    `json:"name"`
	Controls []Control `json:"controls"`
	Kit      *Chord    `json:"kit,omitempty"` // drum map played instead of a scale

	// Levels makes each kit part's control a per-note level: the controller
	// carries the note velocity and the note itself goes out at full velocity.
	Levels bool `json:"levels,omitempty"`
}

// Control returns the descriptor for name
func (in *Instrument) Control(name string) (Control, bool) {
	if in == nil {
		return Control{}, false
	}
	for _, c := range in.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// Part returns the control addressed by a kit pitch. Part i of the kit
// scale is Controls[i].
func (in *Instrument) Part(pitch int) (Control, bool) {
	if in == nil || in.Kit == nil {
		return Control{}, false
	}
	for i, d := range in.Kit.Scale {
		if in.Kit.Root+d == pitch && i < len(in.Controls) {
			return in.Controls[i], true
		}
	}
	return Control{}, false
}

// Volcabeats on channel 10: a drum kit addressed through a chord, plus one
// level controller per drum part. The device ignores note velocity, so
// dynamics travel on the part level.
func Volcabeats() *Instrument {
	parts := []string{"kick", "snare", "lotom", "hitom", "clhat", "ophat", "clap", "claves", "agogo", "crash"}
	kit := VolcabeatsKit
	in := &Instrument{Name: "volcabeats", Kit: &kit, Levels: true}
	for i, p := range parts {
		in.Controls = append(in.Controls, Control{Name: p, ID: 40 + i, Default: 127})
	}
	return in
}

// VolcabeatsKit is the drum layout of Volcabeats, as a scale on C2
var VolcabeatsKit = Chord{Root: 36, Scale: Scale{0, 2, 7, 14, 6, 10, 3, 39, 31, 13}}
