package sequencer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go-braid/debug"
)

// PhaseCorrectionCycles is how long a rate change takes to drift back onto
// the master grid
const PhaseCorrectionCycles = 90.0

// maxGeneratorDepth bounds generators that return generators
const maxGeneratorDepth = 8

// NoteFunc replaces the default note emission of a voice
type NoteFunc func(v *Voice, pitch int, velocity float64)

// VoiceOption configures a Voice at construction
type VoiceOption func(*Voice)

// WithChord sets the root and scale degrees resolve against
func WithChord(root int, scale Scale) VoiceOption {
	return func(v *Voice) { v.Chord = &Chord{Root: root, Scale: scale} }
}

// WithInstrument adds one tweenable attribute per control. An instrument
// with a kit also sets the chord, and one with levels plays through
// LevelNote.
func WithInstrument(in *Instrument) VoiceOption {
	return func(v *Voice) {
		v.setInstrument(in)
		if in.Kit != nil {
			kit := *in.Kit
			v.Chord = &kit
		}
		if in.Levels {
			v.NoteFunc = LevelNote
		}
	}
}

// WithSink overrides the driver's output sink for this voice
func WithSink(s Sink) VoiceOption {
	return func(v *Voice) { v.sink = s }
}

// WithSeed makes random degrees and velocity humanization repeatable
func WithSeed(seed uint64) VoiceOption {
	return func(v *Voice) { v.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithPattern sets the initial pattern
func WithPattern(n Node) VoiceOption {
	return func(v *Voice) { v.pattern = n }
}

// WithNote overrides note emission
func WithNote(f NoteFunc) VoiceOption {
	return func(v *Voice) { v.NoteFunc = f }
}

// Voice performs patterns on one output channel. All methods must be called
// from the clock goroutine (trigger callbacks, generators, Driver.Exec).
type Voice struct {
	d    *Driver
	sink Sink
	rng  *rand.Rand

	Channel int
	Chord   *Chord // nil plays degrees as raw MIDI notes
	Mute    bool

	Velocity *Attribute
	Grace    *Attribute
	Phase    *Attribute

	// Rate is the voice's speed against the master clock. SetRate and
	// TweenRate re-lock at once; a rate changed through the attribute
	// itself re-locks on the first tick it holds still.
	Rate *Attribute

	// Humanize is the maximum random velocity reduction per note
	Humanize float64

	// Micro warps the in-cycle position before it is quantized to a step
	Micro func(p float64) float64

	NoteFunc NoteFunc

	correction *Attribute
	lockedRate float64 // rate at the last relock

	instrument *Instrument
	controls   map[string]*Attribute
	mirror     map[string]int

	pattern  Node
	sequence *Sequence

	steps      []Step
	index      int
	lastEdge   int
	cycles     float64
	origin     float64 // driver cycle position when the voice was started
	at         float64 // driver cycle position cycles was last advanced to
	traversals int

	prevPitch  int
	prevDegree int
	sounding   bool
	running    bool
}

func newVoice(d *Driver, channel int, opts ...VoiceOption) *Voice {
	v := &Voice{
		d:          d,
		sink:       d.sink,
		rng:        rand.New(rand.NewPCG(uint64(channel), uint64(len(d.voices)))),
		Channel:    channel,
		Chord:      &Chord{Root: C, Scale: MAJ},
		Velocity:   NewAttribute(1.0),
		Grace:      NewAttribute(0.75),
		Rate:       NewAttribute(1.0),
		Phase:      NewAttribute(0.0),
		Humanize:   0.05,
		correction: NewAttribute(0.0),
		lockedRate: 1.0,
		pattern:    Steps(0),
		steps:      []Step{Hold()},
		index:      -1,
		prevPitch:  C,
		prevDegree: 1,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Voice) setInstrument(in *Instrument) {
	v.instrument = in
	v.controls = make(map[string]*Attribute, len(in.Controls))
	v.mirror = make(map[string]int, len(in.Controls))
	for _, c := range in.Controls {
		v.controls[c.Name] = NewAttribute(c.Default)
	}
}

// Control returns the attribute for a named instrument control, or nil
func (v *Voice) Control(name string) *Attribute {
	return v.controls[name]
}

// Instrument returns the descriptor the voice was built with, or nil
func (v *Voice) Instrument() *Instrument { return v.instrument }

// Sink is where this voice's notes go
func (v *Voice) Sink() Sink { return v.sink }

// SetPattern plays n from the next cycle edge, replacing any sequence
func (v *Voice) SetPattern(n Node) {
	v.pattern = n
	v.sequence = nil
}

// SetSequence plays s from the next cycle edge
func (v *Voice) SetSequence(s *Sequence) {
	v.sequence = s
}

func (v *Voice) Pattern() Node            { return v.pattern }
func (v *Voice) Sequence() *Sequence      { return v.sequence }
func (v *Voice) Running() bool            { return v.running }
func (v *Voice) Index() int               { return v.index }
func (v *Voice) Cycles() float64          { return v.cycles }
func (v *Voice) Traversals() int          { return v.traversals }
func (v *Voice) PreviousPitch() int       { return v.prevPitch }
func (v *Voice) PreviousDegree() int      { return v.prevDegree }
func (v *Voice) PhaseCorrection() float64 { return v.correction.Value() }

// Steps is the resolved form of the current cycle
func (v *Voice) Steps() []Step {
	out := make([]Step, len(v.steps))
	copy(out, v.steps)
	return out
}

// Start makes the voice play from the next tick
func (v *Voice) Start() {
	if !v.running {
		v.origin = v.d.cycles
		v.at = v.d.cycles
	}
	v.running = true
}

// Stop halts the voice without a note off
func (v *Voice) Stop() {
	v.running = false
}

// Reset rewinds to the beginning of the pattern
func (v *Voice) Reset() {
	v.cycles = 0
	v.lastEdge = 0
	v.index = -1
	v.origin = v.d.cycles
	v.at = v.d.cycles
}

// SetRate changes the rate at once and drifts back onto the grid
func (v *Voice) SetRate(rate float64) {
	v.Rate.Set(rate)
	v.relock()
}

// TweenRate glides the rate to target over duration cycles. When it lands
// the voice is re-locked to the master grid and the phase jump is smoothed
// out by a correction tween over PhaseCorrectionCycles.
func (v *Voice) TweenRate(target, duration float64, opts ...TweenOption) *Tween {
	t := v.Rate.Tween(target, duration, opts...)
	user := t.onComplete
	t.onComplete = func() {
		v.relock()
		if user != nil {
			user()
		}
	}
	return t
}

// relock moves the voice onto the position it would have at the current
// rate had it always played at that rate, and compensates with a phase
// correction that decays to zero.
func (v *Voice) relock() {
	v.lockedRate = v.Rate.Value()
	ideal := (v.at - v.origin) * v.lockedRate
	diff := frac(v.cycles) - frac(ideal)
	switch {
	case diff >= 0.5:
		diff--
	case diff < -0.5:
		diff++
	}
	if diff == 0 {
		return
	}
	v.cycles -= diff
	v.lastEdge = int(math.Floor(v.cycles))
	v.correction.Set(v.correction.Value() + diff)
	v.correction.Tween(0, PhaseCorrectionCycles)
	debug.Log("voice", "ch=%d relock diff=%.4f", v.Channel, diff)
}

func (v *Voice) attributes() []*Attribute {
	attrs := []*Attribute{v.Velocity, v.Grace, v.Rate, v.Phase, v.correction}
	if v.instrument != nil {
		for _, c := range v.instrument.Controls {
			attrs = append(attrs, v.controls[c.Name])
		}
	}
	return attrs
}

// update advances the voice by dt seconds of wall time
func (v *Voice) update(dt float64) error {
	if !v.running {
		return nil
	}
	dc := dt * v.d.rate
	for _, a := range v.attributes() {
		if err := a.Update(dc); err != nil {
			v.isolate(err)
		}
	}
	if !v.Rate.Tweening() && v.Rate.Value() != v.lockedRate {
		v.relock()
	}
	v.updateControls()

	v.cycles += dc * v.Rate.Value()
	v.at = v.d.cycles
	p := frac(v.cycles + v.Phase.Value() + v.correction.Value())
	if v.Micro != nil {
		p = clamp(v.Micro(p), 0, math.Nextafter(1, 0))
	}
	i := int(p * float64(len(v.steps)))
	edge := int(math.Floor(v.cycles))

	var err error
	if i != v.index || (len(v.steps) == 1 && edge != v.lastEdge) {
		// one step per tick, never skip
		v.index = (v.index + 1) % len(v.steps)
		if v.index == 0 {
			v.cycleEdge()
		}
		err = v.play(v.steps[v.index], -1)
	}
	v.lastEdge = edge
	return err
}

// isolate logs a callback failure that must not stop the voice
func (v *Voice) isolate(err error) {
	debug.Error("voice", err, "ch=%d callback failed", v.Channel)
	v.d.report(err)
}

// cycleEdge picks up the next pattern and resolves it
func (v *Voice) cycleEdge() {
	v.traversals++
	if s := v.sequence; s != nil {
		n, ended, err := s.next(v)
		if err != nil {
			v.isolate(err)
		}
		// a sequence function may have swapped the sequence out
		if v.sequence == s {
			v.pattern = n
			if ended {
				v.sequence = nil
				if err := s.finish(v); err != nil {
					v.isolate(err)
				}
			}
		}
	}
	v.steps = Resolve(v.pattern)
}

// play interprets one step. velocity < 0 means no override.
func (v *Voice) play(step Step, velocity float64) error {
	for depth := 0; step.Kind == StepGenerator; depth++ {
		if step.Gen == nil {
			step = Hold()
			break
		}
		if depth == maxGeneratorDepth {
			return fmt.Errorf("generator nesting deeper than %d", maxGeneratorDepth)
		}
		step = step.Gen(v)
	}

	switch step.Kind {
	case StepCompound:
		a, b, mode, _ := step.Layers()
		if mode == LayerAccent {
			if b.Kind == StepVelocity {
				velocity = b.Velocity
			}
			return v.play(a, velocity)
		}
		if v.traversals%2 == 1 {
			return v.play(a, velocity)
		}
		return v.play(b, velocity)
	case StepRest:
		v.rest()
		return nil
	case StepHold, StepVelocity:
		v.hold()
		return nil
	}

	degree := step.Degree
	switch step.Kind {
	case StepPrev:
		degree = v.prevDegree
	case StepRandom:
		if v.Chord != nil && len(v.Chord.Scale) > 0 {
			degree = 1 + v.rng.IntN(len(v.Chord.Scale))
		} else {
			degree = v.prevDegree
		}
	}

	pitch := degree
	if v.Chord != nil {
		var err error
		if pitch, err = v.Chord.Pitch(degree); err != nil {
			return err
		}
	}

	if velocity < 0 {
		velocity = 1 - v.rng.Float64()*v.Humanize
	}
	velocity *= v.Velocity.Value()
	if step.Kind == StepGrace {
		velocity *= v.Grace.Value()
	}
	v.note(pitch, velocity)
	v.prevDegree = degree
	return nil
}

func (v *Voice) note(pitch int, velocity float64) {
	if v.Mute {
		v.prevPitch = pitch
		return
	}
	if v.NoteFunc != nil {
		v.NoteFunc(v, pitch, velocity)
	} else {
		v.SendNote(pitch, velocity)
	}
	v.prevPitch = pitch
}

// SendNote is the default emission: release the previous pitch, then sound
// the new one. Velocity is normalized.
func (v *Voice) SendNote(pitch int, velocity float64) {
	if v.Mute {
		return
	}
	if v.sounding {
		v.sink.SendNote(v.Channel, v.prevPitch, 0)
	}
	v.sink.SendNote(v.Channel, pitch, midiValue(velocity*127))
	v.sounding = true
}

// LevelNote sends the part level of a kit pitch, scaled by the part's
// control attribute, and then the note at full velocity. Pitches outside
// the kit play as plain notes.
func LevelNote(v *Voice, pitch int, velocity float64) {
	c, ok := v.instrument.Part(pitch)
	if !ok {
		v.SendNote(pitch, velocity)
		return
	}
	level := midiValue(velocity * v.controls[c.Name].Value())
	v.sink.SendControl(v.Channel, c.ID, level)
	v.mirror[c.Name] = level
	v.SendNote(pitch, 1)
}

// NoteIn plays a note arriving from MIDI input straight through
func (v *Voice) NoteIn(pitch, velocity int) {
	v.note(pitch, float64(velocity)/127)
}

// hold lets the previous note ring
func (v *Voice) hold() {}

// rest releases the sounding note
func (v *Voice) rest() {
	if v.sounding {
		v.sink.SendNote(v.Channel, v.prevPitch, 0)
		v.sounding = false
	}
}

// End releases the voice at the end of a piece
func (v *Voice) End() {
	v.rest()
}

// updateControls sends controller values that changed since last sent
func (v *Voice) updateControls() {
	if v.instrument == nil || v.Mute {
		return
	}
	if v.instrument.Levels {
		// levels go out with each note
		return
	}
	for _, c := range v.instrument.Controls {
		value := midiValue(v.controls[c.Name].Value())
		if prev, ok := v.mirror[c.Name]; ok && prev == value {
			continue
		}
		v.sink.SendControl(v.Channel, c.ID, value)
		v.mirror[c.Name] = value
		debug.Log("control", "ch=%d %s=%d", v.Channel, c.Name, value)
	}
}

// VoiceStatus is a read-only summary for display
type VoiceStatus struct {
	Channel  int
	Running  bool
	Mute     bool
	Index    int
	Steps    int
	Pitch    int
	Pattern  string
	Sequence bool
}

func (v *Voice) status() VoiceStatus {
	return VoiceStatus{
		Channel:  v.Channel,
		Running:  v.running,
		Mute:     v.Mute,
		Index:    v.index,
		Steps:    len(v.steps),
		Pitch:    v.prevPitch,
		Pattern:  Format(v.pattern),
		Sequence: v.sequence != nil,
	}
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func midiValue(x float64) int {
	n := int(x)
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}
