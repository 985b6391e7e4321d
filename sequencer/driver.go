package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"go-braid/debug"
)

// State is the transport state of the driver
type State int

const (
	Stopped State = iota
	Paused
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOP"
	case Paused:
		return "PAUSE"
	case Running:
		return "PLAY"
	}
	return "?"
}

const (
	// DefaultGrain is the wall-clock tick interval
	DefaultGrain = 10 * time.Millisecond

	// DefaultBudget is the soft limit for one voice update
	DefaultBudget = time.Millisecond

	// DefaultBPM is the tempo before anything sets one
	DefaultBPM = 120.0

	queueSize = 256
)

// Options configures a Driver. Zero values take the defaults.
type Options struct {
	Grain  time.Duration
	Budget time.Duration
	BPM    float64
	Sink   Sink
}

// Status is a snapshot of the driver, published after every tick
type Status struct {
	State    State
	BPM      float64
	Cycles   float64
	Triggers int
	Voices   []VoiceStatus
}

// Driver is the master clock. One goroutine (Run, or a caller of Tick) owns
// every voice, sequence, tween and trigger. Other goroutines talk to it only
// through the queued methods: Pulse, Control, Note and Exec.
type Driver struct {
	sink   Sink
	grain  time.Duration
	budget time.Duration

	state     State
	rate      float64 // cycles per second
	cycles    float64
	prevCycle int
	prevT     time.Time
	started   bool
	stopping  bool

	voices   []*Voice
	triggers *Scheduler
	tempo    *TempoEstimator
	handlers map[int]func(value float64)

	pulses   chan Pulse
	controls chan ControlValue
	notes    chan NoteInput
	cmds     chan func(*Driver)
	errs     chan error

	statusMu sync.RWMutex
	status   Status
}

// NewDriver creates a stopped driver
func NewDriver(opts Options) *Driver {
	if opts.Grain <= 0 {
		opts.Grain = DefaultGrain
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.BPM <= 0 {
		opts.BPM = DefaultBPM
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	d := &Driver{
		sink:     opts.Sink,
		grain:    opts.Grain,
		budget:   opts.Budget,
		triggers: NewScheduler(),
		tempo:    NewTempoEstimator(opts.BPM),
		handlers: make(map[int]func(float64)),
		pulses:   make(chan Pulse, queueSize),
		controls: make(chan ControlValue, queueSize),
		notes:    make(chan NoteInput, queueSize),
		cmds:     make(chan func(*Driver), queueSize),
		errs:     make(chan error, 32),
	}
	d.triggers.OnError = d.report
	d.SetTempo(opts.BPM)
	d.publish()
	return d
}

// NewVoice registers a voice. Voices update in registration order.
func (d *Driver) NewVoice(channel int, opts ...VoiceOption) *Voice {
	v := newVoice(d, channel, opts...)
	d.voices = append(d.voices, v)
	debug.Log("voice", "created voice on channel %d", channel)
	return v
}

// Voices returns the registered voices in update order
func (d *Driver) Voices() []*Voice {
	out := make([]*Voice, len(d.voices))
	copy(out, d.voices)
	return out
}

// VoiceOn returns the first voice on channel
func (d *Driver) VoiceOn(channel int) *Voice {
	for _, v := range d.voices {
		if v.Channel == channel {
			return v
		}
	}
	return nil
}

func (d *Driver) State() State         { return d.state }
func (d *Driver) Cycles() float64      { return d.cycles }
func (d *Driver) Rate() float64        { return d.rate }
func (d *Driver) Grain() time.Duration { return d.grain }

// Tempo is the rate expressed in quarter-note beats per minute, one cycle
// being four beats
func (d *Driver) Tempo() float64 { return d.rate * 4 * 60 }

// SetTempo sets the rate from beats per minute
func (d *Driver) SetTempo(bpm float64) {
	if bpm > 0 {
		d.rate = bpm / 60 / 4
	}
}

// SetRate sets cycles per second
func (d *Driver) SetRate(rate float64) {
	if rate > 0 {
		d.rate = rate
	}
}

// Play starts or resumes advancing musical time
func (d *Driver) Play() {
	d.state = Running
	d.stopping = false
	debug.Log("clock", "[Playing]")
}

// Pause stops advancing and releases every voice's note
func (d *Driver) Pause() {
	d.state = Paused
	for _, v := range d.voices {
		v.End()
	}
	debug.Log("clock", "[Paused]")
}

// Stop ends the performance: every voice gets a final note off and Run
// returns at the top of its next tick.
func (d *Driver) Stop() {
	d.state = Stopped
	d.stopping = true
	for _, v := range d.voices {
		v.End()
	}
	debug.Log("clock", "[Stopped] cycles=%.3f", d.cycles)
}

// Clear halts every running voice immediately, without a note off
func (d *Driver) Clear() {
	for _, v := range d.voices {
		if v.running {
			v.Stop()
		}
	}
	debug.Log("clock", "[Cleared]")
}

// Trigger calls f every n cycle edges, repeat times (or Forever)
func (d *Driver) Trigger(f func(), every, repeat int) (int, error) {
	id, err := d.triggers.Register(f, every, repeat)
	if err != nil {
		debug.Warn("trigger", "%v", err)
	}
	return id, err
}

func (d *Driver) CancelTrigger(id int) bool { return d.triggers.Cancel(id) }
func (d *Driver) ClearTriggers()            { d.triggers.Clear() }
func (d *Driver) ClearRepeating()           { d.triggers.ClearRepeating() }

// OnControl routes incoming controller id to f (nil removes the route)
func (d *Driver) OnControl(id int, f func(value float64)) {
	if f == nil {
		delete(d.handlers, id)
		return
	}
	d.handlers[id] = f
}

// Pulse queues an external clock message. Safe for concurrent use.
func (d *Driver) Pulse(p Pulse) {
	select {
	case d.pulses <- p:
	default:
		debug.LogEvery(PPQ, "clock", "pulse queue full, dropped %v", p.Kind)
	}
}

// Control queues an incoming controller value. Safe for concurrent use.
func (d *Driver) Control(c ControlValue) {
	select {
	case d.controls <- c:
	default:
		debug.Warn("control", "control queue full, dropped id=%d", c.ID)
	}
}

// Note queues a live note. Safe for concurrent use.
func (d *Driver) Note(n NoteInput) {
	select {
	case d.notes <- n:
	default:
		debug.Warn("note", "note queue full, dropped ch=%d pitch=%d", n.Channel, n.Pitch)
	}
}

// Exec runs f on the clock goroutine at the top of the next tick. It reports
// false if the command queue is full. Safe for concurrent use.
func (d *Driver) Exec(f func(d *Driver)) bool {
	select {
	case d.cmds <- f:
		return true
	default:
		debug.Warn("clock", "command queue full")
		return false
	}
}

// Errors delivers isolated failures: trigger and tween callbacks, scale
// degree errors and stopped voices. Errors are dropped when nobody reads.
func (d *Driver) Errors() <-chan error { return d.errs }

// Status returns the snapshot published by the last tick. Safe for
// concurrent use.
func (d *Driver) Status() Status {
	d.statusMu.RLock()
	defer d.statusMu.RUnlock()
	s := d.status
	s.Voices = append([]VoiceStatus(nil), d.status.Voices...)
	return s
}

// Run ticks every grain until Stop is called or ctx is done
func (d *Driver) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(d.grain)
	defer ticker.Stop()

	debug.Log("clock", "-------------> O")
	defer debug.Log("clock", "-------------> X")

	for {
		var now time.Time
		select {
		case <-ctx.Done():
			d.Stop()
			d.publish()
			return ctx.Err()
		case now = <-ticker.C:
		}
		if d.stopping {
			d.publish()
			return nil
		}
		if err := d.Tick(now); err != nil {
			return err
		}
	}
}

// Tick advances the clock to now. A failure outside any voice or callback is
// fatal: the driver stops and the error is returned.
func (d *Driver) Tick(now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("driver tick: %w", recovered(r))
			debug.Error("clock", err, "fatal, stopping")
			d.Stop()
			d.publish()
		}
	}()

	if !d.started {
		d.prevT = now
		d.started = true
	}
	d.drain()

	dt := now.Sub(d.prevT).Seconds()
	if dt < 0 {
		dt = 0
	}
	d.prevT = now

	if d.state == Running {
		d.cycles += dt * d.rate
		if c := int(math.Floor(d.cycles)); c != d.prevCycle {
			d.prevCycle = c
			d.triggers.FireDue()
		}
		for _, v := range d.Voices() {
			d.updateVoice(v, dt)
		}
	}
	d.publish()
	return nil
}

func (d *Driver) updateVoice(v *Voice, dt float64) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recovered(r)
			}
		}()
		return v.update(dt)
	}()
	if took := time.Since(start); took > d.budget {
		debug.Warn("clock", "[Warning: update took %dms] ch=%d", took.Milliseconds(), v.Channel)
	}
	if err == nil {
		return
	}

	var sde *ScaleDegreeError
	if errors.As(err, &sde) {
		debug.Error("voice", err, "ch=%d", v.Channel)
		d.report(err)
		return
	}
	v.Stop()
	verr := &VoiceUpdateError{Channel: v.Channel, Err: err}
	debug.Error("voice", verr, "voice stopped")
	d.report(verr)
}

// drain empties every input queue before time advances
func (d *Driver) drain() {
	for {
		select {
		case f := <-d.cmds:
			if err := safeCall("command", func() { f(d) }); err != nil {
				debug.Error("clock", err, "command failed")
				d.report(err)
			}
			continue
		case p := <-d.pulses:
			d.handlePulse(p)
			continue
		case c := <-d.controls:
			d.handleControl(c)
			continue
		case n := <-d.notes:
			if v := d.VoiceOn(n.Channel); v != nil {
				v.NoteIn(n.Pitch, n.Velocity)
			}
			continue
		default:
		}
		return
	}
}

func (d *Driver) handlePulse(p Pulse) {
	switch p.Kind {
	case PulseTick:
		if bpm, ok := d.tempo.Pulse(p.At); ok {
			d.SetTempo(bpm)
			debug.LogEvery(PPQ*4, "clock", "external bpm=%.2f", bpm)
		}
	case PulseStart, PulseContinue:
		d.state = Running
		d.stopping = false
		for _, v := range d.voices {
			if !v.running {
				v.Reset()
				v.Start()
			}
		}
		debug.Log("clock", "transport %v", p.Kind)
	case PulseStop:
		d.state = Paused
		for _, v := range d.voices {
			if v.running {
				v.Stop()
				v.rest()
			}
		}
		debug.Log("clock", "transport stop")
	}
}

func (d *Driver) handleControl(c ControlValue) {
	f, ok := d.handlers[c.ID]
	if !ok {
		return
	}
	if err := safeCall("control", func() { f(c.Value) }); err != nil {
		debug.Error("control", err, "handler for %d failed", c.ID)
		d.report(err)
	}
}

// ExternalBPM is the tempo measured from incoming pulses
func (d *Driver) ExternalBPM() float64 { return d.tempo.BPM() }

func (d *Driver) report(err error) {
	select {
	case d.errs <- err:
	default:
	}
}

func (d *Driver) publish() {
	s := Status{
		State:    d.state,
		BPM:      d.Tempo(),
		Cycles:   d.cycles,
		Triggers: d.triggers.Len(),
		Voices:   make([]VoiceStatus, len(d.voices)),
	}
	for i, v := range d.voices {
		s.Voices[i] = v.status()
	}
	d.statusMu.Lock()
	d.status = s
	d.statusMu.Unlock()
}
