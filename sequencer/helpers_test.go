package sequencer

import (
	"testing"
	"time"
)

type sent struct {
	channel, number, value int
}

// recordSink keeps everything voices emit
type recordSink struct {
	notes    []sent
	controls []sent
}

func (r *recordSink) SendNote(channel, pitch, velocity int) {
	r.notes = append(r.notes, sent{channel, pitch, velocity})
}

func (r *recordSink) SendControl(channel, controller, value int) {
	r.controls = append(r.controls, sent{channel, controller, value})
}

// ons lists the pitches of note ons in order
func (r *recordSink) ons() []int {
	var out []int
	for _, n := range r.notes {
		if n.value > 0 {
			out = append(out, n.number)
		}
	}
	return out
}

// testClock drives a Driver with explicit times. At 240 bpm one cycle is
// one second.
type testClock struct {
	t    *testing.T
	d    *Driver
	sink *recordSink
	now  time.Time
}

func newTestClock(t *testing.T) *testClock {
	t.Helper()
	sink := &recordSink{}
	return &testClock{
		t:    t,
		d:    NewDriver(Options{BPM: 240, Sink: sink}),
		sink: sink,
		now:  time.Unix(1000, 0),
	}
}

// voice adds a started voice with humanization off
func (c *testClock) voice(channel int, opts ...VoiceOption) *Voice {
	v := c.d.NewVoice(channel, opts...)
	v.Humanize = 0
	v.Start()
	return v
}

func (c *testClock) tick(dt time.Duration) {
	c.t.Helper()
	c.now = c.now.Add(dt)
	if err := c.d.Tick(c.now); err != nil {
		c.t.Fatalf("tick: %v", err)
	}
}

// run ticks n times, dt apart
func (c *testClock) run(n int, dt time.Duration) {
	c.t.Helper()
	for i := 0; i < n; i++ {
		c.tick(dt)
	}
}

func (c *testClock) errs() []error {
	var out []error
	for {
		select {
		case err := <-c.d.Errors():
			out = append(out, err)
		default:
			return out
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
