package sequencer

import (
	"math"
	"testing"
	"time"
)

func pulses(e *TempoEstimator, start time.Time, n int, interval time.Duration) time.Time {
	at := start
	for i := 0; i < n; i++ {
		e.Pulse(at)
		at = at.Add(interval)
	}
	return at.Add(-interval)
}

func TestTempoEstimate(t *testing.T) {
	e := NewTempoEstimator(90)
	if e.BPM() != 90 {
		t.Fatalf("initial bpm = %v", e.BPM())
	}
	// 120 bpm is 48 pulses a second
	pulses(e, time.Unix(0, 0), 30, time.Second/48)
	if math.Abs(e.BPM()-120) > 1e-3 {
		t.Errorf("bpm = %v", e.BPM())
	}
	if e.Samples() != tempoWindow {
		t.Errorf("samples = %d", e.Samples())
	}
}

func TestTempoFirstPulses(t *testing.T) {
	e := NewTempoEstimator(100)
	t0 := time.Unix(0, 0)
	if _, ok := e.Pulse(t0); ok {
		t.Error("first pulse produced an estimate")
	}
	if _, ok := e.Pulse(t0.Add(10 * time.Millisecond)); ok {
		t.Error("one interval produced an estimate")
	}
	bpm, ok := e.Pulse(t0.Add(20 * time.Millisecond))
	if !ok || math.Abs(bpm-250) > 1e-6 {
		t.Errorf("bpm = %v, %v", bpm, ok)
	}
}

func TestTempoFollowsChange(t *testing.T) {
	e := NewTempoEstimator(120)
	last := pulses(e, time.Unix(0, 0), 30, time.Second/48)
	// 150 bpm
	pulses(e, last.Add(time.Second/60), 30, time.Second/60)
	if math.Abs(e.BPM()-150) > 1e-3 {
		t.Errorf("bpm = %v", e.BPM())
	}
}

func TestTempoIgnoresBadIntervals(t *testing.T) {
	e := NewTempoEstimator(120)
	t0 := time.Unix(0, 0)
	last := pulses(e, t0, 10, 25*time.Millisecond)
	before := e.BPM()
	if _, ok := e.Pulse(last); ok {
		t.Error("zero interval counted")
	}
	if _, ok := e.Pulse(last.Add(-time.Millisecond)); ok {
		t.Error("negative interval counted")
	}
	if e.BPM() != before {
		t.Errorf("bpm moved to %v", e.BPM())
	}
}

func TestTempoGapResets(t *testing.T) {
	e := NewTempoEstimator(120)
	last := pulses(e, time.Unix(0, 0), 10, 25*time.Millisecond)
	if _, ok := e.Pulse(last.Add(2 * time.Second)); ok {
		t.Error("gap produced an estimate")
	}
	if e.Samples() != 0 {
		t.Errorf("samples after gap = %d", e.Samples())
	}
	if math.Abs(e.BPM()-100) > 1e-6 {
		t.Errorf("estimate not kept across the gap: %v", e.BPM())
	}
}
