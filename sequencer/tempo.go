package sequencer

import "time"

const (
	// PPQ is the external clock convention: 24 pulses per quarter note
	PPQ = 24

	// tempoWindow is how many pulse intervals are averaged
	tempoWindow = 24

	// pulseGap resets the window; the source was stopped or unplugged
	pulseGap = time.Second
)

// TempoEstimator smooths the tempo of an external pulse stream
type TempoEstimator struct {
	samples [tempoWindow]float64 // seconds between pulses, ring buffer
	head    int
	n       int
	last    time.Time
	bpm     float64
}

// NewTempoEstimator starts at bpm until enough pulses arrive
func NewTempoEstimator(bpm float64) *TempoEstimator {
	return &TempoEstimator{bpm: bpm}
}

func (t *TempoEstimator) BPM() float64 { return t.bpm }

// Samples is the number of intervals in the window
func (t *TempoEstimator) Samples() int { return t.n }

// Pulse records a pulse at now. ok is true when bpm was recomputed.
func (t *TempoEstimator) Pulse(now time.Time) (bpm float64, ok bool) {
	if t.last.IsZero() {
		t.last = now
		return t.bpm, false
	}
	dt := now.Sub(t.last)
	t.last = now
	if dt <= 0 {
		return t.bpm, false
	}
	if dt > pulseGap {
		t.Reset()
		t.last = now
		return t.bpm, false
	}

	t.samples[t.head] = dt.Seconds()
	t.head = (t.head + 1) % tempoWindow
	if t.n < tempoWindow {
		t.n++
	}
	if t.n < 2 {
		return t.bpm, false
	}

	var sum float64
	for i := 0; i < t.n; i++ {
		sum += t.samples[i]
	}
	// 60 / (PPQ * mean interval)
	t.bpm = 2.5 / (sum / float64(t.n))
	return t.bpm, true
}

// Reset forgets every interval, keeping the last estimate
func (t *TempoEstimator) Reset() {
	t.samples = [tempoWindow]float64{}
	t.head = 0
	t.n = 0
	t.last = time.Time{}
}
