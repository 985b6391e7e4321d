package sequencer

import "math"

// Easing maps progress in [0,1] to interpolation weight in [0,1]
type Easing func(x float64) float64

func Linear(x float64) float64 { return x }

func EaseIn(x float64) float64 { return x * x }

func EaseOut(x float64) float64 { return 1 - (1-x)*(1-x) }

// EaseInOut is symmetric: EaseInOut(1-x) == 1-EaseInOut(x)
func EaseInOut(x float64) float64 {
	if x < 0.5 {
		return 2 * x * x
	}
	return 1 - math.Pow(-2*x+2, 2)/2
}

func Sine(x float64) float64 { return (1 - math.Cos(math.Pi*x)) / 2 }

// TweenOption configures a Tween
type TweenOption func(*Tween)

func WithEasing(e Easing) TweenOption {
	return func(t *Tween) {
		if e != nil {
			t.easing = e
		}
	}
}

// Repeating restarts the tween from its start value each time it finishes
func Repeating() TweenOption { return func(t *Tween) { t.repeat = true } }

// Flipping runs back and forth between start and target (ping-pong). The
// return leg retraces the outgoing curve.
func Flipping() TweenOption { return func(t *Tween) { t.flip = true } }

// Legs bounds a repeating or flipping tween to n passes. 0 is unbounded.
func Legs(n int) TweenOption { return func(t *Tween) { t.legs = n } }

// OnComplete runs f once when a tween finishes for good
func OnComplete(f func()) TweenOption { return func(t *Tween) { t.onComplete = f } }

// Tween interpolates one attribute value over a duration measured in cycles.
// The start value is captured on the first update, not at construction.
type Tween struct {
	start, target float64
	duration      float64
	elapsed       float64 // within the current pass, in [0, duration]
	easing        Easing
	repeat, flip  bool
	legs, passes  int
	reverse       bool // on a return leg of a flipping tween
	onComplete    func()

	started bool
	done    bool
	value   float64
}

// NewTween creates a tween toward target over duration cycles
func NewTween(target, duration float64, opts ...TweenOption) *Tween {
	t := &Tween{
		target:   target,
		duration: duration,
		easing:   Linear,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tween) Target() float64   { return t.target }
func (t *Tween) Duration() float64 { return t.duration }
func (t *Tween) Elapsed() float64  { return t.elapsed }
func (t *Tween) Value() float64    { return t.value }
func (t *Tween) Done() bool        { return t.done }

// Progress is elapsed/duration for the current pass
func (t *Tween) Progress() float64 {
	if t.duration <= 0 {
		return 1
	}
	return clamp(t.elapsed/t.duration, 0, 1)
}

// at evaluates the current leg at progress p
func (t *Tween) at(p float64) float64 {
	if t.reverse {
		p = 1 - p
	}
	return t.start + (t.target-t.start)*t.easing(p)
}

// advance moves the tween by delta cycles. from is the live value of the
// owning attribute and is only read the first time. finished is true only on
// the update that completes the tween. Time past the end of a pass carries
// into the next one, so repeating and flipping tweens keep their period.
func (t *Tween) advance(from, delta float64) (value float64, finished bool) {
	if t.done {
		return t.value, false
	}
	if !t.started {
		t.start = from
		t.value = from
		t.started = true
	}
	if t.duration <= 0 {
		return t.finish(), true
	}

	t.elapsed += math.Max(delta, 0)
	for t.elapsed >= t.duration {
		t.passes++
		more := (t.flip || t.repeat) && (t.legs == 0 || t.passes < t.legs)
		if !more {
			return t.finish(), true
		}
		t.elapsed -= t.duration
		if t.flip {
			t.reverse = !t.reverse
		}
	}
	t.value = t.at(t.Progress())
	return t.value, false
}

// finish freezes the tween at the end of its current leg
func (t *Tween) finish() float64 {
	t.elapsed = math.Max(t.duration, 0)
	t.done = true
	t.value = t.at(1)
	return t.value
}

// complete runs the completion callback, isolating any panic
func (t *Tween) complete() error {
	if t.onComplete == nil {
		return nil
	}
	return safeCall("tween", t.onComplete)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
