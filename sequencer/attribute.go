package sequencer

// Attribute is a tweenable number: either a constant or an interpolation in
// progress. Value always returns the most recently evaluated value.
type Attribute struct {
	value float64
	tween *Tween
}

// NewAttribute returns a constant attribute
func NewAttribute(v float64) *Attribute {
	return &Attribute{value: v}
}

func (a *Attribute) Value() float64 { return a.value }

// Set installs a constant, cancelling any tween
func (a *Attribute) Set(v float64) {
	a.value = v
	a.tween = nil
}

// Tween starts interpolating from the live value toward target. It replaces
// any tween already running.
func (a *Attribute) Tween(target, duration float64, opts ...TweenOption) *Tween {
	t := NewTween(target, duration, opts...)
	a.tween = t
	return t
}

// Tweening reports whether an interpolation is installed
func (a *Attribute) Tweening() bool { return a.tween != nil }

// Active returns the installed tween, or nil
func (a *Attribute) Active() *Tween { return a.tween }

// Update advances a running tween by delta cycles. A finished tween collapses
// back into a constant at its final value.
func (a *Attribute) Update(delta float64) error {
	t := a.tween
	if t == nil {
		return nil
	}
	v, finished := t.advance(a.value, delta)
	a.value = v
	if !finished {
		return nil
	}
	a.tween = nil
	// the callback may install a new tween, which starts from v
	return t.complete()
}
