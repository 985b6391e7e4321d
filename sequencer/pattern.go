package sequencer

import (
	"fmt"
	"strings"
)

// StepKind tags what a Step does when its slot is reached
type StepKind uint8

const (
	StepHold      StepKind = iota // let the previous note ring
	StepDegree                    // play a scale degree
	StepGrace                     // play a scale degree at grace velocity
	StepRest                      // note off
	StepPrev                      // repeat the previous degree
	StepRandom                    // random degree from the active scale
	StepGenerator                 // call a function at trigger time
	StepVelocity                  // velocity value, only meaningful inside an Accent
	StepCompound                  // two layered alternatives, see Simultaneous
)

// Generator is evaluated when its slot is reached. It may change voice state
// and returns the step to play in its place.
type Generator func(v *Voice) Step

// Step is the smallest schedulable unit inside one resolved slot
type Step struct {
	Kind     StepKind
	Degree   int
	Velocity float64
	Gen      Generator

	layer *layer
}

type layer struct {
	a, b Step
	mode LayerMode
}

func Deg(d int) Step       { return Step{Kind: StepDegree, Degree: d} }
func Grace(d int) Step     { return Step{Kind: StepGrace, Degree: d} }
func Hold() Step           { return Step{Kind: StepHold} }
func Rest() Step           { return Step{Kind: StepRest} }
func Prev() Step           { return Step{Kind: StepPrev} }
func Random() Step         { return Step{Kind: StepRandom} }
func Vel(v float64) Step   { return Step{Kind: StepVelocity, Velocity: v} }
func Gen(g Generator) Step { return Step{Kind: StepGenerator, Gen: g} }

// Layers returns the two alternatives of a compound step
func (s Step) Layers() (a, b Step, mode LayerMode, ok bool) {
	if s.Kind != StepCompound || s.layer == nil {
		return Step{}, Step{}, 0, false
	}
	return s.layer.a, s.layer.b, s.layer.mode, true
}

func (s Step) String() string {
	switch s.Kind {
	case StepHold:
		return "-"
	case StepDegree:
		return fmt.Sprint(s.Degree)
	case StepGrace:
		return fmt.Sprintf("g%d", s.Degree)
	case StepRest:
		return "z"
	case StepPrev:
		return "p"
	case StepRandom:
		return "r"
	case StepGenerator:
		return "<gen>"
	case StepVelocity:
		return fmt.Sprintf("@%g", s.Velocity)
	case StepCompound:
		if s.layer == nil {
			return "?"
		}
		if s.layer.mode == LayerAccent {
			return fmt.Sprintf("(%v%v)", s.layer.a, s.layer.b)
		}
		return fmt.Sprintf("(%v|%v)", s.layer.a, s.layer.b)
	}
	return "?"
}

// LayerMode is how a Voice picks between the alternatives of a Simultaneous node
type LayerMode uint8

const (
	// LayerAlternate plays the first alternative on the first traversal of
	// the pattern, the second on the next, and so on.
	LayerAlternate LayerMode = iota
	// LayerAccent plays the first alternative with the second's Velocity.
	LayerAccent
)

// Node is a pattern tree: Atomic, Subdivision or Simultaneous
type Node interface {
	node()
}

// Atomic is a single step
type Atomic struct {
	Step Step
}

// Subdivision evenly subdivides the current slot among its children
type Subdivision []Node

// Simultaneous layers two alternatives within one slot
type Simultaneous struct {
	A, B Node
	Mode LayerMode
}

func (Atomic) node()       {}
func (Subdivision) node()  {}
func (Simultaneous) node() {}

// At wraps a step as a node
func At(s Step) Node { return Atomic{Step: s} }

// Sub builds a subdivision
func Sub(children ...Node) Subdivision { return Subdivision(children) }

// Steps builds a subdivision of degrees, 0 meaning hold
func Steps(degrees ...int) Subdivision {
	out := make(Subdivision, len(degrees))
	for i, d := range degrees {
		if d == 0 {
			out[i] = At(Hold())
		} else {
			out[i] = At(Deg(d))
		}
	}
	return out
}

// Alt layers a and b, alternating between them on successive traversals
func Alt(a, b Node) Simultaneous { return Simultaneous{A: a, B: b, Mode: LayerAlternate} }

// Accent plays a with an explicit normalized velocity
func Accent(a Node, velocity float64) Simultaneous {
	return Simultaneous{A: a, B: At(Vel(velocity)), Mode: LayerAccent}
}

// Hold pattern installed when a sequence runs out
var idlePattern Node = At(Hold())

// Resolve flattens a pattern into the ordered steps of one cycle. It never
// returns an empty slice. Generators are carried through untouched and only
// run when their slot is reached.
func Resolve(n Node) []Step {
	out := resolve(nil, n)
	if len(out) == 0 {
		return []Step{Hold()}
	}
	return out
}

func resolve(dst []Step, n Node) []Step {
	switch n := n.(type) {
	case nil:
		return append(dst, Hold())
	case Atomic:
		return append(dst, n.Step)
	case Subdivision:
		for _, child := range n {
			dst = resolve(dst, child)
		}
		return dst
	case Simultaneous:
		a := Resolve(n.A)
		b := Resolve(n.B)
		k := max(len(a), len(b))
		for i := 0; i < k; i++ {
			dst = append(dst, Step{
				Kind:  StepCompound,
				layer: &layer{a: a[i%len(a)], b: b[i%len(b)], mode: n.Mode},
			})
		}
		return dst
	}
	panic(fmt.Sprintf("sequencer: unknown pattern node %T", n))
}

// Format renders a node in the notation Parse reads. Generators render as <gen>.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n, true)
	return sb.String()
}

func format(sb *strings.Builder, n Node, top bool) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("-")
	case Atomic:
		sb.WriteString(n.Step.String())
	case Subdivision:
		if !top {
			sb.WriteString("[")
		}
		for i, c := range n {
			if i > 0 {
				sb.WriteString(" ")
			}
			format(sb, c, false)
		}
		if !top {
			sb.WriteString("]")
		}
	case Simultaneous:
		sb.WriteString("(")
		format(sb, n.A, false)
		if b, ok := n.B.(Atomic); ok && n.Mode == LayerAccent && b.Step.Kind == StepVelocity {
			sb.WriteString(b.Step.String())
		} else {
			sb.WriteString("|")
			format(sb, n.B, false)
		}
		sb.WriteString(")")
	}
}
