package sequencer

// SeqItem is one element of a Sequence: a pattern to play for a cycle, or a
// function to run on the way to the next pattern.
type SeqItem struct {
	Pattern Node
	Do      func(v *Voice)
}

// Pat is a sequence element that plays n for one cycle
func Pat(n Node) SeqItem { return SeqItem{Pattern: n} }

// Do is a sequence element that runs f and moves straight on
func Do(f func(v *Voice)) SeqItem { return SeqItem{Do: f} }

// Sequence is an ordered list of patterns consumed one per cycle edge
type Sequence struct {
	items  []SeqItem
	index  int
	passes int // configured pass count, or Forever
	repeat int // passes left including the current one, or Forever
	onEnd  func(v *Voice)
	ended  bool
}

// NewSequence repeats forever unless Repeat is called
func NewSequence(items ...SeqItem) *Sequence {
	return &Sequence{items: items, passes: Forever, repeat: Forever}
}

// Patterns is NewSequence for plain patterns
func Patterns(nodes ...Node) *Sequence {
	items := make([]SeqItem, len(nodes))
	for i, n := range nodes {
		items[i] = Pat(n)
	}
	return NewSequence(items...)
}

// Repeat sets the number of full passes (Forever for no limit)
func (s *Sequence) Repeat(n int) *Sequence {
	if n < 1 && n != Forever {
		n = 1
	}
	s.passes = n
	s.repeat = n
	return s
}

// EndWith runs f once, after the last pass
func (s *Sequence) EndWith(f func(v *Voice)) *Sequence {
	s.onEnd = f
	return s
}

func (s *Sequence) Len() int    { return len(s.items) }
func (s *Sequence) Index() int  { return s.index }
func (s *Sequence) Ended() bool { return s.ended }

// Remaining is the number of passes left, or Forever
func (s *Sequence) Remaining() int { return s.repeat }

// Reset rewinds to the first element and restores the configured passes
func (s *Sequence) Reset() {
	s.index = 0
	s.repeat = s.passes
	s.ended = false
}

// next advances to the next pattern, running any functions in between.
// ended is true on the edge where the last pass ran out.
func (s *Sequence) next(v *Voice) (n Node, ended bool, err error) {
	if s.ended || len(s.items) == 0 {
		return idlePattern, false, nil
	}
	// a list of only functions would never yield a pattern
	for examined := 0; examined <= len(s.items); {
		if s.index == len(s.items) {
			s.index = 0
			if s.repeat > 0 {
				s.repeat--
			}
			if s.repeat == 0 {
				s.ended = true
				return idlePattern, true, err
			}
		}
		item := s.items[s.index]
		s.index++
		examined++
		if item.Do != nil {
			if cerr := safeCall("sequence", func() { item.Do(v) }); cerr != nil && err == nil {
				err = cerr
			}
		}
		if item.Pattern != nil {
			return item.Pattern, false, err
		}
	}
	return idlePattern, false, err
}

// finish runs the completion callback
func (s *Sequence) finish(v *Voice) error {
	if s.onEnd == nil {
		return nil
	}
	return safeCall("sequence", func() { s.onEnd(v) })
}
