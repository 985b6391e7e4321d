package sequencer

import "go-braid/debug"

// Forever is a repeat count that never runs out
const Forever = -1

type trigger struct {
	id     int
	f      func()
	every  int
	repeat int // remaining firings, or Forever
	edges  int // cycle edges since registration or last firing
}

// Scheduler fires callbacks on cycle edges. It is owned by the clock
// goroutine and is not safe for concurrent use.
type Scheduler struct {
	triggers []*trigger
	nextID   int

	// OnError receives isolated callback failures
	OnError func(error)
}

// NewScheduler returns an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Register schedules f every n cycle edges. repeat is the number of firings
// (Forever for no limit, values below 1 fire once). every == 0 fires once on
// the next edge and may not be combined with a repeat.
func (s *Scheduler) Register(f func(), every, repeat int) (int, error) {
	switch {
	case f == nil:
		return 0, &ConfigurationError{Reason: "callback is not callable"}
	case every < 0:
		return 0, &ConfigurationError{Reason: "negative period"}
	case every == 0 && repeat != 0:
		return 0, &ConfigurationError{Reason: "zero period with repeat"}
	}
	if repeat < 1 && repeat != Forever {
		repeat = 1
	}
	s.nextID++
	s.triggers = append(s.triggers, &trigger{id: s.nextID, f: f, every: every, repeat: repeat})
	debug.Log("trigger", "registered id=%d every=%d repeat=%d", s.nextID, every, repeat)
	return s.nextID, nil
}

// Cancel removes a trigger by id
func (s *Scheduler) Cancel(id int) bool {
	found := false
	s.filter(func(t *trigger) bool {
		if t.id == id {
			found = true
			return false
		}
		return true
	})
	return found
}

// Clear removes every trigger
func (s *Scheduler) Clear() {
	s.filter(func(*trigger) bool { return false })
}

// ClearRepeating removes the triggers that repeat forever
func (s *Scheduler) ClearRepeating() {
	s.filter(func(t *trigger) bool { return t.repeat != Forever })
}

// filter keeps the triggers for which keep returns true. Dropped triggers are
// zeroed so an in-progress FireDue skips them.
func (s *Scheduler) filter(keep func(*trigger) bool) {
	kept := make([]*trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		if keep(t) {
			kept = append(kept, t)
		} else {
			t.repeat = 0
		}
	}
	s.triggers = kept
}

// Len is the number of scheduled triggers
func (s *Scheduler) Len() int { return len(s.triggers) }

// FireDue advances every trigger by one cycle edge and fires the ones that
// are due, in registration order. Triggers registered by a callback start
// counting on the next edge.
func (s *Scheduler) FireDue() {
	due := s.triggers
	removed := false
	for _, t := range due {
		if t.repeat == 0 {
			continue
		}
		t.edges++
		if t.edges < t.every {
			continue
		}
		t.edges = 0
		if err := safeCall("trigger", t.f); err != nil {
			debug.Error("trigger", err, "trigger id=%d failed", t.id)
			if s.OnError != nil {
				s.OnError(err)
			}
		}
		switch t.repeat {
		case 0, Forever:
			// cancelled by its own callback, or unlimited
		default:
			t.repeat--
			removed = removed || t.repeat == 0
		}
	}
	if removed {
		s.filter(func(t *trigger) bool { return t.repeat != 0 })
	}
}
