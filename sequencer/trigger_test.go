package sequencer

import (
	"errors"
	"testing"
)

func TestTriggerPeriod(t *testing.T) {
	s := NewScheduler()
	var fired []int
	edge := 0
	if _, err := s.Register(func() { fired = append(fired, edge) }, 2, 3); err != nil {
		t.Fatal(err)
	}
	for edge = 1; edge <= 10; edge++ {
		s.FireDue()
	}
	if !equalInts(fired, []int{2, 4, 6}) {
		t.Errorf("fired on edges %v", fired)
	}
	if s.Len() != 0 {
		t.Errorf("exhausted trigger still scheduled: %d", s.Len())
	}
}

func TestTriggerOnce(t *testing.T) {
	s := NewScheduler()
	n := 0
	s.Register(func() { n++ }, 0, 0)
	s.Register(func() { n += 10 }, 1, 0)
	s.FireDue()
	s.FireDue()
	if n != 11 {
		t.Errorf("n = %d", n)
	}
}

func TestTriggerForever(t *testing.T) {
	s := NewScheduler()
	n := 0
	s.Register(func() { n++ }, 1, Forever)
	once, _ := s.Register(func() {}, 5, 1)
	for i := 0; i < 100; i++ {
		s.FireDue()
	}
	if n != 100 || s.Len() != 1 {
		t.Errorf("n=%d len=%d", n, s.Len())
	}
	if s.Cancel(once) {
		t.Error("cancelled a finished trigger")
	}
	s.ClearRepeating()
	if s.Len() != 0 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestTriggerRegistrationErrors(t *testing.T) {
	s := NewScheduler()
	tests := []struct {
		name          string
		f             func()
		every, repeat int
	}{
		{"nil callback", nil, 1, 1},
		{"negative period", func() {}, -1, 1},
		{"zero period with repeat", func() {}, 0, 3},
	}
	for _, tt := range tests {
		_, err := s.Register(tt.f, tt.every, tt.repeat)
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) || !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: err = %v", tt.name, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("rejected registrations were kept: %d", s.Len())
	}
}

func TestTriggerOrderAndIsolation(t *testing.T) {
	s := NewScheduler()
	var errs []error
	s.OnError = func(err error) { errs = append(errs, err) }
	var order []int
	s.Register(func() { order = append(order, 1) }, 1, 1)
	s.Register(func() { panic("bad trigger") }, 1, 1)
	s.Register(func() { order = append(order, 3) }, 1, 1)
	s.FireDue()
	if !equalInts(order, []int{1, 3}) {
		t.Errorf("order = %v", order)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrCallback) {
		t.Errorf("errs = %v", errs)
	}
	if s.Len() != 0 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestTriggerCancelFromCallback(t *testing.T) {
	s := NewScheduler()
	n := 0
	var self, other int
	self, _ = s.Register(func() {
		n++
		s.Cancel(self)
		s.Cancel(other)
	}, 1, Forever)
	other, _ = s.Register(func() { n += 100 }, 1, Forever)
	s.FireDue()
	s.FireDue()
	if n != 1 || s.Len() != 0 {
		t.Errorf("n=%d len=%d", n, s.Len())
	}
}

func TestTriggerRegisteredInCallback(t *testing.T) {
	s := NewScheduler()
	var fired []string
	s.Register(func() {
		fired = append(fired, "outer")
		s.Register(func() { fired = append(fired, "inner") }, 1, 1)
	}, 1, 1)
	s.FireDue()
	if len(fired) != 1 {
		t.Fatalf("inner fired on the registering edge: %v", fired)
	}
	s.FireDue()
	if len(fired) != 2 || fired[1] != "inner" {
		t.Errorf("fired = %v", fired)
	}
}

func TestTriggerClear(t *testing.T) {
	s := NewScheduler()
	n := 0
	s.Register(func() { s.Clear() }, 1, 1)
	s.Register(func() { n++ }, 1, 1)
	s.FireDue()
	if n != 0 || s.Len() != 0 {
		t.Errorf("n=%d len=%d", n, s.Len())
	}
}
