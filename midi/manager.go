package midi

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-braid/debug"
)

// ScanTimeout bounds a port scan. CoreMIDI can hang.
const ScanTimeout = 3 * time.Second

// ErrScanTimeout means the MIDI backend did not answer a port scan.
// On macOS: sudo killall coreaudiod midiserver
var ErrScanTimeout = errors.New("midi port scan timed out")

// ErrScanBusy means an earlier scan has not returned yet
var ErrScanBusy = errors.New("midi port scan still in flight")

// scanning is held from the start of a scan until the backend answers,
// including after the caller gave up on it
var scanning atomic.Bool

// Ports is the result of one scan
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// ListPorts scans input and output ports, giving up after timeout. Only
// one scan runs at a time; while a hung one is outstanding ListPorts
// returns ErrScanBusy.
func ListPorts(timeout time.Duration) (Ports, error) {
	return listPorts(timeout, func() Ports {
		return Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	})
}

func listPorts(timeout time.Duration, get func() Ports) (Ports, error) {
	if !scanning.CompareAndSwap(false, true) {
		return Ports{}, ErrScanBusy
	}
	ch := make(chan Ports, 1)
	go func() {
		p := get()
		scanning.Store(false)
		ch <- p
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		return Ports{}, ErrScanTimeout
	}
}

// FindIn returns the first input whose name contains name, ignoring case
func (p Ports) FindIn(name string) drivers.In {
	for _, in := range p.Ins {
		if matches(in.String(), name) {
			return in
		}
	}
	return nil
}

// FindOut returns the first output whose name contains name, ignoring case
func (p Ports) FindOut(name string) drivers.Out {
	for _, out := range p.Outs {
		if matches(out.String(), name) {
			return out
		}
	}
	return nil
}

// Names lists input and output port names
func (p Ports) Names() (ins, outs []string) {
	for _, in := range p.Ins {
		ins = append(ins, in.String())
	}
	for _, out := range p.Outs {
		outs = append(outs, out.String())
	}
	return ins, outs
}

func scanNames() (ins, outs []string, err error) {
	ports, err := ListPorts(ScanTimeout)
	if err != nil {
		return nil, nil, err
	}
	ins, outs = ports.Names()
	return ins, outs, nil
}

func matches(port, name string) bool {
	return name != "" && strings.Contains(strings.ToLower(port), strings.ToLower(name))
}

// PortEvent is emitted when a port appears or disappears
type PortEvent struct {
	Type  PortEventType
	Name  string
	Input bool
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortConnected {
		return "connected"
	}
	return "disconnected"
}

// Watcher polls for hot-plugged ports
type Watcher struct {
	events   chan PortEvent
	pollRate time.Duration
	scan     func() (ins, outs []string, err error)
	seen     map[string]bool
}

// NewWatcher creates a watcher polling every pollRate
func NewWatcher(pollRate time.Duration) *Watcher {
	return &Watcher{
		events:   make(chan PortEvent, 16),
		pollRate: pollRate,
		scan:     scanNames,
		seen:     make(map[string]bool),
	}
}

// Events returns a channel of port connect/disconnect events
func (w *Watcher) Events() <-chan PortEvent {
	return w.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	w.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	ins, outs, err := w.scan()
	if errors.Is(err, ErrScanBusy) {
		debug.Log("midi", "previous scan still running, skipping poll")
		return
	}
	if err != nil {
		// skip this scan
		debug.Warn("midi", "%v", err)
		return
	}
	now := make(map[string]bool, len(ins)+len(outs))
	for _, n := range ins {
		now["in:"+n] = true
	}
	for _, n := range outs {
		now["out:"+n] = true
	}

	for key := range now {
		if !w.seen[key] {
			w.emit(PortConnected, key)
		}
	}
	for key := range w.seen {
		if !now[key] {
			w.emit(PortDisconnected, key)
		}
	}
	w.seen = now
}

func (w *Watcher) emit(t PortEventType, key string) {
	input := strings.HasPrefix(key, "in:")
	name := strings.TrimPrefix(strings.TrimPrefix(key, "in:"), "out:")
	debug.Log("midi", "port %s %s", name, t)
	select {
	case w.events <- PortEvent{Type: t, Name: name, Input: input}:
	default:
	}
}
