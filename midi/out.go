package midi

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-braid/debug"
)

const outQueueSize = 512

// Out is a sequencer sink writing to a MIDI output port. Sends are queued
// and written by Run, so the clock goroutine never blocks on the device.
type Out struct {
	name     string
	port     drivers.Out
	send     func(gomidi.Message) error
	throttle time.Duration
	queue    chan Event

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewOut wraps a send function. throttle is the pause after each message,
// for devices that choke on bursts.
func NewOut(name string, send func(gomidi.Message) error, throttle time.Duration) *Out {
	return &Out{
		name:     name,
		send:     send,
		throttle: throttle,
		queue:    make(chan Event, outQueueSize),
	}
}

// OpenOut opens the first output port whose name contains name
func OpenOut(name string, throttle time.Duration) (*Out, error) {
	ports, err := ListPorts(ScanTimeout)
	if err != nil {
		return nil, err
	}
	port := ports.FindOut(name)
	if port == nil {
		return nil, fmt.Errorf("midi output %q not found", name)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", port.String(), err)
	}
	o := NewOut(port.String(), send, throttle)
	o.port = port
	debug.Log("midi", "opened output %s", port.String())
	return o, nil
}

// Name is the port name
func (o *Out) Name() string { return o.name }

// SendNote queues a note on, or a note off for velocity 0
func (o *Out) SendNote(channel, pitch, velocity int) {
	o.enqueue(Event{Type: NoteOn, Channel: wireChannel(channel), Note: data(pitch), Velocity: data(velocity)})
}

// SendControl queues a controller change
func (o *Out) SendControl(channel, controller, value int) {
	o.enqueue(Event{Type: CC, Channel: wireChannel(channel), Note: data(controller), Velocity: data(value)})
}

func (o *Out) enqueue(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.queue <- e:
	default:
		o.dropped++
		debug.LogEvery(64, "midi", "output queue full on %s", o.name)
	}
}

// Dropped counts events discarded because the queue was full
func (o *Out) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Run writes queued events until ctx is done, then flushes what is left
func (o *Out) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-ctx.Done():
			o.Flush()
			return ctx.Err()
		case e := <-o.queue:
			o.write(e)
			if o.throttle > 0 {
				time.Sleep(o.throttle)
			}
		}
	}
}

// Flush writes every queued event without waiting
func (o *Out) Flush() {
	for {
		select {
		case e := <-o.queue:
			o.write(e)
		default:
			return
		}
	}
}

func (o *Out) write(e Event) {
	msg := e.Message()
	if msg == nil {
		return
	}
	if err := o.send(msg); err != nil {
		debug.Error("midi", err, "send %s on %s", msg.String(), o.name)
	}
}

// Close flushes pending events and closes the port
func (o *Out) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.Flush()
	if o.port != nil {
		return o.port.Close()
	}
	return nil
}
