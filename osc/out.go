// Package osc carries notes, controls and clock pulses over Open Sound
// Control, for software synths and other sequencers on the network.
package osc

import (
	"context"
	"sync"

	goosc "github.com/hypebeast/go-osc/osc"

	"go-braid/debug"
)

// Addresses
const (
	NoteAddr      = "/braid/note"
	ControlAddr   = "/braid/control"
	TransportAddr = "/braid/transport"
	PulseAddr     = "/sync/pulse"
)

const outQueueSize = 512

// Out is a sequencer sink sending one OSC message per note or control.
// Sends are queued and written by Run.
type Out struct {
	send  func(*goosc.Message) error
	queue chan *goosc.Message

	mu     sync.Mutex
	closed bool
}

// NewOut sends to host:port over UDP
func NewOut(host string, port int) *Out {
	client := goosc.NewClient(host, port)
	debug.Log("osc", "sending to %s:%d", host, port)
	return newOut(func(m *goosc.Message) error { return client.Send(m) })
}

func newOut(send func(*goosc.Message) error) *Out {
	return &Out{
		send:  send,
		queue: make(chan *goosc.Message, outQueueSize),
	}
}

// SendNote queues channel, pitch and velocity as int32 arguments
func (o *Out) SendNote(channel, pitch, velocity int) {
	o.enqueue(goosc.NewMessage(NoteAddr, int32(channel), int32(pitch), int32(velocity)))
}

// SendControl queues channel, controller and value as int32 arguments
func (o *Out) SendControl(channel, controller, value int) {
	o.enqueue(goosc.NewMessage(ControlAddr, int32(channel), int32(controller), int32(value)))
}

func (o *Out) enqueue(m *goosc.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.queue <- m:
	default:
		debug.LogEvery(64, "osc", "output queue full, dropped %s", m.Address)
	}
}

// Run sends queued messages until ctx is done
func (o *Out) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			o.Flush()
			return ctx.Err()
		case m := <-o.queue:
			o.write(m)
		}
	}
}

// Flush sends every queued message without waiting
func (o *Out) Flush() {
	for {
		select {
		case m := <-o.queue:
			o.write(m)
		default:
			return
		}
	}
}

func (o *Out) write(m *goosc.Message) {
	if err := o.send(m); err != nil {
		debug.Error("osc", err, "send %s", m.Address)
	}
}

// Close flushes and stops accepting messages
func (o *Out) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.Flush()
	return nil
}
