package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"

	"go-braid/debug"
	"go-braid/sequencer"
)

// Listener receives OSC messages and forwards them to a receiver:
//
//	/sync/pulse                      one clock pulse (24 per beat)
//	/braid/transport  s              start, continue or stop
//	/braid/control    i f            controller id, value in [0,1]
//	/braid/note       i i i          channel, pitch, velocity
type Listener struct {
	addr       string
	recv       sequencer.Receiver
	dispatcher *goosc.StandardDispatcher
	now        func() time.Time
}

// NewListener routes messages arriving on addr (host:port) to recv
func NewListener(addr string, recv sequencer.Receiver) (*Listener, error) {
	l := &Listener{
		addr:       addr,
		recv:       recv,
		dispatcher: goosc.NewStandardDispatcher(),
		now:        time.Now,
	}
	handlers := map[string]goosc.HandlerFunc{
		PulseAddr:     l.handlePulse,
		TransportAddr: l.handleTransport,
		ControlAddr:   l.handleControl,
		NoteAddr:      l.handleNote,
	}
	for addr, h := range handlers {
		if err := l.dispatcher.AddMsgHandler(addr, h); err != nil {
			return nil, fmt.Errorf("osc handler %s: %w", addr, err)
		}
	}
	return l, nil
}

// Run serves until ctx is done
func (l *Listener) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		return fmt.Errorf("osc listen %s: %w", l.addr, err)
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	debug.Log("osc", "listening on %s", conn.LocalAddr())
	server := &goosc.Server{Addr: l.addr, Dispatcher: l.dispatcher}
	err = server.Serve(conn)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (l *Listener) handlePulse(msg *goosc.Message) {
	l.recv.Pulse(sequencer.Pulse{Kind: sequencer.PulseTick, At: l.now()})
}

func (l *Listener) handleTransport(msg *goosc.Message) {
	if len(msg.Arguments) != 1 {
		debug.Warn("osc", "%s wants one argument, got %d", msg.Address, len(msg.Arguments))
		return
	}
	s, _ := msg.Arguments[0].(string)
	var kind sequencer.PulseKind
	switch s {
	case "start":
		kind = sequencer.PulseStart
	case "continue":
		kind = sequencer.PulseContinue
	case "stop":
		kind = sequencer.PulseStop
	default:
		debug.Warn("osc", "unknown transport command %q", s)
		return
	}
	l.recv.Pulse(sequencer.Pulse{Kind: kind, At: l.now()})
}

func (l *Listener) handleControl(msg *goosc.Message) {
	args, ok := numbers(msg, 2)
	if !ok {
		return
	}
	l.recv.Control(sequencer.ControlValue{ID: int(args[0]), Value: args[1]})
}

func (l *Listener) handleNote(msg *goosc.Message) {
	args, ok := numbers(msg, 3)
	if !ok {
		return
	}
	l.recv.Note(sequencer.NoteInput{Channel: int(args[0]), Pitch: int(args[1]), Velocity: int(args[2])})
}

// numbers reads exactly n numeric arguments
func numbers(msg *goosc.Message, n int) ([]float64, bool) {
	if len(msg.Arguments) != n {
		debug.Warn("osc", "%s wants %d arguments, got %d", msg.Address, n, len(msg.Arguments))
		return nil, false
	}
	out := make([]float64, n)
	for i, a := range msg.Arguments {
		switch v := a.(type) {
		case int32:
			out[i] = float64(v)
		case int64:
			out[i] = float64(v)
		case float32:
			out[i] = float64(v)
		case float64:
			out[i] = v
		default:
			debug.Warn("osc", "%s argument %d has type %T", msg.Address, i, a)
			return nil, false
		}
	}
	return out, true
}
