package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"go-braid/midi"
	"go-braid/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "clock":
		err = watchClock(arg(2))
	case "note":
		err = sendNote(arg(2), arg(3))
	case "poll":
		pollDevices()
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list              - List all MIDI ports")
	fmt.Println("  clock <in>        - Print tempo and transport from an input port")
	fmt.Println("  note <out> [ch]   - Play a C major arpeggio on an output port")
	fmt.Println("  poll              - Poll for device changes")
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(midi.ScanTimeout)
	if err != nil {
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	ins, outs := ports.Names()
	fmt.Println("=== MIDI Input Ports ===")
	for i, n := range ins {
		fmt.Printf("  %d: %s\n", i, n)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, n := range outs {
		fmt.Printf("  %d: %s\n", i, n)
	}
	return nil
}

// clockPrinter estimates tempo from timing clock the way the driver does
type clockPrinter struct {
	tempo  *sequencer.TempoEstimator
	pulses int
	msgs   chan string
}

func (c *clockPrinter) Pulse(p sequencer.Pulse) {
	switch p.Kind {
	case sequencer.PulseTick:
		bpm, ok := c.tempo.Pulse(p.At)
		c.pulses++
		if ok && c.pulses%sequencer.PPQ == 0 {
			c.send(fmt.Sprintf("beat %d  %.2f bpm", c.pulses/sequencer.PPQ, bpm))
		}
	default:
		c.pulses = 0
		c.send(p.Kind.String())
	}
}

func (c *clockPrinter) Control(v sequencer.ControlValue) {
	c.send(fmt.Sprintf("cc %d = %.3f", v.ID, v.Value))
}

func (c *clockPrinter) Note(n sequencer.NoteInput) {
	c.send(fmt.Sprintf("note ch%d %d vel %d", n.Channel, n.Pitch, n.Velocity))
}

func (c *clockPrinter) send(s string) {
	select {
	case c.msgs <- s:
	default:
	}
}

func watchClock(name string) error {
	if name == "" {
		return fmt.Errorf("clock needs an input port name")
	}
	c := &clockPrinter{tempo: sequencer.NewTempoEstimator(sequencer.DefaultBPM), msgs: make(chan string, 64)}
	in, err := midi.OpenIn(name, c)
	if err != nil {
		return err
	}
	defer in.Close()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.Name())
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-c.msgs:
			fmt.Println(s)
		}
	}
}

func sendNote(name, channel string) error {
	if name == "" {
		return fmt.Errorf("note needs an output port name")
	}
	ch := 1
	if channel != "" {
		n, err := strconv.Atoi(channel)
		if err != nil {
			return fmt.Errorf("bad channel %q", channel)
		}
		ch = n
	}

	out, err := midi.OpenOut(name, 0)
	if err != nil {
		return err
	}
	defer out.Close()
	fmt.Printf("Using output: %s\n", out.Name())

	chord := sequencer.Chord{Root: sequencer.C, Scale: sequencer.MAJ}
	for _, degree := range []int{1, 3, 5, 8} {
		pitch, err := chord.Pitch(degree)
		if err != nil {
			return err
		}
		fmt.Printf("  note %d\n", pitch)
		out.SendNote(ch, pitch, 100)
		out.Flush()
		time.Sleep(200 * time.Millisecond)
		out.SendNote(ch, pitch, 0)
		out.Flush()
	}
	fmt.Println("Done!")
	return nil
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a device to test. Ctrl+C to exit.")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	w := midi.NewWatcher(2 * time.Second)
	go w.Run(ctx)
	for e := range w.Events() {
		dir := "output"
		if e.Input {
			dir = "input"
		}
		fmt.Printf("[%s] %s %s %s\n", time.Now().Format("15:04:05"), dir, e.Name, e.Type)
	}
}
