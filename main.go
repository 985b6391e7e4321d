package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-braid/config"
	"go-braid/debug"
	"go-braid/midi"
	"go-braid/osc"
	"go-braid/sequencer"
	"go-braid/theme"
	"go-braid/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/go-braid/config.json)")
		debugLog   = flag.Bool("debug", false, "write a debug log to ~/.config/go-braid/debug.log")
		headless   = flag.Bool("headless", false, "run without the terminal monitor")
		palette    = flag.String("palette", "", "GIMP palette file for the monitor")
		writeCfg   = flag.Bool("init", false, "write the default config and exit")
	)
	flag.Parse()

	if err := run(*configPath, *debugLog, *headless, *palette, *writeCfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debugLog, headless bool, palette string, writeCfg bool) error {
	if writeCfg {
		return writeDefault(configPath)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if debugLog {
		if err := debug.Enable(""); err != nil {
			return err
		}
		defer debug.Disable()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	// outputs outlive the clock so its final note offs get written
	outCtx, stopOutputs := context.WithCancel(context.Background())
	defer stopOutputs()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	goRun := func(ctx context.Context, name string, f func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
				debug.Error("main", err, "%s stopped", name)
			}
		}()
	}

	// Outputs
	var sinks sequencer.Tee
	if cfg.MIDI.OutPort != "" {
		out, err := midi.OpenOut(cfg.MIDI.OutPort, cfg.Throttle())
		if err != nil {
			return err
		}
		goRun(outCtx, "midi out", func(ctx context.Context) error {
			defer out.Close()
			return out.Run(ctx)
		})
		sinks = append(sinks, out)
		fmt.Printf("MIDI out: %s\n", out.Name())
	}
	if cfg.OSC.Enabled {
		out := osc.NewOut(cfg.OSC.Host, cfg.OSC.Port)
		goRun(outCtx, "osc out", func(ctx context.Context) error {
			defer out.Close()
			return out.Run(ctx)
		})
		sinks = append(sinks, out)
		fmt.Printf("OSC out: %s:%d\n", cfg.OSC.Host, cfg.OSC.Port)
	}

	d := sequencer.NewDriver(cfg.DriverOptions(sinks))
	if _, err := cfg.AddVoices(d); err != nil {
		return err
	}

	// Inputs
	var recv sequencer.Receiver = d
	if !cfg.Clock.Sync {
		recv = freeRunning{d}
	}
	if cfg.MIDI.InPort != "" {
		in, err := midi.OpenIn(cfg.MIDI.InPort, recv)
		if err != nil {
			return err
		}
		defer in.Close()
		fmt.Printf("MIDI in: %s\n", in.Name())
	}
	if cfg.OSC.Enabled && cfg.OSC.Listen != "" {
		l, err := osc.NewListener(cfg.OSC.Listen, recv)
		if err != nil {
			return err
		}
		goRun(ctx, "osc listener", l.Run)
	}

	watcher := midi.NewWatcher(time.Second)
	goRun(ctx, "port watcher", func(ctx context.Context) error {
		watcher.Run(ctx)
		return nil
	})

	for _, v := range d.Voices() {
		v.Start()
	}
	if !cfg.Clock.Sync {
		d.Play()
	}

	fmt.Println("go-braid")
	if cfg.Clock.Sync {
		fmt.Println("Waiting for MIDI clock start")
	}

	if headless {
		go logErrors(ctx, d)
		err := d.Run(ctx)
		cancel()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	var th *theme.Theme
	if palette != "" {
		p, err := theme.LoadGPL(palette)
		if err != nil {
			return err
		}
		th = theme.New(p)
	} else {
		th = theme.New(nil)
	}

	p := tea.NewProgram(tui.NewModel(d, watcher, th), tea.WithAltScreen())
	clockDone := make(chan error, 1)
	go func() {
		err := d.Run(ctx)
		p.Quit()
		clockDone <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-clockDone
		return err
	}
	cancel()
	if err := <-clockDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func writeDefault(path string) error {
	cfg := config.DefaultConfig()
	if path == "" {
		if err := cfg.Save(); err != nil {
			return err
		}
		path, _ = config.ConfigPath()
	} else if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// freeRunning ignores external clock and transport
type freeRunning struct {
	sequencer.Receiver
}

func (freeRunning) Pulse(sequencer.Pulse) {}

func logErrors(ctx context.Context, d *sequencer.Driver) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-d.Errors():
			fmt.Printf("error: %v\n", err)
		}
	}
}
