package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-braid/sequencer"
)

// MIDIConfig selects the MIDI ports. Port names match by substring.
type MIDIConfig struct {
	OutPort  string `json:"outPort,omitempty"`
	InPort   string `json:"inPort,omitempty"`
	Throttle string `json:"throttle,omitempty"` // pause after each message, e.g. "1ms"
}

// OSCConfig enables the OSC sink and control listener
type OSCConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	Listen  string `json:"listen,omitempty"` // host:port, empty disables input
}

// ClockConfig tunes the driver
type ClockConfig struct {
	Grain  string  `json:"grain,omitempty"`
	Budget string  `json:"budget,omitempty"`
	Tempo  float64 `json:"tempo,omitempty"`
	Sync   bool    `json:"sync"` // follow incoming MIDI clock
}

// VoiceConfig is one voice started at launch
type VoiceConfig struct {
	Channel    int     `json:"channel"`
	Pattern    string  `json:"pattern"`
	Root       string  `json:"root,omitempty"`  // note name, e.g. "C3"
	Scale      string  `json:"scale,omitempty"` // name from the scale table
	Velocity   float64 `json:"velocity,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	Instrument string  `json:"instrument,omitempty"`
	Kit        string  `json:"kit,omitempty"` // drum map from the kit table
	Mute       bool    `json:"mute,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	MIDI        MIDIConfig                       `json:"midi"`
	OSC         OSCConfig                        `json:"osc"`
	Clock       ClockConfig                      `json:"clock"`
	Voices      []VoiceConfig                    `json:"voices,omitempty"`
	Instruments map[string]*sequencer.Instrument `json:"instruments,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OSC: OSCConfig{
			Host: "127.0.0.1",
			Port: 57120,
		},
		Clock: ClockConfig{
			Grain:  "10ms",
			Budget: "1ms",
			Tempo:  sequencer.DefaultBPM,
		},
		Voices: []VoiceConfig{
			{Channel: 1, Pattern: "1 3 5 [8 5]", Root: "C3", Scale: "maj"},
		},
		Instruments: map[string]*sequencer.Instrument{
			"volcabeats": sequencer.Volcabeats(),
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-braid"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path, or returns defaults if it does not exist. Fields
// missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Voices = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that would otherwise fail at startup
func (c *Config) Validate() error {
	for _, d := range []struct{ name, value string }{
		{"midi.throttle", c.MIDI.Throttle},
		{"clock.grain", c.Clock.Grain},
		{"clock.budget", c.Clock.Budget},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(strings.TrimSpace(d.value)); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	for i, vc := range c.Voices {
		if _, err := c.VoiceOptions(vc); err != nil {
			return fmt.Errorf("voices[%d]: %w", i, err)
		}
	}
	return nil
}

// Throttle is the pause between MIDI messages
func (c *Config) Throttle() time.Duration { return durationOr(c.MIDI.Throttle, 0) }

// Grain is the clock tick interval
func (c *Config) Grain() time.Duration { return durationOr(c.Clock.Grain, sequencer.DefaultGrain) }

// Budget is the per-voice update budget
func (c *Config) Budget() time.Duration { return durationOr(c.Clock.Budget, sequencer.DefaultBudget) }

// DriverOptions builds driver options writing to sink
func (c *Config) DriverOptions(sink sequencer.Sink) sequencer.Options {
	return sequencer.Options{
		Grain:  c.Grain(),
		Budget: c.Budget(),
		BPM:    c.Clock.Tempo,
		Sink:   sink,
	}
}

// VoiceOptions turns a voice entry into constructor options
func (c *Config) VoiceOptions(vc VoiceConfig) ([]sequencer.VoiceOption, error) {
	if vc.Channel < 1 || vc.Channel > 16 {
		return nil, fmt.Errorf("channel %d out of range 1-16", vc.Channel)
	}

	var opts []sequencer.VoiceOption
	if vc.Pattern != "" {
		pattern, err := sequencer.Parse(vc.Pattern)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sequencer.WithPattern(pattern))
	}

	if vc.Instrument != "" {
		in, ok := c.Instruments[vc.Instrument]
		if !ok || in == nil {
			return nil, fmt.Errorf("unknown instrument %q", vc.Instrument)
		}
		opts = append(opts, sequencer.WithInstrument(in))
	}

	if vc.Kit != "" {
		kit, ok := sequencer.LookupKit(vc.Kit)
		if !ok {
			return nil, fmt.Errorf("unknown kit %q", vc.Kit)
		}
		chord := kit.Chord()
		opts = append(opts, sequencer.WithChord(chord.Root, chord.Scale))
	}

	// an explicit chord overrides an instrument kit
	if vc.Root != "" || vc.Scale != "" {
		root := sequencer.C
		if vc.Root != "" {
			n, ok := sequencer.ParseNote(vc.Root)
			if !ok {
				return nil, fmt.Errorf("bad root note %q", vc.Root)
			}
			root = n
		}
		scale := sequencer.MAJ
		if vc.Scale != "" {
			s, ok := sequencer.LookupScale(vc.Scale)
			if !ok {
				return nil, fmt.Errorf("unknown scale %q (have %s)", vc.Scale, strings.Join(sequencer.ScaleNames(), ", "))
			}
			scale = s
		}
		opts = append(opts, sequencer.WithChord(root, scale))
	}

	return opts, nil
}

// AddVoices creates every configured voice on d. Call before the clock runs.
func (c *Config) AddVoices(d *sequencer.Driver) ([]*sequencer.Voice, error) {
	var voices []*sequencer.Voice
	for i, vc := range c.Voices {
		opts, err := c.VoiceOptions(vc)
		if err != nil {
			return voices, fmt.Errorf("voices[%d]: %w", i, err)
		}
		v := d.NewVoice(vc.Channel, opts...)
		if vc.Velocity > 0 {
			v.Velocity.Set(vc.Velocity)
		}
		if vc.Rate > 0 {
			v.Rate.Set(vc.Rate)
		}
		v.Mute = vc.Mute
		voices = append(voices, v)
	}
	return voices, nil
}

func durationOr(s string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return v
	}
	return d
}
