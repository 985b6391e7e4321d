package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-braid/sequencer"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clock.Tempo != sequencer.DefaultBPM {
		t.Errorf("tempo = %v", cfg.Clock.Tempo)
	}
	if cfg.Grain() != 10*time.Millisecond {
		t.Errorf("grain = %v", cfg.Grain())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.MIDI.OutPort = "volca"
	cfg.MIDI.Throttle = "2ms"
	cfg.Voices = append(cfg.Voices, VoiceConfig{Channel: 10, Pattern: "1 - 2 -", Instrument: "volcabeats"})
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.MIDI.OutPort != "volca" || got.Throttle() != 2*time.Millisecond {
		t.Errorf("midi = %+v", got.MIDI)
	}
	if len(got.Voices) != 2 || got.Voices[1].Instrument != "volcabeats" {
		t.Errorf("voices = %+v", got.Voices)
	}
	if in := got.Instruments["volcabeats"]; in == nil || len(in.Controls) != 10 || !in.Levels {
		t.Errorf("instrument = %+v", in)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"clock":{"tempo":90}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clock.Tempo != 90 {
		t.Errorf("tempo = %v", cfg.Clock.Tempo)
	}
	if cfg.Budget() != time.Millisecond {
		t.Errorf("budget = %v", cfg.Budget())
	}
	if len(cfg.Voices) != 0 {
		t.Errorf("default voices leaked into %+v", cfg.Voices)
	}
}

func TestLoadRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"duration", `{"clock":{"grain":"fast"}}`, "clock.grain"},
		{"pattern", `{"voices":[{"channel":1,"pattern":"[1 2"}]}`, "voices[0]"},
		{"scale", `{"voices":[{"channel":1,"scale":"nope"}]}`, "unknown scale"},
		{"channel", `{"voices":[{"channel":17}]}`, "out of range"},
		{"instrument", `{"voices":[{"channel":1,"instrument":"moog"}]}`, "unknown instrument"},
		{"kit", `{"voices":[{"channel":1,"kit":"808"}]}`, "unknown kit"},
		{"json", `{`, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestAddVoices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Voices = []VoiceConfig{
		{Channel: 2, Pattern: "1 2", Root: "C3", Scale: "min", Velocity: 0.5, Rate: 2, Mute: true},
		{Channel: 10, Instrument: "volcabeats"},
		{Channel: 11, Kit: "rd8"},
	}
	d := sequencer.NewDriver(sequencer.Options{})
	voices, err := cfg.AddVoices(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 3 {
		t.Fatalf("got %d voices", len(voices))
	}
	v := voices[0]
	if v.Chord.Root != 48 || len(v.Chord.Scale) != len(sequencer.MIN) {
		t.Errorf("chord = %+v", v.Chord)
	}
	if v.Velocity.Value() != 0.5 || v.Rate.Value() != 2 || !v.Mute {
		t.Errorf("voice settings velocity=%v rate=%v mute=%v", v.Velocity.Value(), v.Rate.Value(), v.Mute)
	}
	if got := sequencer.Format(v.Pattern()); got != "1 2" {
		t.Errorf("pattern = %q", got)
	}
	if voices[1].Control("kick") == nil {
		t.Error("instrument controls missing")
	}
	if voices[1].NoteFunc == nil {
		t.Error("level instrument plays without a note hook")
	}
	if voices[1].Chord.Root != 36 {
		t.Errorf("kit chord = %+v", voices[1].Chord)
	}
	if p, err := voices[2].Chord.Pitch(2); err != nil || p != 40 {
		t.Errorf("rd8 snare = %d, %v", p, err)
	}
}
