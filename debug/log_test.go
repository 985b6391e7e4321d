package debug

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(io.Discard) })
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t)
	Log("clock", "tick %d", 1)
	Warn("voice", "slow")
	Error("trigger", errors.New("boom"), "failed id=%d", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	checks := [][]string{
		{"level=debug", "cat=clock", `msg="tick 1"`},
		{"level=warning", "cat=voice", "msg=slow"},
		{"level=error", "cat=trigger", "error=boom", `msg="failed id=3"`},
	}
	for i, want := range checks {
		for _, w := range want {
			if !strings.Contains(lines[i], w) {
				t.Errorf("line %d %q missing %q", i, lines[i], w)
			}
		}
	}
}

func TestLogEvery(t *testing.T) {
	buf := capture(t)
	for i := 0; i < 7; i++ {
		LogEvery(3, "pulse", "clock pulse")
	}
	if n := strings.Count(buf.String(), "clock pulse"); n != 2 {
		t.Errorf("logged %d times:\n%s", n, buf.String())
	}
}

func TestEnableDisable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatal(err)
	}
	if !Enabled() {
		t.Error("not enabled")
	}
	Disable()
	if Enabled() {
		t.Error("still enabled")
	}
	Log("clock", "dropped")
}
