package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupInterpolates(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	if got := p.Lookup(0.5); got != (RGB{100, 50, 25}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Lookup(-1); got != (RGB{0, 0, 0}) {
		t.Errorf("Lookup(-1) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{200, 100, 50}) {
		t.Errorf("Lookup(2) = %v", got)
	}
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.gpl")
	body := "GIMP Palette\nName: test\nColumns: 2\n# comment\n255 0 0\tred\n0 0 255 blue\nbad line\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadGPL(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "test" || len(p.Colors) != 2 || p.Colors[1] != (RGB{0, 0, 255}) {
		t.Errorf("palette = %+v", p)
	}
}

func TestNewFallsBackToPlasma(t *testing.T) {
	if th := New(nil); th.Palette != Plasma {
		t.Error("nil palette should use Plasma")
	}
	if c := New(nil).Color(0); c != "#0d0887" {
		t.Errorf("Color(0) = %s", c)
	}
}
