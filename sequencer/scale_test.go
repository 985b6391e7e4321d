package sequencer

import (
	"errors"
	"testing"
)

func TestScaleDegree(t *testing.T) {
	tests := []struct {
		degree, want int
	}{
		{1, 0}, {3, 4}, {7, 11}, {8, 12}, {14, 23},
		{-1, -12}, {-7, -1}, {-8, -24}, {-14, -13},
	}
	for _, tt := range tests {
		got, err := MAJ.Degree(tt.degree)
		if err != nil {
			t.Errorf("Degree(%d): %v", tt.degree, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Degree(%d) = %d, want %d", tt.degree, got, tt.want)
		}
	}
}

func TestScaleDegreeOutOfRange(t *testing.T) {
	for _, d := range []int{0, 15, -15, 100} {
		_, err := MAJ.Degree(d)
		var sde *ScaleDegreeError
		if !errors.As(err, &sde) || sde.Degree != d || sde.Len != 7 {
			t.Errorf("Degree(%d) err = %v", d, err)
		}
		if !errors.Is(err, ErrScaleDegree) {
			t.Errorf("Degree(%d) not ErrScaleDegree", d)
		}
	}
	if _, err := (Scale{}).Degree(1); err == nil {
		t.Error("empty scale accepted a degree")
	}
}

func TestScaleArithmetic(t *testing.T) {
	tests := []struct {
		name                string
		degree, steps, want int
	}{
		{"up", 7, 1, 8},
		{"below root", 1, -1, -7},
		{"back to root", -7, 1, 1},
		{"two octaves down", -1, -1, -14},
		{"top of range", 14, 1, 14},
		{"invalid degree", 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MAJ.Add(tt.degree, tt.steps); got != tt.want {
				t.Errorf("Add(%d, %d) = %d, want %d", tt.degree, tt.steps, got, tt.want)
			}
		})
	}
	if got := MAJ.Subtract(8, 7); got != 1 {
		t.Errorf("Subtract(8, 7) = %d", got)
	}
}

func TestScaleArithmeticKeepsPitchLine(t *testing.T) {
	// each step down lowers the pitch
	prev, _ := MAJ.Degree(14)
	d := 14
	for i := 0; i < 27; i++ {
		d = MAJ.Subtract(d, 1)
		p, err := MAJ.Degree(d)
		if err != nil {
			t.Fatalf("step %d: degree %d: %v", i, d, err)
		}
		if p >= prev {
			t.Fatalf("degree %d pitch %d not below %d", d, p, prev)
		}
		prev = p
	}
	if d != -8 {
		t.Errorf("bottom degree = %d, want -8", d)
	}
}

func TestRotate(t *testing.T) {
	want := Scale{0, 2, 3, 5, 7, 9, 10}
	if got := MAJ.Rotate(1); !equalInts(got, want) {
		t.Errorf("Rotate(1) = %v", got)
	}
	if got := MAJ.Rotate(-1); !equalInts(got, LOC) {
		t.Errorf("Rotate(-1) = %v, want %v", got, LOC)
	}
	if got := (Scale{}).Rotate(3); len(got) != 0 {
		t.Errorf("empty Rotate = %v", got)
	}
}

func TestChordPitch(t *testing.T) {
	c := Chord{Root: 48, Scale: MIN}
	if p, err := c.Pitch(3); err != nil || p != 51 {
		t.Errorf("Pitch(3) = %d, %v", p, err)
	}
	if _, err := c.Pitch(0); err == nil {
		t.Error("Pitch(0) succeeded")
	}
}

func TestLookupScale(t *testing.T) {
	s, ok := LookupScale("DOR")
	if !ok || !equalInts(s, DOR) {
		t.Errorf("LookupScale(DOR) = %v, %v", s, ok)
	}
	if _, ok := LookupScale("nope"); ok {
		t.Error("unknown scale found")
	}
	names := ScaleNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"C4", 60, true},
		{"c", 60, true},
		{"Bb2", 46, true},
		{"b2", 47, true},
		{"f#3", 54, true},
		{"c-1", 0, true},
		{"G9", 127, true},
		{"A9", 0, false},
		{"h3", 0, false},
		{"C4x", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNote(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseNote(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKits(t *testing.T) {
	gm, ok := LookupKit(DefaultKit)
	if !ok {
		t.Fatal("default kit missing")
	}
	c := gm.Chord()
	for degree, want := range map[int]int{1: 36, 2: 38, 10: 39} {
		if p, err := c.Pitch(degree); err != nil || p != want {
			t.Errorf("gm degree %d = %d, %v; want %d", degree, p, err, want)
		}
	}
	if d := gm.Degree("snare"); d != 2 {
		t.Errorf("snare degree = %d", d)
	}
	if d := Kits["er1"].Degree("clave"); d != 0 {
		t.Errorf("er1 has no clave, got degree %d", d)
	}
	if _, ok := LookupKit("808"); ok {
		t.Error("unknown kit found")
	}
}
