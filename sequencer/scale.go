package sequencer

import (
	"sort"
	"strings"
)

// Octave is the number of semitones per octave
const Octave = 12

// Scale is a list of semitone offsets from a root, addressed by 1-based degree.
//
// Positive degrees count up from the root over two octaves; negative degrees
// address the two octaves below the root, each octave counted upward, so on a
// 7-note scale -1 is the root an octave down and -8 is the root two octaves down.
type Scale []int

// Degree maps a scale degree to semitones above (or below) the root.
func (s Scale) Degree(degree int) (int, error) {
	n := len(s)
	if degree == 0 || n == 0 || degree > 2*n || degree < -2*n {
		return 0, &ScaleDegreeError{Degree: degree, Len: n}
	}
	if degree > 0 {
		octave := (degree - 1) / n
		return s[(degree-1)%n] + octave*Octave, nil
	}
	a := -degree
	octave := -(1 + (a-1)/n)
	return s[(a-1)%n] + octave*Octave, nil
}

// Rotate returns the mode starting on the given 0-based step
func (s Scale) Rotate(steps int) Scale {
	n := len(s)
	if n == 0 {
		return Scale{}
	}
	steps = ((steps % n) + n) % n
	out := make(Scale, n)
	for i := range s {
		v := s[(i+steps)%n] - s[steps]
		if v < 0 {
			v += Octave
		}
		out[i] = v
	}
	return out
}

// index converts a degree to a position on a continuous line where 0 is the
// root and -1 is the top step of the octave below.
func (s Scale) index(degree int) int {
	n := len(s)
	if degree > 0 {
		return degree - 1
	}
	a := -degree
	block := (a - 1) / n
	pos := (a - 1) % n
	return -(block+1)*n + pos
}

func (s Scale) degreeAt(idx int) int {
	n := len(s)
	if idx >= 0 {
		return idx + 1
	}
	blocks := (-idx + n - 1) / n
	pos := idx + blocks*n
	return -((blocks-1)*n + pos + 1)
}

// Add moves degree up by steps scale positions. An invalid degree, or a
// result outside the addressable range, returns degree unchanged.
func (s Scale) Add(degree, steps int) int {
	if _, err := s.Degree(degree); err != nil {
		return degree
	}
	n := len(s)
	idx := s.index(degree) + steps
	if idx < -2*n || idx >= 2*n {
		return degree
	}
	return s.degreeAt(idx)
}

// Subtract moves degree down by steps scale positions
func (s Scale) Subtract(degree, steps int) int {
	return s.Add(degree, -steps)
}

// Chord is a root note and the scale degrees are resolved against
type Chord struct {
	Root  int   `json:"root"`
	Scale Scale `json:"scale"`
}

// Pitch resolves degree to a MIDI note number
func (c Chord) Pitch(degree int) (int, error) {
	semis, err := c.Scale.Degree(degree)
	if err != nil {
		return 0, err
	}
	return c.Root + semis, nil
}

// Named scales
var (
	MAJ = Scale{0, 2, 4, 5, 7, 9, 11}
	ION = MAJ
	DOR = MAJ.Rotate(1)
	PRG = MAJ.Rotate(2)
	LYD = MAJ.Rotate(3)
	MYX = MAJ.Rotate(4)
	DOM = MYX
	AOL = MAJ.Rotate(5)
	LOC = MAJ.Rotate(6)
	MIN = Scale{0, 2, 3, 5, 7, 8, 11}
	BLU = Scale{0, 3, 5, 6, 7, 10}
	PEN = Scale{0, 2, 4, 7, 9}
	CHR = Scale{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	SDR = Scale{0, 2, 5, 7, 9}
	PLG = Scale{0, 1, 3, 6, 7, 8, 10}
	JAM = Scale{0, 2, 3, 5, 6, 7, 10, 11}
)

var scales = map[string]Scale{
	"maj": MAJ, "ion": ION, "dor": DOR, "prg": PRG, "lyd": LYD,
	"myx": MYX, "dom": DOM, "aol": AOL, "loc": LOC, "min": MIN,
	"blu": BLU, "pen": PEN, "chr": CHR, "sdr": SDR, "plg": PLG, "jam": JAM,
}

// LookupScale finds a named scale, case-insensitive
func LookupScale(name string) (Scale, bool) {
	s, ok := scales[strings.ToLower(name)]
	return s, ok
}

// ScaleNames returns the known scale names, sorted
func ScaleNames() []string {
	names := make([]string, 0, len(scales))
	for k := range scales {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Notes in the octave starting at middle C
const (
	C  = 60
	Db = 61
	D  = 62
	Eb = 63
	E  = 64
	F  = 65
	Gb = 66
	G  = 67
	Ab = 68
	A  = 69
	Bb = 70
	B  = 71
)

var noteNames = map[string]int{
	"c": 0, "c#": 1, "db": 1, "d": 2, "d#": 3, "eb": 3, "e": 4, "f": 5,
	"f#": 6, "gb": 6, "g": 7, "g#": 8, "ab": 8, "a": 9, "a#": 10, "bb": 10, "b": 11,
}

// ParseNote reads a note name like "C4", "Bb2" or "f#3" into a MIDI note.
// A name without an octave is in octave 4.
func ParseNote(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	i := 1
	if len(name) > 1 && (name[1] == '#' || name[1] == 'b') {
		i = 2
	}
	pc, ok := noteNames[name[:i]]
	if !ok {
		return 0, false
	}
	octave := 4
	if rest := name[i:]; rest != "" {
		neg := false
		if rest[0] == '-' {
			neg = true
			rest = rest[1:]
		}
		if rest == "" {
			return 0, false
		}
		octave = 0
		for _, r := range rest {
			if r < '0' || r > '9' {
				return 0, false
			}
			octave = octave*10 + int(r-'0')
		}
		if neg {
			octave = -octave
		}
	}
	note := (octave+1)*Octave + pc
	if note < 0 || note > 127 {
		return 0, false
	}
	return note, true
}
