package sequencer

// DrumKit maps drum parts to MIDI notes. Degree 1 plays the first part.
type DrumKit struct {
	Name  string
	Notes []int
}

// Part order shared by the built-in kits
var KitParts = []string{
	"kick", "snare", "clhat", "ophat", "lotom", "midtom", "hitom", "crash",
	"ride", "clap", "rimshot", "cowbell", "clave", "maracas", "loconga", "hiconga",
}

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name:  "General MIDI",
		Notes: []int{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"rd8": {
		// snare on 40, not 38
		Name:  "Behringer RD-8",
		Notes: []int{36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: []int{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63},
	},
	"er1": {
		Name:  "Korg ER-1",
		Notes: []int{36, 38, 42, 46, 40, 41, 43, 49, 45, 39},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// LookupKit returns a kit by name
func LookupKit(name string) (DrumKit, bool) {
	kit, ok := Kits[name]
	return kit, ok
}

// Chord addresses the kit by degree: the root is the first part and the
// scale holds every part's offset from it.
func (k DrumKit) Chord() Chord {
	if len(k.Notes) == 0 {
		return Chord{Root: C, Scale: Scale{0}}
	}
	root := k.Notes[0]
	scale := make(Scale, len(k.Notes))
	for i, n := range k.Notes {
		scale[i] = n - root
	}
	return Chord{Root: root, Scale: scale}
}

// Degree returns the degree that plays part, or 0
func (k DrumKit) Degree(part string) int {
	for i, p := range KitParts {
		if p == part && i < len(k.Notes) {
			return i + 1
		}
	}
	return 0
}
