package progression

import (
	"github.com/mrdg/chordmaker/theory"
)

type degree struct {
	semitones int
	typ       theory.ChordType
}

// Preset is a common progression expressed in scale degrees.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// MinBars is the bar count the progression is grown to when loaded.
	MinBars int `json:"minBars,omitempty"`

	major, minor []degree
}

var (
	pop     = []degree{{0, theory.Maj}, {7, theory.Maj}, {9, theory.Min}, {5, theory.Maj}}
	popMin  = []degree{{0, theory.Min}, {7, theory.Min}, {8, theory.Maj}, {5, theory.Min}}
	epic    = []degree{{0, theory.Min}, {8, theory.Maj}, {3, theory.Maj}, {10, theory.Maj}}
	i7, iv7 = degree{0, theory.Dom7}, degree{5, theory.Dom7}
	v7      = degree{7, theory.Dom7}
	blues   = []degree{i7, i7, i7, i7, iv7, iv7, i7, i7, v7, iv7, i7, v7}
)

var presets = []Preset{
	{
		ID:          "I-V-vi-IV",
		Name:        "I-V-vi-IV (Pop)",
		Description: "The most popular chord progression in modern music",
		major:       pop,
		minor:       popMin,
	},
	{
		ID:          "I-IV-V-I",
		Name:        "I-IV-V-I (Classic)",
		Description: "The foundational progression in Western music",
		major:       []degree{{0, theory.Maj}, {5, theory.Maj}, {7, theory.Maj}, {0, theory.Maj}},
		minor:       []degree{{0, theory.Min}, {5, theory.Min}, {7, theory.Min}, {0, theory.Min}},
	},
	{
		ID:          "ii-V-I",
		Name:        "ii-V-I (Jazz)",
		Description: "The essential jazz progression",
		major:       []degree{{2, theory.Min7}, {7, theory.Dom7}, {0, theory.Maj7}, {0, theory.Maj7}},
		minor:       []degree{{2, theory.Dim}, {7, theory.Dom7}, {0, theory.Min7}, {0, theory.Min7}},
	},
	{
		ID:          "I-vi-IV-V",
		Name:        "I-vi-IV-V (50s)",
		Description: "The classic 1950s doo-wop progression",
		major:       []degree{{0, theory.Maj}, {9, theory.Min}, {5, theory.Maj}, {7, theory.Maj}},
		minor:       []degree{{0, theory.Min}, {8, theory.Maj}, {5, theory.Min}, {7, theory.Min}},
	},
	{
		ID:          "vi-IV-I-V",
		Name:        "vi-IV-I-V (Axis)",
		Description: "Starting on the relative minor for a different feel",
		major:       []degree{{9, theory.Min}, {5, theory.Maj}, {0, theory.Maj}, {7, theory.Maj}},
		minor:       []degree{{8, theory.Maj}, {5, theory.Min}, {0, theory.Min}, {7, theory.Min}},
	},
	{
		ID:          "I-IV-vi-V",
		Name:        "I-IV-vi-V (Anthemic)",
		Description: "Great for big choruses and anthemic songs",
		major:       []degree{{0, theory.Maj}, {5, theory.Maj}, {9, theory.Min}, {7, theory.Maj}},
		minor:       []degree{{0, theory.Min}, {5, theory.Min}, {8, theory.Maj}, {7, theory.Min}},
	},
	{
		ID:          "i-VI-III-VII",
		Name:        "i-VI-III-VII (Epic)",
		Description: "Dramatic progression for cinematic moments",
		major:       epic,
		minor:       epic,
	},
	{
		ID:          "12-bar-blues",
		Name:        "12-Bar Blues",
		Description: "The classic blues progression (needs 12 bars)",
		MinBars:     12,
		major:       blues,
		minor:       blues,
	},
}

// Presets lists the built in progressions.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

func FindPreset(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Chords spells the preset in the given key.
func (p Preset) Chords(key theory.Note, mode theory.Mode) []theory.Chord {
	degrees := p.major
	if mode == theory.Minor {
		degrees = p.minor
	}
	chords := make([]theory.Chord, len(degrees))
	for i, d := range degrees {
		chords[i] = theory.Chord{Root: theory.NoteAtInterval(key, d.semitones), Type: d.typ}
	}
	return chords
}

// Apply fills every bar of prog, repeating the preset as needed. The
// progression is grown first if the preset needs more bars.
func (p Preset) Apply(prog *Progression, key theory.Note, mode theory.Mode) {
	if prog.Len() < p.MinBars {
		prog.Resize(p.MinBars)
	}
	chords := p.Chords(key, mode)
	beats := prog.BeatsPerBar()
	slots := make([]Slot, prog.Len())
	for i := range slots {
		slots[i] = EmptySlot(beats)
		if len(chords) > 0 {
			c := chords[i%len(chords)]
			slots[i].Chord = &c
		}
	}
	prog.Replace(slots)
}
