package theory

import (
	"fmt"
	"strings"
)

// ChordType is a named interval set.
type ChordType int

const (
	Maj ChordType = iota
	Min
	Dim
	Aug
	Dom7
	Maj7
	Min7
	Dim7
	Sus2
	Sus4
	Add9
	Maj6
	Min6
)

type chordSpec struct {
	symbol    string // short identifier used in documents
	name      string // long name shown on bar slots
	suffix    string // appended to the root for display
	intervals []int  // semitones above the root
}

var chordTypes = [...]chordSpec{
	Maj:  {"maj", "Major", "", []int{0, 4, 7}},
	Min:  {"min", "Minor", "m", []int{0, 3, 7}},
	Dim:  {"dim", "Dim", "°", []int{0, 3, 6}},
	Aug:  {"aug", "Aug", "+", []int{0, 4, 8}},
	Dom7: {"7", "7", "7", []int{0, 4, 7, 10}},
	Maj7: {"maj7", "Maj7", "maj7", []int{0, 4, 7, 11}},
	Min7: {"min7", "Min7", "m7", []int{0, 3, 7, 10}},
	Dim7: {"dim7", "Dim7", "°7", []int{0, 3, 6, 9}},
	Sus2: {"sus2", "Sus2", "sus2", []int{0, 2, 7}},
	Sus4: {"sus4", "Sus4", "sus4", []int{0, 5, 7}},
	Add9: {"add9", "Add9", "add9", []int{0, 4, 7, 14}},
	Maj6: {"6", "6", "6", []int{0, 4, 7, 9}},
	Min6: {"min6", "Min6", "m6", []int{0, 3, 7, 9}},
}

// ChordTypes returns the catalog in its canonical order.
func ChordTypes() []ChordType {
	types := make([]ChordType, len(chordTypes))
	for i := range types {
		types[i] = ChordType(i)
	}
	return types
}

// ParseChordType looks up a chord type by its symbol, e.g. "min7".
func ParseChordType(s string) (ChordType, bool) {
	s = strings.TrimSpace(s)
	for i, spec := range chordTypes {
		if spec.symbol == s {
			return ChordType(i), true
		}
	}
	return Maj, false
}

func (t ChordType) Valid() bool { return t >= 0 && int(t) < len(chordTypes) }

func (t ChordType) spec() chordSpec {
	if !t.Valid() {
		return chordTypes[Maj]
	}
	return chordTypes[t]
}

// Intervals returns the semitone offsets of t. An unknown type yields the
// major triad.
func (t ChordType) Intervals() []int {
	return append([]int(nil), t.spec().intervals...)
}

func (t ChordType) Symbol() string {
	if !t.Valid() {
		return fmt.Sprintf("ChordType(%d)", int(t))
	}
	return chordTypes[t].symbol
}

// Name is the long form, e.g. "Min7".
func (t ChordType) Name() string { return t.spec().name }

func (t ChordType) String() string { return t.Symbol() }

func (t ChordType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid chord type %d", int(t))
	}
	return []byte(chordTypes[t].symbol), nil
}

func (t *ChordType) UnmarshalText(text []byte) error {
	ct, ok := ParseChordType(string(text))
	if !ok {
		return fmt.Errorf("unknown chord type %q", text)
	}
	*t = ct
	return nil
}

// Chord is a root, a chord type and an inversion.
type Chord struct {
	Root      Note      `yaml:"root" json:"root"`
	Type      ChordType `yaml:"type" json:"type"`
	Inversion int       `yaml:"inversion" json:"inversion"`
}

func (c Chord) Notes() []Note { return ChordNotes(c.Root, c.Type, c.Inversion) }

func (c Chord) Frequencies(baseOctave int) []float64 {
	return ChordFrequencies(c.Root, c.Type, c.Inversion, baseOctave)
}

func (c Chord) String() string { return DisplayName(c.Root, c.Type) }

// ChordNotes spells the chord and rotates it left once per inversion step.
// The rotation stops at len-1 steps, so any larger inversion voices the same
// as the highest one.
func ChordNotes(root Note, t ChordType, inversion int) []Note {
	intervals := t.spec().intervals
	notes := make([]Note, len(intervals))
	for i, interval := range intervals {
		notes[i] = NoteAtInterval(root, interval)
	}
	for i := 0; i < inversion && i < len(notes)-1; i++ {
		notes = append(notes[1:], notes[0])
	}
	return notes
}

// ChordFrequencies voices the chord upwards from baseOctave: whenever a note
// is not above the previous pitch class the octave is bumped. Notes that fall
// outside the frequency table are left out.
func ChordFrequencies(root Note, t ChordType, inversion, baseOctave int) []float64 {
	notes := ChordNotes(root, t, inversion)
	freqs := make([]float64, 0, len(notes))
	octave := baseOctave
	last := NoNote
	for i, n := range notes {
		if i > 0 && n <= last {
			octave++
		}
		if f, ok := n.Frequency(octave); ok {
			freqs = append(freqs, f)
		}
		last = n
	}
	return freqs
}

// DisplayName formats a chord symbol such as "Am", "G7" or "C°7". It returns
// an empty string for an unrecognized root.
func DisplayName(root Note, t ChordType) string {
	if !root.Valid() {
		return ""
	}
	suffix := t.Symbol()
	if t.Valid() {
		suffix = chordTypes[t].suffix
	}
	return root.String() + suffix
}

var inversionNames = [...]string{"Root", "1st Inv", "2nd Inv", "3rd Inv"}

// InversionName labels an inversion for display.
func InversionName(inversion int) string {
	if inversion >= 0 && inversion < len(inversionNames) {
		return inversionNames[inversion]
	}
	return fmt.Sprintf("%dth Inv", inversion)
}

// ParseChord reads a chord symbol as written by DisplayName ("F#m7", "B°")
// or with the type spelled out ("Bdim", "Cmin7").
func ParseChord(s string) (Chord, bool) {
	s = strings.TrimSpace(s)
	n := 1
	if len(s) > 1 && s[1] == '#' {
		n = 2
	}
	if len(s) < n {
		return Chord{}, false
	}
	root, ok := ParseNote(s[:n])
	if !ok {
		return Chord{}, false
	}
	suffix := s[n:]
	for i, spec := range chordTypes {
		if spec.suffix == suffix {
			return Chord{Root: root, Type: ChordType(i)}, true
		}
	}
	if t, ok := ParseChordType(suffix); ok {
		return Chord{Root: root, Type: t}, true
	}
	return Chord{}, false
}
