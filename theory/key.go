package theory

import (
	"fmt"
	"strings"
)

type Mode int

const (
	Major Mode = iota
	Minor
)

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, true
	case "minor":
		return Minor, true
	}
	return Major, false
}

func (m Mode) String() string {
	if m == Minor {
		return "Minor"
	}
	return "Major"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	mode, ok := ParseMode(string(text))
	if !ok {
		return fmt.Errorf("unknown mode %q", text)
	}
	*m = mode
	return nil
}

type scaleChord struct {
	numeral string
	degree  int
	typ     ChordType
}

var scaleChords = map[Mode][]scaleChord{
	Major: {
		{"I", 0, Maj},
		{"ii", 2, Min},
		{"iii", 4, Min},
		{"IV", 5, Maj},
		{"V", 7, Maj},
		{"vi", 9, Min},
		{"vii°", 11, Dim},
	},
	Minor: {
		{"i", 0, Min},
		{"ii°", 2, Dim},
		{"III", 3, Maj},
		{"iv", 5, Min},
		{"v", 7, Min},
		{"VI", 8, Maj},
		{"VII", 10, Maj},
	},
}

// DiatonicChord is a triad built on a scale degree of a key.
type DiatonicChord struct {
	Numeral string    `json:"numeral"`
	Root    Note      `json:"root"`
	Type    ChordType `json:"type"`
}

// ChordsInKey lists the diatonic triads of key in scale order.
func ChordsInKey(key Note, mode Mode) []DiatonicChord {
	degrees := scaleChords[mode]
	chords := make([]DiatonicChord, len(degrees))
	for i, d := range degrees {
		chords[i] = DiatonicChord{
			Numeral: d.numeral,
			Root:    NoteAtInterval(key, d.degree),
			Type:    d.typ,
		}
	}
	return chords
}

// Numeral returns the roman numeral of the chord in key, or an empty string
// if the chord is not diatonic.
func Numeral(root Note, t ChordType, key Note, mode Mode) string {
	for _, c := range ChordsInKey(key, mode) {
		if c.Root == root && c.Type == t {
			return c.Numeral
		}
	}
	return ""
}

// InKey reports whether the chord is diatonic to key.
func InKey(root Note, t ChordType, key Note, mode Mode) bool {
	return Numeral(root, t, key, mode) != ""
}
