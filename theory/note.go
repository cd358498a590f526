// Package theory maps chord symbols to voiced frequencies and diatonic labels.
package theory

import (
	"fmt"
	"strings"
)

// Note is one of the twelve pitch classes in chromatic order starting at C.
type Note int

const (
	C Note = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

// NoNote is the value of a pitch class that could not be recognized.
const NoNote Note = -1

var noteNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteFrequencies holds equal tempered frequencies (A4 = 440Hz) indexed by
// scientific octave number, 0 to 5.
var noteFrequencies = [len(noteNames)][6]float64{
	{16.35, 32.70, 65.41, 130.81, 261.63, 523.25},
	{17.32, 34.65, 69.30, 138.59, 277.18, 554.37},
	{18.35, 36.71, 73.42, 146.83, 293.66, 587.33},
	{19.45, 38.89, 77.78, 155.56, 311.13, 622.25},
	{20.60, 41.20, 82.41, 164.81, 329.63, 659.25},
	{21.83, 43.65, 87.31, 174.61, 349.23, 698.46},
	{23.12, 46.25, 92.50, 185.00, 369.99, 739.99},
	{24.50, 49.00, 98.00, 196.00, 392.00, 783.99},
	{25.96, 51.91, 103.83, 207.65, 415.30, 830.61},
	{27.50, 55.00, 110.00, 220.00, 440.00, 880.00},
	{29.14, 58.27, 116.54, 233.08, 466.16, 932.33},
	{30.87, 61.74, 123.47, 246.94, 493.88, 987.77},
}

// MinOctave and MaxOctave bound the frequency table.
const (
	MinOctave = 0
	MaxOctave = len(noteFrequencies[0]) - 1
)

// AllNotes returns the pitch classes in chromatic order.
func AllNotes() []Note {
	notes := make([]Note, len(noteNames))
	for i := range notes {
		notes[i] = Note(i)
	}
	return notes
}

// ParseNote looks up a pitch class by name, e.g. "C" or "F#".
func ParseNote(s string) (Note, bool) {
	s = strings.TrimSpace(s)
	for i, name := range noteNames {
		if strings.EqualFold(name, s) {
			return Note(i), true
		}
	}
	return NoNote, false
}

// Valid reports whether n is a recognized pitch class.
func (n Note) Valid() bool { return n >= 0 && int(n) < len(noteNames) }

func (n Note) String() string {
	if !n.Valid() {
		return fmt.Sprintf("Note(%d)", int(n))
	}
	return noteNames[n]
}

// Frequency returns the frequency of n in the given octave. The second
// result is false if the table has no entry for it.
func (n Note) Frequency(octave int) (float64, bool) {
	if !n.Valid() || octave < MinOctave || octave > MaxOctave {
		return 0, false
	}
	return noteFrequencies[n][octave], true
}

// MarshalText encodes n by name. Unrecognized notes encode as an empty string.
func (n Note) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return []byte{}, nil
	}
	return []byte(noteNames[n]), nil
}

// UnmarshalText never fails: an unknown name decodes to NoNote so that a
// malformed document degrades to silence instead of being rejected.
func (n *Note) UnmarshalText(text []byte) error {
	*n, _ = ParseNote(string(text))
	return nil
}

// NoteAtInterval returns the pitch class semitones above root, wrapping
// around the octave. An unrecognized root is returned unchanged.
func NoteAtInterval(root Note, semitones int) Note {
	if !root.Valid() {
		return root
	}
	n := len(noteNames)
	return Note(((int(root)+semitones)%n + n) % n)
}
