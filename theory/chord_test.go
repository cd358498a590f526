package theory

import (
	"reflect"
	"testing"
)

func TestNoteAtInterval(t *testing.T) {
	tests := []struct {
		root      Note
		semitones int
		want      Note
	}{
		{C, 4, E},
		{A, 3, C},
		{B, 14, CSharp},
		{D, -3, B},
		{NoNote, 7, NoNote},
		{Note(42), 2, Note(42)},
	}
	for _, test := range tests {
		if got := NoteAtInterval(test.root, test.semitones); got != test.want {
			t.Errorf("NoteAtInterval(%v, %d): want %v, got %v", test.root, test.semitones, test.want, got)
		}
	}
}

func TestChordNotes(t *testing.T) {
	tests := []struct {
		root      Note
		typ       ChordType
		inversion int
		want      []Note
	}{
		{C, Maj, 0, []Note{C, E, G}},
		{C, Maj, 1, []Note{E, G, C}},
		{C, Maj, 2, []Note{G, C, E}},
		{A, Min7, 3, []Note{G, A, C, E}},
		{C, ChordType(99), 0, []Note{C, E, G}},
	}
	for _, test := range tests {
		if want, got := test.want, ChordNotes(test.root, test.typ, test.inversion); !reflect.DeepEqual(want, got) {
			t.Errorf("ChordNotes(%v, %v, %d): want %v, got %v", test.root, test.typ, test.inversion, want, got)
		}
	}
}

func TestInversionPlateaus(t *testing.T) {
	for _, root := range AllNotes() {
		for _, typ := range ChordTypes() {
			max := len(typ.Intervals()) - 1
			want := ChordNotes(root, typ, max)
			for inv := max + 1; inv < max+6; inv++ {
				if got := ChordNotes(root, typ, inv); !reflect.DeepEqual(want, got) {
					t.Errorf("%v%v inversion %d: want %v, got %v", root, typ, inv, want, got)
				}
			}
		}
	}
}

func TestChordFrequencies(t *testing.T) {
	if want, got := []float64{130.81, 164.81, 196.00}, ChordFrequencies(C, Maj, 0, 3); !reflect.DeepEqual(want, got) {
		t.Errorf("C major: want %v, got %v", want, got)
	}
	// The root moves up an octave once the voicing wraps past G.
	if want, got := []float64{164.81, 196.00, 261.63}, ChordFrequencies(C, Maj, 1, 3); !reflect.DeepEqual(want, got) {
		t.Errorf("C major first inversion: want %v, got %v", want, got)
	}
	if want, got := []float64{146.83, 185.00, 220.00, 261.63}, ChordFrequencies(D, Dom7, 0, 3); !reflect.DeepEqual(want, got) {
		t.Errorf("D7: want %v, got %v", want, got)
	}
}

func TestChordFrequenciesAscend(t *testing.T) {
	for _, root := range AllNotes() {
		for _, typ := range ChordTypes() {
			freqs := ChordFrequencies(root, typ, 0, 3)
			if want, got := len(typ.Intervals()), len(freqs); want != got {
				t.Errorf("%v%v: want %d frequencies, got %d", root, typ, want, got)
			}
			for i := 1; i < len(freqs); i++ {
				if freqs[i] <= freqs[i-1] {
					t.Errorf("%v%v: voicing descends at %d: %v", root, typ, i, freqs)
				}
			}
		}
	}
}

func TestChordFrequenciesOutOfRange(t *testing.T) {
	// D# and F# would need octave 6.
	if want, got := []float64{987.77}, ChordFrequencies(B, Maj, 0, 5); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	if got := ChordFrequencies(NoNote, Maj, 0, 3); len(got) != 0 {
		t.Errorf("unknown root: want no frequencies, got %v", got)
	}
	if got := ChordFrequencies(C, Maj, 0, -1); !reflect.DeepEqual([]float64{}, got) {
		t.Errorf("negative octave: want no frequencies, got %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		root Note
		typ  ChordType
		want string
	}{
		{A, Min, "Am"},
		{G, Dom7, "G7"},
		{C, Dim7, "C°7"},
		{F, Maj, "F"},
		{FSharp, Aug, "F#+"},
		{NoNote, Maj, ""},
	}
	for _, test := range tests {
		if got := DisplayName(test.root, test.typ); got != test.want {
			t.Errorf("DisplayName(%v, %v): want %q, got %q", test.root, test.typ, test.want, got)
		}
	}
}

func TestChordTypeCatalog(t *testing.T) {
	if want, got := 13, len(ChordTypes()); want != got {
		t.Fatalf("want %d chord types, got %d", want, got)
	}
	for _, typ := range ChordTypes() {
		intervals := typ.Intervals()
		if len(intervals) == 0 || intervals[0] != 0 {
			t.Errorf("%v: intervals must start at the root: %v", typ, intervals)
		}
		parsed, ok := ParseChordType(typ.Symbol())
		if !ok || parsed != typ {
			t.Errorf("ParseChordType(%q): got %v, %v", typ.Symbol(), parsed, ok)
		}
	}
}

func TestParseNote(t *testing.T) {
	if n, ok := ParseNote("f#"); !ok || n != FSharp {
		t.Errorf("want F#, got %v %v", n, ok)
	}
	if n, ok := ParseNote("H"); ok || n != NoNote {
		t.Errorf("want NoNote, got %v %v", n, ok)
	}
	var n Note
	if err := n.UnmarshalText([]byte("X")); err != nil || n != NoNote {
		t.Errorf("UnmarshalText: want NoNote without error, got %v %v", n, err)
	}
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		input string
		want  Chord
		ok    bool
	}{
		{"C", Chord{Root: C, Type: Maj}, true},
		{"Am7", Chord{Root: A, Type: Min7}, true},
		{"F#m", Chord{Root: FSharp, Type: Min}, true},
		{"B°", Chord{Root: B, Type: Dim}, true},
		{"Bdim", Chord{Root: B, Type: Dim}, true},
		{"C°7", Chord{Root: C, Type: Dim7}, true},
		{"Gsus4", Chord{Root: G, Type: Sus4}, true},
		{"Eb", Chord{}, false},
		{"H7", Chord{}, false},
		{"Cxyz", Chord{}, false},
		{"", Chord{}, false},
	}
	for _, test := range tests {
		got, ok := ParseChord(test.input)
		if ok != test.ok || got != test.want {
			t.Errorf("ParseChord(%q): want %v %v, got %v %v", test.input, test.want, test.ok, got, ok)
		}
	}
}
