package progression

import (
	"encoding/json"

	"github.com/mrdg/chordmaker/theory"
	"gopkg.in/yaml.v3"
)

// Slot is one bar of a progression. A nil Chord is a rest.
type Slot struct {
	Chord *theory.Chord
	Beats int
}

func EmptySlot(beats int) Slot { return Slot{Beats: beats} }

func (s Slot) Empty() bool { return s.Chord == nil || !s.Chord.Root.Valid() }

func (s Slot) String() string {
	if s.Empty() {
		return "-"
	}
	return s.Chord.String()
}

func (s Slot) clone() Slot {
	if s.Chord != nil {
		c := *s.Chord
		s.Chord = &c
	}
	return s
}

// slotDoc is the document shape of a slot. An empty slot has a null chord
// and type.
type slotDoc struct {
	Chord     *theory.Note      `yaml:"chord" json:"chord"`
	Type      *theory.ChordType `yaml:"type" json:"type"`
	Inversion int               `yaml:"inversion" json:"inversion"`
	Duration  int               `yaml:"duration" json:"duration"`
}

func (s Slot) doc() slotDoc {
	d := slotDoc{Duration: s.Beats}
	if !s.Empty() {
		root, typ := s.Chord.Root, s.Chord.Type
		d.Chord, d.Type = &root, &typ
		d.Inversion = s.Chord.Inversion
	}
	return d
}

func (d slotDoc) slot() Slot {
	s := Slot{Beats: d.Duration}
	if d.Chord == nil || d.Type == nil || !d.Chord.Valid() {
		return s
	}
	s.Chord = &theory.Chord{Root: *d.Chord, Type: *d.Type, Inversion: max(d.Inversion, 0)}
	return s
}

func (s Slot) MarshalYAML() (interface{}, error) { return s.doc(), nil }

func (s *Slot) UnmarshalYAML(value *yaml.Node) error {
	var d slotDoc
	if err := value.Decode(&d); err != nil {
		return err
	}
	*s = d.slot()
	return nil
}

func (s Slot) MarshalJSON() ([]byte, error) { return json.Marshal(s.doc()) }

func (s *Slot) UnmarshalJSON(data []byte) error {
	var d slotDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*s = d.slot()
	return nil
}
