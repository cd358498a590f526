package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/theory"
	"gopkg.in/yaml.v3"
)

const stateVersion = "1.0"

// State is the saved form of a session.
type State struct {
	Version     string             `yaml:"version" json:"version"`
	BPM         float64            `yaml:"bpm" json:"bpm"`
	Key         theory.Note        `yaml:"key" json:"key"`
	Mode        theory.Mode        `yaml:"mode" json:"mode"`
	Instrument  audio.Instrument   `yaml:"instrument" json:"instrument"`
	Bars        int                `yaml:"bars" json:"bars"`
	BeatsPerBar int                `yaml:"beatsPerBar" json:"beatsPerBar"`
	Progression []progression.Slot `yaml:"progression" json:"progression"`
}

func ReadState(r io.Reader) (State, error) {
	var st State
	if err := yaml.NewDecoder(r).Decode(&st); err != nil {
		return State{}, fmt.Errorf("invalid session document: %w", err)
	}
	return st, nil
}

func WriteState(w io.Writer, st State) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return err
	}
	return enc.Close()
}

func LoadFile(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return State{}, err
	}
	defer f.Close()
	return ReadState(f)
}

// SaveFile writes st next to path and renames it into place.
func SaveFile(path string, st State) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := WriteState(f, st); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
