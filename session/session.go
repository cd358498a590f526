// Package session is the document a user edits: the progression together
// with tempo, key and instrument, plus an undo history.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/theory"
)

const maxHistory = 50

type Options struct {
	BPM         float64
	BeatsPerBar int
	Bars        int
	Key         theory.Note
	Mode        theory.Mode
	Instrument  audio.Instrument
}

func DefaultOptions() Options {
	return Options{
		BPM:         progression.DefaultBPM,
		BeatsPerBar: progression.DefaultBeatsPerBar,
		Bars:        progression.DefaultBars,
		Key:         theory.C,
		Mode:        theory.Major,
		Instrument:  audio.Piano,
	}
}

type snapshot struct {
	action string
	state  State
}

// Session is safe for concurrent use. The scheduler reads it from its own
// goroutine while commands change it.
type Session struct {
	prog *progression.Progression

	mu         sync.RWMutex
	bpm        float64
	key        theory.Note
	mode       theory.Mode
	instrument audio.Instrument
	dirty      bool
	undo, redo []snapshot
	onChange   func()
}

func New(opts Options) *Session {
	return &Session{
		prog:       progression.New(progression.ClampBars(opts.Bars), opts.BeatsPerBar),
		bpm:        progression.ClampBPM(opts.BPM),
		key:        opts.Key,
		mode:       opts.Mode,
		instrument: opts.Instrument,
	}
}

// FromState builds a session from a saved document.
func FromState(st State) *Session {
	s := New(DefaultOptions())
	s.apply(st)
	return s
}

// OnChange registers a function called after every change.
func (s *Session) OnChange(f func()) {
	s.mu.Lock()
	s.onChange = f
	s.mu.Unlock()
}

func (s *Session) Len() int { return s.prog.Len() }

func (s *Session) Get(i int) (progression.Slot, error) { return s.prog.Get(i) }

func (s *Session) Snapshot() []progression.Slot { return s.prog.Snapshot() }

func (s *Session) Tempo() progression.Tempo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return progression.Tempo{BPM: s.bpm, BeatsPerBar: s.prog.BeatsPerBar()}
}

func (s *Session) Instrument() audio.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instrument
}

func (s *Session) Key() (theory.Note, theory.Mode) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.mode
}

func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Session) MarkClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// TakeDirtyState returns the document and marks the session clean in one
// step. ok is false if there were no unsaved changes.
func (s *Session) TakeDirtyState() (st State, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return State{}, false
	}
	s.dirty = false
	return s.state(), true
}

func (s *Session) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// State returns the document form of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state()
}

func (s *Session) state() State {
	slots := s.prog.Snapshot()
	return State{
		Version:     stateVersion,
		BPM:         s.bpm,
		Key:         s.key,
		Mode:        s.mode,
		Instrument:  s.instrument,
		Bars:        len(slots),
		BeatsPerBar: s.prog.BeatsPerBar(),
		Progression: slots,
	}
}

// apply loads st over the current state. Zero fields are left alone.
func (s *Session) apply(st State) {
	if st.BPM > 0 {
		s.bpm = progression.ClampBPM(st.BPM)
	}
	if st.Key.Valid() {
		s.key = st.Key
	}
	s.mode = st.Mode
	s.instrument = st.Instrument
	if st.BeatsPerBar > 0 {
		s.prog.SetBeatsPerBar(st.BeatsPerBar)
	}
	if st.Progression != nil {
		s.prog.Replace(st.Progression)
	}
	if st.Bars > 0 {
		s.prog.Resize(progression.ClampBars(st.Bars))
	}
}

// Load replaces the session with a saved document. It can be undone.
func (s *Session) Load(st State) {
	s.change("Load", func() error {
		s.apply(st)
		return nil
	})
	s.MarkClean()
}

// change records an undo point, applies f and marks the session dirty.
func (s *Session) change(action string, f func() error) error {
	s.mu.Lock()
	before := s.state()
	if err := f(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.undo = pushBounded(s.undo, snapshot{action, before})
	s.redo = nil
	s.dirty = true
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return nil
}

// set marks the session dirty without an undo point.
func (s *Session) set(f func()) {
	s.mu.Lock()
	f()
	s.dirty = true
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func pushBounded(stack []snapshot, snap snapshot) []snapshot {
	stack = append(stack, snap)
	if len(stack) > maxHistory {
		stack = append(stack[:0], stack[len(stack)-maxHistory:]...)
	}
	return stack
}

func (s *Session) Place(i int, c theory.Chord) error {
	return s.change("Place Chord", func() error { return s.prog.Place(i, c) })
}

func (s *Session) Clear(i int) error {
	return s.change("Clear Bar", func() error { return s.prog.Clear(i) })
}

func (s *Session) ClearAll() {
	s.change("Clear Progression", func() error {
		s.prog.ClearAll()
		return nil
	})
}

var ErrEmptyBar = errors.New("bar has no chord")

func (s *Session) SetType(i int, t theory.ChordType) error {
	return s.change("Change Chord Type", func() error {
		ok, err := s.prog.SetType(i, t)
		if err == nil && !ok {
			err = ErrEmptyBar
		}
		return err
	})
}

func (s *Session) SetInversion(i, inversion int) error {
	return s.change("Change Inversion", func() error {
		ok, err := s.prog.SetInversion(i, inversion)
		if err == nil && !ok {
			err = ErrEmptyBar
		}
		return err
	})
}

// SetBars resizes the progression, clamped to the supported range. It
// returns the new bar count.
func (s *Session) SetBars(bars int) int {
	bars = progression.ClampBars(bars)
	if bars == s.prog.Len() {
		return bars
	}
	s.change("Change Bar Count", func() error {
		s.prog.Resize(bars)
		return nil
	})
	return bars
}

func (s *Session) LoadPreset(id string) (progression.Preset, error) {
	p, ok := progression.FindPreset(id)
	if !ok {
		return progression.Preset{}, fmt.Errorf("preset not found: %s", id)
	}
	s.change("Load Preset", func() error {
		p.Apply(s.prog, s.key, s.mode)
		return nil
	})
	return p, nil
}

// SetBPM changes the tempo, clamped to the supported range. Playback picks
// it up on the next bar.
func (s *Session) SetBPM(bpm float64) float64 {
	bpm = progression.ClampBPM(bpm)
	s.set(func() { s.bpm = bpm })
	return bpm
}

func (s *Session) SetKey(key theory.Note) {
	s.set(func() { s.key = key })
}

func (s *Session) SetMode(mode theory.Mode) {
	s.set(func() { s.mode = mode })
}

func (s *Session) SetInstrument(inst audio.Instrument) {
	s.set(func() { s.instrument = inst })
}

// Undo restores the state before the last change and returns its name.
func (s *Session) Undo() (string, bool) {
	return s.step(&s.undo, &s.redo)
}

// Redo reapplies the last undone change.
func (s *Session) Redo() (string, bool) {
	return s.step(&s.redo, &s.undo)
}

func (s *Session) step(from, to *[]snapshot) (string, bool) {
	s.mu.Lock()
	if len(*from) == 0 {
		s.mu.Unlock()
		return "", false
	}
	last := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	*to = pushBounded(*to, snapshot{last.action, s.state()})
	s.apply(last.state)
	s.dirty = true
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return last.action, true
}

func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}
