// Package progression holds the bar grid of chords and the tempo it is
// played at.
package progression

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mrdg/chordmaker/theory"
)

const (
	DefaultBars        = 8
	DefaultBeatsPerBar = 4
	MinBars            = 4
	MaxBars            = 32
)

var ErrOutOfRange = errors.New("bar out of range")

// Progression is a fixed number of bars, each holding an optional chord. It
// is safe for concurrent use.
type Progression struct {
	mu          sync.RWMutex
	slots       []Slot
	beatsPerBar int
}

func New(bars, beatsPerBar int) *Progression {
	p := &Progression{beatsPerBar: beatsPerBar}
	p.slots = p.empty(bars)
	return p
}

func (p *Progression) empty(bars int) []Slot {
	slots := make([]Slot, bars)
	for i := range slots {
		slots[i] = EmptySlot(p.beatsPerBar)
	}
	return slots
}

func (p *Progression) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}

func (p *Progression) Get(i int) (Slot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.check(i); err != nil {
		return Slot{}, err
	}
	return p.slots[i].clone(), nil
}

func (p *Progression) check(i int) error {
	if i < 0 || i >= len(p.slots) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(p.slots))
	}
	return nil
}

// Place puts a chord in bar i.
func (p *Progression) Place(i int, c theory.Chord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(i); err != nil {
		return err
	}
	p.slots[i] = Slot{Chord: &c, Beats: p.beatsPerBar}
	return nil
}

// Clear empties bar i.
func (p *Progression) Clear(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(i); err != nil {
		return err
	}
	p.slots[i] = EmptySlot(p.beatsPerBar)
	return nil
}

func (p *Progression) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = p.empty(len(p.slots))
}

// SetType changes the chord type in bar i. It reports whether the bar held a
// chord.
func (p *Progression) SetType(i int, t theory.ChordType) (bool, error) {
	return p.update(i, func(c *theory.Chord) { c.Type = t })
}

// SetInversion changes the inversion in bar i. It reports whether the bar
// held a chord.
func (p *Progression) SetInversion(i, inversion int) (bool, error) {
	return p.update(i, func(c *theory.Chord) { c.Inversion = max(inversion, 0) })
}

func (p *Progression) update(i int, f func(*theory.Chord)) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(i); err != nil {
		return false, err
	}
	s := p.slots[i].clone()
	if s.Empty() {
		return false, nil
	}
	f(s.Chord)
	p.slots[i] = s
	return true, nil
}

// Resize grows the progression with empty bars or truncates it.
func (p *Progression) Resize(bars int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bars < 0 {
		bars = 0
	}
	if bars <= len(p.slots) {
		clear(p.slots[bars:])
		p.slots = p.slots[:bars]
		return
	}
	p.slots = append(p.slots, p.empty(bars-len(p.slots))...)
}

func (p *Progression) BeatsPerBar() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.beatsPerBar
}

// SetBeatsPerBar changes the length of every bar.
func (p *Progression) SetBeatsPerBar(beats int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.beatsPerBar = beats
	for i := range p.slots {
		p.slots[i].Beats = beats
	}
}

// Snapshot returns a copy of every slot. Later changes to the progression do
// not affect it.
func (p *Progression) Snapshot() []Slot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneSlots(p.slots)
}

// Replace swaps in a new set of slots, e.g. after loading a document.
func (p *Progression) Replace(slots []Slot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots = cloneSlots(slots)
}

func cloneSlots(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	for i, s := range slots {
		out[i] = s.clone()
	}
	return out
}

// ClampBars limits a bar count to the supported range.
func ClampBars(bars int) int {
	return min(max(bars, MinBars), MaxBars)
}
