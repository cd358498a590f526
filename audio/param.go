package audio

import (
	"math"
	"sort"
)

type automationKind int

const (
	setValue automationKind = iota
	linearRamp
	exponentialRamp
)

type automationEvent struct {
	kind  automationKind
	time  float64 // seconds
	value float64
}

// Param is a value that can be automated over time. Events are kept sorted
// by time; events with equal times keep their insertion order. A ramp
// interpolates from the previous event to its own time and value.
type Param struct {
	defaultValue float64
	events       []automationEvent
}

func newParam(v float64) *Param {
	return &Param{defaultValue: v}
}

// SetValueAtTime jumps to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(automationEvent{kind: setValue, time: t, value: v})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v at t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.insert(automationEvent{kind: linearRamp, time: t, value: v})
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event
// to v at t. If the previous value is zero or has the opposite sign of v, the
// previous value is held until t.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.insert(automationEvent{kind: exponentialRamp, time: t, value: v})
}

func (p *Param) insert(ev automationEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > ev.time })
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// valueAt returns the automated value at time t.
func (p *Param) valueAt(t float64) float64 {
	if len(p.events) == 0 {
		return p.defaultValue
	}
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > t })
	if i == len(p.events) {
		return p.events[i-1].value
	}
	t0, v0 := 0.0, p.defaultValue
	if i > 0 {
		t0, v0 = p.events[i-1].time, p.events[i-1].value
	}
	next := p.events[i]
	if next.time <= t0 {
		return v0
	}
	pos := (t - t0) / (next.time - t0)
	switch next.kind {
	case linearRamp:
		return v0 + (next.value-v0)*pos
	case exponentialRamp:
		if v0 == 0 || v0*next.value < 0 {
			return v0
		}
		return v0 * math.Pow(next.value/v0, pos)
	}
	return v0
}

// fill writes one value per frame, starting at frame start.
func (p *Param) fill(dst []float32, start int64, sampleRate float64) {
	if len(p.events) == 0 {
		for n := range dst {
			dst[n] = float32(p.defaultValue)
		}
		return
	}
	for n := range dst {
		dst[n] = float32(p.valueAt(float64(start+int64(n)) / sampleRate))
	}
}
