package audio

// silence is the level envelopes fall to at the end of a note. Exponential
// ramps cannot reach zero.
const silence = 0.001

// envelope describes a gain curve relative to the start of a note. Every
// curve rises linearly from zero to peak, then takes one of two shapes:
//
//   - percussive (release == 0): an optional exponential fall to sustain at
//     decay seconds, then an exponential fall to silence at tail × duration.
//   - sustained (release > 0): peak is held until release seconds before the
//     end of the note, then falls linearly to silence.
type envelope struct {
	attack  float64 // seconds
	peak    float64 // relative to note volume
	decay   float64 // seconds after start, zero for none
	sustain float64 // relative to note volume
	tail    float64 // fraction of the duration, zero means 1
	release float64 // seconds
}

func (e envelope) apply(p *Param, n note) {
	start, v := n.start, n.volume
	end := start + n.duration

	p.SetValueAtTime(0, start)
	p.LinearRampToValueAtTime(v*e.peak, start+e.attack)

	if e.release > 0 {
		hold := max(start+e.attack, end-e.release)
		p.SetValueAtTime(v*e.peak, hold)
		p.LinearRampToValueAtTime(silence, end)
		return
	}

	if e.decay > 0 {
		p.ExponentialRampToValueAtTime(v*e.sustain, start+e.decay)
	}
	tail := e.tail
	if tail == 0 {
		tail = 1
	}
	p.ExponentialRampToValueAtTime(silence, start+n.duration*tail)
}
