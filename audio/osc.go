package audio

import (
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	}
	return fmt.Sprintf("Waveform(%d)", int(w))
}

// waveFunc maps a phase in [0, 2π) to a sample. All shapes start at zero
// crossing upwards, except square.
func waveFunc(w Waveform) func(float64) float64 {
	switch w {
	case Square:
		return func(phase float64) float64 {
			if phase < math.Pi {
				return 1.0
			}
			return -1.0
		}
	case Sawtooth:
		return func(phase float64) float64 {
			x := phase / twoPi
			if x < 0.5 {
				return 2 * x
			}
			return 2*x - 2
		}
	case Triangle:
		return func(phase float64) float64 {
			x := phase / twoPi
			switch {
			case x < 0.25:
				return 4 * x
			case x < 0.75:
				return 2 - 4*x
			default:
				return 4*x - 4
			}
		}
	default:
		return math.Sin
	}
}

// Oscillator is a periodic source. It is silent outside [start, stop).
type Oscillator struct {
	Frequency *Param

	fn         func(float64) float64
	phase      float64
	sampleRate float64
	start      int64
	stop       int64
	started    bool
	freq       []float32
	cache
}

func newOscillator(w Waveform, sampleRate float64) *Oscillator {
	return &Oscillator{
		Frequency:  newParam(440),
		fn:         waveFunc(w),
		sampleRate: sampleRate,
		stop:       -1,
		freq:       make([]float32, quantumSize),
	}
}

// Start schedules the oscillator to begin at time t in seconds.
func (o *Oscillator) Start(t float64) {
	o.start = o.toFrame(t)
	o.started = true
}

// Stop schedules the oscillator to end at time t in seconds.
func (o *Oscillator) Stop(t float64) {
	o.stop = o.toFrame(t)
}

func (o *Oscillator) toFrame(t float64) int64 {
	if t < 0 {
		t = 0
	}
	return int64(math.Round(t * o.sampleRate))
}

func (o *Oscillator) Connect(dst Node) { dst.addInput(o) }
func (o *Oscillator) addInput(Node)    {}

func (o *Oscillator) done(frame int64) bool {
	return o.stop >= 0 && frame >= o.stop
}

func (o *Oscillator) pull(frame int64) []float32 {
	out, ok := o.lookup(frame)
	if ok {
		return out
	}
	if !o.started {
		clear(out)
		return out
	}
	o.Frequency.fill(o.freq, frame, o.sampleRate)
	for n := range out {
		f := frame + int64(n)
		if f < o.start || (o.stop >= 0 && f >= o.stop) {
			out[n] = 0
			continue
		}
		out[n] = float32(o.fn(o.phase))
		o.phase += float64(o.freq[n]) * twoPi / o.sampleRate
		if o.phase >= twoPi {
			o.phase -= twoPi * math.Floor(o.phase/twoPi)
		}
	}
	return out
}
