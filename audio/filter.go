package audio

import (
	"math"
)

// Biquad is a lowpass filter. Frequency and Q are sampled once per quantum.
// Q is a resonance in dB, the way browser audio graphs interpret it for
// lowpass filters.
type Biquad struct {
	Frequency *Param
	Q         *Param

	sampleRate float64
	c0, c1, c2 float64 // b0/a0 b1/a0 b2/a0
	c3, c4     float64 // a1/a0 a2/a0
	y1, y2     float64 // filter state

	inputs
	cache
}

func newBiquad(sampleRate float64) *Biquad {
	return &Biquad{
		Frequency:  newParam(350),
		Q:          newParam(1),
		sampleRate: sampleRate,
	}
}

func (f *Biquad) Connect(dst Node) { dst.addInput(f) }

func (f *Biquad) pull(frame int64) []float32 {
	out, ok := f.lookup(frame)
	if ok {
		return out
	}
	copy(out, f.mix(frame))
	t := float64(frame) / f.sampleRate
	f.calculateCoefficients(f.Frequency.valueAt(t), f.Q.valueAt(t))
	f.process(out)
	return out
}

// Transposed direct form II, coefficients based on
// https://www.w3.org/2011/audio/audio-eq-cookbook.html
func (f *Biquad) process(buf []float32) {
	for n := range buf {
		in := float64(buf[n])
		out := f.c0*in + f.y1
		buf[n] = float32(out)
		f.y1 = f.c1*in - f.c3*out + f.y2
		f.y2 = f.c2*in - f.c4*out
	}
}

func (f *Biquad) calculateCoefficients(freq, q float64) {
	nyquist := f.sampleRate / 2
	freq = clamp(freq, 1, nyquist-1)
	omega := 2 * math.Pi * freq / f.sampleRate
	cos := math.Cos(omega)
	sin := math.Sin(omega)
	alpha := sin / (2 * math.Pow(10, q/20))

	b0 := (1 - cos) / 2
	b1 := 1 - cos
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cos
	a2 := 1 - alpha

	f.c0 = b0 / a0
	f.c1 = b1 / a0
	f.c2 = b2 / a0
	f.c3 = a1 / a0
	f.c4 = a2 / a0
}
