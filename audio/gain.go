package audio

import (
	"github.com/viterin/vek/vek32"
)

// Gain scales the sum of its inputs by an automated gain.
type Gain struct {
	Gain *Param

	sampleRate float64
	gain       []float32
	inputs
	cache
}

func newGain(sampleRate float64) *Gain {
	return &Gain{
		Gain:       newParam(1),
		sampleRate: sampleRate,
		gain:       make([]float32, quantumSize),
	}
}

func (g *Gain) Connect(dst Node) { dst.addInput(g) }

func (g *Gain) pull(frame int64) []float32 {
	out, ok := g.lookup(frame)
	if ok {
		return out
	}
	in := g.mix(frame)
	g.Gain.fill(g.gain, frame, g.sampleRate)
	vek32.Mul_Into(out, in, g.gain)
	return out
}
