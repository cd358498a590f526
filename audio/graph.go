package audio

import (
	"github.com/viterin/vek/vek32"
)

const (
	// SampleRate is the default rate for both realtime and offline rendering.
	SampleRate = 44100

	// quantumSize is the number of frames rendered per graph pass. Params
	// that are sampled once per pass (filter coefficients) change at this
	// granularity.
	quantumSize = 128
)

// Context creates signal graph nodes. Voices are built against a Context so
// the same code drives both live playback and offline rendering.
type Context interface {
	SampleRate() float64
	CurrentTime() float64
	NewOscillator(w Waveform) *Oscillator
	NewGain() *Gain
	NewBiquadFilter() *Biquad
	Destination() Node
}

// Target accepts graph building work. An offline context runs it right away,
// a realtime context hands it to the audio thread.
type Target interface {
	CurrentTime() float64
	Schedule(func(Context))
}

// Node is a unit in the signal graph.
type Node interface {
	// Connect routes the output of this node into dst.
	Connect(dst Node)

	// pull returns the node's output for the quantum that starts at frame.
	pull(frame int64) []float32
	addInput(n Node)
	done(frame int64) bool
}

// inputs sums the nodes connected to a processing node.
type inputs struct {
	nodes []Node
	sum   []float32
}

func (in *inputs) addInput(n Node) { in.nodes = append(in.nodes, n) }

func (in *inputs) mix(frame int64) []float32 {
	if in.sum == nil {
		in.sum = make([]float32, quantumSize)
	}
	vek32.Zeros_Into(in.sum, quantumSize)
	for _, n := range in.nodes {
		vek32.Add_Inplace(in.sum, n.pull(frame))
	}
	return in.sum
}

// done reports whether every input has finished. A node without inputs has
// nothing left to produce.
func (in *inputs) done(frame int64) bool {
	for _, n := range in.nodes {
		if !n.done(frame) {
			return false
		}
	}
	return true
}

// cache remembers the last rendered quantum so a node feeding several others
// is only processed once per pass.
type cache struct {
	out   []float32
	frame int64
	valid bool
}

func (c *cache) lookup(frame int64) ([]float32, bool) {
	if c.valid && c.frame == frame {
		return c.out, true
	}
	if c.out == nil {
		c.out = make([]float32, quantumSize)
	}
	c.frame = frame
	c.valid = true
	return c.out, false
}

// destination is the final mixing point. Finished chains are dropped after
// each pass.
type destination struct {
	inputs
}

func (d *destination) Connect(Node)               {}
func (d *destination) pull(frame int64) []float32 { return d.mix(frame) }
func (d *destination) done(int64) bool            { return false }

func (d *destination) prune(frame int64) {
	live := d.nodes[:0]
	for _, n := range d.nodes {
		if !n.done(frame) {
			live = append(live, n)
		}
	}
	for i := len(live); i < len(d.nodes); i++ {
		d.nodes[i] = nil
	}
	d.nodes = live
}

// graph holds the state shared by the offline and realtime contexts. It
// renders a mono signal; destinations copy it to every output channel.
type graph struct {
	sampleRate float64
	dest       *destination
	frame      int64 // start of the next quantum
}

func newGraph(sampleRate float64) *graph {
	return &graph{sampleRate: sampleRate, dest: &destination{}}
}

func (g *graph) SampleRate() float64 { return g.sampleRate }
func (g *graph) Destination() Node    { return g.dest }

func (g *graph) NewOscillator(w Waveform) *Oscillator {
	return newOscillator(w, g.sampleRate)
}

func (g *graph) NewGain() *Gain {
	return newGain(g.sampleRate)
}

func (g *graph) NewBiquadFilter() *Biquad {
	return newBiquad(g.sampleRate)
}

// renderQuantum renders the next quantumSize frames.
func (g *graph) renderQuantum() []float32 {
	out := g.dest.pull(g.frame)
	g.frame += quantumSize
	g.dest.prune(g.frame)
	return out
}

// voices returns the number of chains still connected to the destination.
func (g *graph) voices() int { return len(g.dest.nodes) }
