package audio

import (
	"sync"
	"sync/atomic"
)

const jobQueueSize = 1024

// RealtimeContext renders the graph on demand for an audio device. Graph
// building work submitted through Schedule runs on the audio thread before
// the next quantum, so nodes are only ever touched by one goroutine.
type RealtimeContext struct {
	*graph
	jobs   *eventBuffer[func(Context)]
	pushMu sync.Mutex // jobs has a single writer
	played atomic.Int64 // frames written to the device

	block []float32
	pos   int
}

func NewRealtimeContext(sampleRate float64) *RealtimeContext {
	return &RealtimeContext{
		graph: newGraph(sampleRate),
		jobs:  newEventBuffer[func(Context)](jobQueueSize),
		pos:   quantumSize,
	}
}

// CurrentTime is the playback position in seconds. It is safe to call from
// any goroutine.
func (c *RealtimeContext) CurrentTime() float64 {
	return float64(c.played.Load()) / c.sampleRate
}

// Schedule queues fn to run on the audio thread. It is safe to call from
// any goroutine.
func (c *RealtimeContext) Schedule(fn func(Context)) {
	c.pushMu.Lock()
	c.jobs.push(fn)
	c.pushMu.Unlock()
}

// Process adds the graph output to every channel of out.
func (c *RealtimeContext) Process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	frames := len(out[0])
	for written := 0; written < frames; {
		if c.pos == quantumSize {
			c.jobs.drain(func(fn func(Context)) { fn(c) })
			c.block = c.renderQuantum()
			c.pos = 0
		}
		n := min(quantumSize-c.pos, frames-written)
		for _, ch := range out {
			dst := ch[written : written+n]
			for i, s := range c.block[c.pos : c.pos+n] {
				dst[i] += s
			}
		}
		c.pos += n
		written += n
		c.played.Add(int64(n))
	}
}

// Voices returns the number of sounding voice chains. Only call it from the
// audio thread or after the device has stopped.
func (c *RealtimeContext) Voices() int { return c.voices() }
