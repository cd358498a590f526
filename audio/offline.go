package audio

import (
	"context"
	"errors"
)

// Buffer is rendered audio, one slice of samples per channel.
type Buffer struct {
	SampleRate float64
	Channels   [][]float32
}

func NewBuffer(channels, frames int, sampleRate float64) *Buffer {
	b := &Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for i := range b.Channels {
		b.Channels[i] = make([]float32, frames)
	}
	return b
}

// Len returns the number of frames.
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Duration returns the length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Len()) / b.SampleRate
}

var errRendered = errors.New("offline context already rendered")

// OfflineContext builds a graph up front and renders it as fast as possible
// into a buffer of fixed length.
type OfflineContext struct {
	*graph
	buf      *Buffer
	rendered bool
}

func NewOfflineContext(channels, frames int, sampleRate float64) *OfflineContext {
	return &OfflineContext{
		graph: newGraph(sampleRate),
		buf:   NewBuffer(channels, frames, sampleRate),
	}
}

// CurrentTime is the render position in seconds; zero until rendering starts.
func (c *OfflineContext) CurrentTime() float64 {
	return float64(c.frame) / c.sampleRate
}

// Schedule runs fn immediately.
func (c *OfflineContext) Schedule(fn func(Context)) { fn(c) }

// Length returns the number of frames that will be rendered.
func (c *OfflineContext) Length() int { return c.buf.Len() }

// StartRendering renders the whole graph. It can only be called once.
func (c *OfflineContext) StartRendering(ctx context.Context) (*Buffer, error) {
	if c.rendered {
		return nil, errRendered
	}
	c.rendered = true
	frames := c.buf.Len()
	for pos := 0; pos < frames; pos += quantumSize {
		if pos%(quantumSize*1024) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		block := c.renderQuantum()
		n := min(quantumSize, frames-pos)
		for _, ch := range c.buf.Channels {
			copy(ch[pos:pos+n], block[:n])
		}
	}
	return c.buf, nil
}
