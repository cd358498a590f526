package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays through oto. Oto pulls interleaved float32 samples from the
// sink's Read method.
type OtoSink struct {
	ctx    *oto.Context
	player *oto.Player
	src    Source
	buf    [][]float32
}

func NewOtoSink(src Source, sampleRate float64, bufferSize int) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(float64(bufferSize) / sampleRate * float64(time.Second)),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	s := &OtoSink{ctx: ctx, src: src}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// Read fills p with whole interleaved frames.
func (s *OtoSink) Read(p []byte) (int, error) {
	const frameSize = channels * 4
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	if len(s.buf) == 0 || len(s.buf[0]) < frames {
		s.buf = make([][]float32, channels)
		for i := range s.buf {
			s.buf[i] = make([]float32, frames)
		}
	}
	out := make([][]float32, channels)
	for i := range out {
		out[i] = s.buf[i][:frames]
	}
	render(s.src, out)
	interleave(p, out)
	return frames * frameSize, nil
}

func interleave(p []byte, out [][]float32) {
	i := 0
	for n := range out[0] {
		for ch := range out {
			binary.LittleEndian.PutUint32(p[i:], math.Float32bits(out[ch][n]))
			i += 4
		}
	}
}

func (s *OtoSink) Start() error {
	s.player.Play()
	return nil
}

func (s *OtoSink) Stop() error {
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("error closing player: %w", err)
	}
	return nil
}
