package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Source produces audio on request from a sink. Process adds to out.
type Source interface {
	Process(out [][]float32)
}

// Sink drives a Source from an audio device or clock.
type Sink interface {
	Start() error
	Stop() error
}

const channels = 2

// NewSink opens the named backend: "portaudio", "oto" or "null".
func NewSink(backend string, src Source, sampleRate float64, bufferSize int) (Sink, error) {
	switch backend {
	case "", "portaudio":
		return NewPortAudioSink(src, sampleRate, bufferSize)
	case "oto":
		return NewOtoSink(src, sampleRate, bufferSize)
	case "null":
		return NewNullSink(src, sampleRate, bufferSize), nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}

// render clears out and lets src fill it.
func render(src Source, out [][]float32) {
	for i := range out {
		clear(out[i])
	}
	src.Process(out)
}

type PortAudioSink struct {
	src    Source
	stream *portaudio.Stream
}

func NewPortAudioSink(src Source, sampleRate float64, bufferSize int) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &PortAudioSink{src: src}
	stream, err := portaudio.OpenDefaultStream(0, channels, sampleRate, bufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *PortAudioSink) process(out [][]float32) { render(s.src, out) }

func (s *PortAudioSink) Start() error {
	return s.stream.Start()
}

func (s *PortAudioSink) Stop() error {
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

// NullSink pulls audio at the device rate and discards it. It keeps the
// playback clock running on machines without audio output.
type NullSink struct {
	src      Source
	interval time.Duration
	buf      [][]float32

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

func NewNullSink(src Source, sampleRate float64, bufferSize int) *NullSink {
	if bufferSize <= 0 {
		bufferSize = 512
	}
	buf := make([][]float32, channels)
	for i := range buf {
		buf[i] = make([]float32, bufferSize)
	}
	return &NullSink{
		src:      src,
		interval: time.Duration(float64(bufferSize) / sampleRate * float64(time.Second)),
		buf:      buf,
	}
}

func (s *NullSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit != nil {
		return nil
	}
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.quit, s.done)
	return nil
}

func (s *NullSink) loop(quit, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			render(s.src, s.buf)
		case <-quit:
			return
		}
	}
}

func (s *NullSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit == nil {
		return nil
	}
	close(s.quit)
	<-s.done
	s.quit, s.done = nil, nil
	return nil
}
