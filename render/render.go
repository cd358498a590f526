// Package render renders a progression offline and encodes the result.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/progression"
	"github.com/viterin/vek/vek32"
)

// chordLength is the fraction of a bar a chord sounds for in a render.
const chordLength = 0.95

const (
	MaxLoops    = 64
	MaxDuration = 60 * 60 // seconds
)

var (
	ErrEmptyRender = errors.New("nothing to render")
	ErrTooLong     = fmt.Errorf("render longer than %d loops or %d minutes", MaxLoops, MaxDuration/60)
)

// Job fully determines the output of a render.
type Job struct {
	Slots      []progression.Slot
	Tempo      progression.Tempo
	Loops      int
	Instrument audio.Instrument
	SampleRate float64
}

func (j Job) sampleRate() float64 {
	if j.SampleRate <= 0 {
		return audio.SampleRate
	}
	return j.SampleRate
}

func (j Job) loops() int { return max(j.Loops, 1) }

// Duration is the length of the render in seconds.
func (j Job) Duration() float64 {
	return j.Tempo.Duration(len(j.Slots), j.loops())
}

// Frames is the number of frames per channel the render produces.
func (j Job) Frames() int {
	return int(math.Round(j.sampleRate() * j.Duration()))
}

// Validate reports ErrTooLong for jobs beyond MaxLoops or MaxDuration.
func (j Job) Validate() error {
	if j.Loops > MaxLoops || !(j.Duration() <= MaxDuration) {
		return ErrTooLong
	}
	return nil
}

// Render plays every bar of the job, loops times, into a stereo buffer.
func Render(ctx context.Context, job Job) (*audio.Buffer, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	frames := job.Frames()
	if frames <= 0 {
		return nil, ErrEmptyRender
	}
	offline := audio.NewOfflineContext(2, frames, job.sampleRate())
	bar := job.Tempo.BarDuration()
	var t float64
	for loop := 0; loop < job.loops(); loop++ {
		for _, slot := range job.Slots {
			if !slot.Empty() {
				audio.PlayChord(offline, *slot.Chord, bar*chordLength, t, job.Instrument, audio.ExportLevel)
			}
			t += bar
		}
	}
	return offline.StartRendering(ctx)
}

// Peak returns the largest absolute sample value in buf.
func Peak(buf *audio.Buffer) float32 {
	var peak float32
	for _, ch := range buf.Channels {
		if len(ch) == 0 {
			continue
		}
		peak = max(peak, vek32.Max(ch), -vek32.Min(ch))
	}
	return peak
}
