package audio

import (
	"github.com/mrdg/chordmaker/theory"
)

const (
	// BaseOctave is the octave chord roots are voiced from.
	BaseOctave = 3

	// PreviewLevel and ExportLevel are the total chord volumes for live
	// playback and rendered files. Each note gets level / number of notes.
	PreviewLevel = 0.25
	ExportLevel  = 0.2

	// PreviewDuration is how long a single chord preview sounds, in seconds.
	PreviewDuration = 0.5
)

// PlayChord schedules every note of c on t. A start of zero or less means
// now. It returns the number of notes scheduled.
func PlayChord(t Target, c theory.Chord, duration, start float64, inst Instrument, level float64) int {
	freqs := c.Frequencies(BaseOctave)
	if len(freqs) == 0 || duration <= 0 {
		return 0
	}
	volume := level / float64(len(freqs))
	t.Schedule(func(ctx Context) {
		at := start
		if at <= 0 {
			at = ctx.CurrentTime()
		}
		for _, f := range freqs {
			PlayNote(ctx, inst, f, duration, at, volume)
		}
	})
	return len(freqs)
}

// PreviewChord plays c once at preview volume, in root position.
func PreviewChord(t Target, c theory.Chord, inst Instrument) int {
	c.Inversion = 0
	return PlayChord(t, c, PreviewDuration, 0, inst, PreviewLevel)
}
