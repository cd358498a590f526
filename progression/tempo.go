package progression

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultBPM = 100
	MinBPM     = 40
	MaxBPM     = 200
)

// Tempo is read at the moment a bar is scheduled or a render starts.
type Tempo struct {
	BPM         float64 `yaml:"bpm" json:"bpm"`
	BeatsPerBar int     `yaml:"beatsPerBar" json:"beatsPerBar"`
}

func DefaultTempo() Tempo {
	return Tempo{BPM: DefaultBPM, BeatsPerBar: DefaultBeatsPerBar}
}

// BarDuration is the length of one bar in seconds.
func (t Tempo) BarDuration() float64 {
	if t.BPM <= 0 {
		return 0
	}
	return 60 / t.BPM * float64(t.BeatsPerBar)
}

func (t Tempo) BarInterval() time.Duration {
	return time.Duration(t.BarDuration() * float64(time.Second))
}

// Duration is the length in seconds of bars played loops times.
func (t Tempo) Duration(bars, loops int) float64 {
	return t.BarDuration() * float64(bars) * float64(loops)
}

// ClampBPM limits a tempo to the supported range.
func ClampBPM(bpm float64) float64 {
	return math.Min(math.Max(bpm, MinBPM), MaxBPM)
}

// FormatDuration renders whole seconds as "19s" or "1m 4s".
func FormatDuration(seconds float64) string {
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
