package audio

import (
	"strings"
)

// Instrument selects one of the fixed synthesis recipes.
type Instrument int

const (
	Piano Instrument = iota
	Guitar
	Synth
	Organ
	Strings
)

var instrumentNames = [...]string{"Piano", "Guitar", "Synth", "Organ", "Strings"}

// Instruments lists the available instruments.
func Instruments() []Instrument {
	return []Instrument{Piano, Guitar, Synth, Organ, Strings}
}

// ParseInstrument resolves an instrument name. Unknown names resolve to
// Piano; the second result reports whether the name was recognized.
func ParseInstrument(s string) (Instrument, bool) {
	s = strings.TrimSpace(s)
	for i, name := range instrumentNames {
		if strings.EqualFold(name, s) {
			return Instrument(i), true
		}
	}
	return Piano, false
}

func (i Instrument) valid() bool { return i >= 0 && int(i) < len(instrumentNames) }

func (i Instrument) String() string {
	if !i.valid() {
		return instrumentNames[Piano]
	}
	return instrumentNames[i]
}

func (i Instrument) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Instrument) UnmarshalText(text []byte) error {
	*i, _ = ParseInstrument(string(text))
	return nil
}
