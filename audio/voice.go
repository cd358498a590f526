package audio

type note struct {
	freq     float64
	duration float64
	start    float64
	volume   float64
}

var (
	pianoEnv          = envelope{attack: 0.01, peak: 1, decay: 0.1, sustain: 0.6}
	pianoHarmonicEnv  = envelope{attack: 0.01, peak: 0.3, tail: 0.8}
	guitarEnv         = envelope{attack: 0.005, peak: 1, decay: 0.1, sustain: 0.4}
	padEnv            = envelope{attack: 0.2, peak: 0.5, release: 0.3}
	organEnv          = envelope{attack: 0.05, peak: 0.3, release: 0.1}
	stringsEnv        = envelope{attack: 0.4, peak: 0.4, release: 0.4}
	organHarmonics    = [...]float64{1, 0.5, 0.25, 0.125}
	stringsDetune     = [...]float64{1, 1.002, 0.998}
	padDetune         = [...]float64{1, 1.005}
	padMix            = 0.5
	stringsMix        = 0.33
	guitarCutoffStart = 2000.0
	guitarCutoffEnd   = 500.0
)

// PlayNote builds the voice for one note of the given instrument. start and
// duration are in seconds on the context's timeline; volume scales every
// envelope peak.
func PlayNote(ctx Context, inst Instrument, freq, duration, start, volume float64) {
	n := note{freq: freq, duration: duration, start: start, volume: volume}
	switch inst {
	case Guitar:
		guitar(ctx, n)
	case Synth:
		synthPad(ctx, n)
	case Organ:
		organ(ctx, n)
	case Strings:
		stringEnsemble(ctx, n)
	default:
		piano(ctx, n)
	}
}

// piano: a triangle fundamental with a quieter sine an octave above that dies
// away before the note ends.
func piano(ctx Context, n note) {
	out := ctx.Destination()
	tone(ctx, Triangle, n.freq, n, pianoEnv).Connect(out)
	tone(ctx, Sine, n.freq*2, n, pianoHarmonicEnv).Connect(out)
}

// guitar: a plucked sawtooth whose lowpass closes over the first 30% of the
// note.
func guitar(ctx Context, n note) {
	osc := oscillator(ctx, Sawtooth, n.freq, n)

	filter := ctx.NewBiquadFilter()
	filter.Frequency.SetValueAtTime(guitarCutoffStart, n.start)
	filter.Frequency.ExponentialRampToValueAtTime(guitarCutoffEnd, n.start+n.duration*0.3)

	gain := ctx.NewGain()
	guitarEnv.apply(gain.Gain, n)

	osc.Connect(filter)
	filter.Connect(gain)
	gain.Connect(ctx.Destination())
}

func synthPad(ctx Context, n note) {
	detuned(ctx, n, padDetune[:], padMix, 1500, 2, padEnv)
}

func stringEnsemble(ctx Context, n note) {
	detuned(ctx, n, stringsDetune[:], stringsMix, 2500, 1, stringsEnv)
}

// detuned sums sawtooths at the given frequency ratios through a mixer,
// a resonant lowpass and the envelope.
func detuned(ctx Context, n note, ratios []float64, mix, cutoff, q float64, env envelope) {
	mixer := ctx.NewGain()
	mixer.Gain.SetValueAtTime(mix, n.start)
	for _, r := range ratios {
		oscillator(ctx, Sawtooth, n.freq*r, n).Connect(mixer)
	}

	filter := ctx.NewBiquadFilter()
	filter.Frequency.SetValueAtTime(cutoff, n.start)
	filter.Q.SetValueAtTime(q, n.start)

	gain := ctx.NewGain()
	env.apply(gain.Gain, n)

	mixer.Connect(filter)
	filter.Connect(gain)
	gain.Connect(ctx.Destination())
}

// organ: four sine partials, each with its own sustained envelope.
func organ(ctx Context, n note) {
	for i, amp := range organHarmonics {
		env := organEnv
		env.peak *= amp
		tone(ctx, Sine, n.freq*float64(i+1), n, env).Connect(ctx.Destination())
	}
}

// tone is an oscillator shaped by its own envelope.
func tone(ctx Context, w Waveform, freq float64, n note, env envelope) *Gain {
	gain := ctx.NewGain()
	env.apply(gain.Gain, n)
	oscillator(ctx, w, freq, n).Connect(gain)
	return gain
}

func oscillator(ctx Context, w Waveform, freq float64, n note) *Oscillator {
	osc := ctx.NewOscillator(w)
	osc.Frequency.SetValueAtTime(freq, n.start)
	osc.Start(n.start)
	osc.Stop(n.start + n.duration)
	return osc
}
