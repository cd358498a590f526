// Package playback plays a progression bar by bar in real time.
package playback

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/progression"
)

// Inactive is the bar index reported while stopped.
const Inactive = -1

// chordLength is the fraction of a bar a chord sounds for during playback.
const chordLength = 0.9

// Source is what the scheduler reads on every bar.
type Source interface {
	Len() int
	Get(i int) (progression.Slot, error)
	Tempo() progression.Tempo
	Instrument() audio.Instrument
}

type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

type Scheduler struct {
	src    Source
	target audio.Target
	task   Repeater
	logger *log.Logger

	// ctl serializes Play and Stop. mu guards the playback state and is the
	// only lock taken by the tick goroutine.
	ctl      sync.Mutex
	mu       sync.Mutex
	state    State
	bar      int
	interval time.Duration
	onBar    func(bar int)
}

func NewScheduler(src Source, target audio.Target, task Repeater, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{
		src:    src,
		target: target,
		task:   task,
		logger: logger,
		bar:    Inactive,
	}
}

// OnBar registers a function called with the index of every bar as it
// starts, and with Inactive when playback stops. It runs on the scheduler's
// goroutine and must not call Play or Stop.
func (s *Scheduler) OnBar(f func(bar int)) {
	s.mu.Lock()
	s.onBar = f
	s.mu.Unlock()
}

// Play starts playback from the first bar. It returns false if playback was
// already running.
func (s *Scheduler) Play() bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.mu.Lock()
	tempo := s.src.Tempo()
	if s.state == Playing || tempo.BarInterval() <= 0 {
		s.mu.Unlock()
		return false
	}
	s.state = Playing
	s.bar = 0
	s.interval = tempo.BarInterval()
	s.playBar(0, tempo)
	onBar := s.onBar
	s.mu.Unlock()

	s.logger.Info("play", "bpm", tempo.BPM, "bars", s.src.Len())
	if onBar != nil {
		onBar(0)
	}
	s.task.Start(tempo.BarInterval(), s.tick)
	return true
}

// Stop ends playback. Notes already sounding ring out.
func (s *Scheduler) Stop() {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	s.state = Stopped
	s.bar = Inactive
	onBar := s.onBar
	s.mu.Unlock()

	// The tick goroutine takes s.mu, so it must not be held here.
	s.task.Stop()
	s.logger.Info("stop")
	if onBar != nil {
		onBar(Inactive)
	}
}

// Toggle plays when stopped and stops when playing.
func (s *Scheduler) Toggle() State {
	if !s.Play() {
		s.Stop()
		return Stopped
	}
	return Playing
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bar returns the bar being played, or Inactive.
func (s *Scheduler) Bar() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.state != Playing {
		s.mu.Unlock()
		return
	}
	s.bar++
	if s.bar >= s.src.Len() {
		s.bar = 0
	}
	bar := s.bar
	tempo := s.src.Tempo()
	s.playBar(bar, tempo)
	if interval := tempo.BarInterval(); interval != s.interval && interval > 0 {
		s.interval = interval
		s.task.Reset(interval)
		s.logger.Debug("tempo change", "bpm", tempo.BPM)
	}
	onBar := s.onBar
	s.mu.Unlock()

	if onBar != nil {
		onBar(bar)
	}
}

func (s *Scheduler) playBar(bar int, tempo progression.Tempo) {
	slot, err := s.src.Get(bar)
	if err != nil {
		s.logger.Warn("bar", "index", bar, "err", err)
		return
	}
	if slot.Empty() {
		return
	}
	audio.PlayChord(s.target, *slot.Chord, tempo.BarDuration()*chordLength, 0, s.src.Instrument(), audio.PreviewLevel)
}
