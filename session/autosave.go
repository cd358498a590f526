package session

import (
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
)

// Autosave writes the session to a file shortly after it stops changing.
type Autosave struct {
	path     string
	sess     *Session
	debounce func(func())
	logger   *log.Logger
	saved    chan struct{}

	mu sync.Mutex // serializes writes to path
}

func NewAutosave(sess *Session, path string, interval time.Duration, logger *log.Logger) *Autosave {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &Autosave{
		path:     path,
		sess:     sess,
		debounce: debounce.New(interval),
		logger:   logger,
		saved:    make(chan struct{}, 1),
	}
	sess.OnChange(a.trigger)
	return a
}

func (a *Autosave) trigger() {
	a.debounce(a.save)
}

func (a *Autosave) save() {
	if err := a.Flush(); err != nil {
		a.logger.Error("autosave failed", "path", a.path, "err", err)
		return
	}
	select {
	case a.saved <- struct{}{}:
	default:
	}
}

// Flush writes the session now if it has unsaved changes.
func (a *Autosave) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.sess.TakeDirtyState()
	if !ok {
		return nil
	}
	if err := SaveFile(a.path, st); err != nil {
		a.sess.markDirty()
		return err
	}
	a.logger.Debug("session saved", "path", a.path)
	return nil
}

// Saved receives a value after each debounced save.
func (a *Autosave) Saved() <-chan struct{} { return a.saved }
