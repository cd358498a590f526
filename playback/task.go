package playback

import (
	"sync"
	"time"
)

// Repeater calls a function at a fixed interval until stopped.
type Repeater interface {
	// Start arms the repeater. It is a no-op if it is already active.
	Start(interval time.Duration, f func())
	// Reset changes the interval from the next call onwards.
	Reset(interval time.Duration)
	// Stop disarms the repeater and waits for a running call to return.
	// Stopping an inactive repeater is a no-op.
	Stop()
	Active() bool
}

// Task is a Repeater backed by a time.Ticker.
type Task struct {
	mu     sync.Mutex
	ticker *time.Ticker
	quit   chan struct{}
	done   chan struct{}
}

func NewTask() *Task { return &Task{} }

func (t *Task) Start(interval time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		return
	}
	t.ticker = time.NewTicker(interval)
	t.quit = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.ticker, t.quit, t.done, f)
}

func (t *Task) run(ticker *time.Ticker, quit, done chan struct{}, f func()) {
	defer close(done)
	for {
		select {
		case <-ticker.C:
			select {
			case <-quit:
				return
			default:
			}
			f()
		case <-quit:
			return
		}
	}
}

func (t *Task) Reset(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		t.ticker.Reset(interval)
	}
}

func (t *Task) Stop() {
	t.mu.Lock()
	if t.ticker == nil {
		t.mu.Unlock()
		return
	}
	t.ticker.Stop()
	close(t.quit)
	done := t.done
	t.ticker, t.quit, t.done = nil, nil, nil
	t.mu.Unlock()
	<-done
}

func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker != nil
}
