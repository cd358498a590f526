package audio

import (
	"runtime"
	"sync/atomic"
)

// eventBuffer is a lock-free spsc queue. Callers with several producers must
// serialize push themselves.
type eventBuffer[T any] struct {
	events      []T
	read, write atomic.Uint32
}

func newEventBuffer[T any](size int) *eventBuffer[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer[T]{events: make([]T, size)}
}

// push blocks while the buffer is full.
func (b *eventBuffer[T]) push(ev T) {
	for b.write.Load()-b.read.Load() == uint32(len(b.events)) {
		runtime.Gosched()
	}
	write := b.write.Load()
	b.events[write%uint32(len(b.events))] = ev
	b.write.Store(write + 1)
}

// drain calls f for every pending event, oldest first.
func (b *eventBuffer[T]) drain(f func(T)) int {
	read := b.read.Load()
	write := b.write.Load()
	n := 0
	var zero T
	for read != write {
		i := read % uint32(len(b.events))
		ev := b.events[i]
		b.events[i] = zero
		f(ev)
		read++
		n++
	}
	b.read.Store(read)
	return n
}
