package audio

import (
	"context"
	"testing"
)

func TestEventBufferDrain(t *testing.T) {
	buf := newEventBuffer[int](8)
	buf.push(2)
	buf.push(3)

	var events []int
	if want, got := 2, buf.drain(func(ev int) { events = append(events, ev) }); want != got {
		t.Errorf("expected %v events, got %v", want, got)
	}
	if want, got := 0, buf.drain(func(ev int) { events = append(events, ev) }); want != got {
		t.Errorf("expected %v events after drain, got %v", want, got)
	}
	if len(events) != 2 || events[0] != 2 || events[1] != 3 {
		t.Errorf("wrong events: %v", events)
	}
}

func TestEventBuffer(t *testing.T) {
	buf := newEventBuffer[int](8)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var events []int
	collect := func(ev int) { events = append(events, ev) }
	go func() {
		for {
			select {
			case <-ctx.Done():
				buf.drain(collect)
				done <- struct{}{}
				return
			default:
				buf.drain(collect)
			}
		}
	}()

	const numEvents = 1_000_000
	for n := 0; n < numEvents; n++ {
		buf.push(n)
	}

	cancel()
	<-done

	if len(events) != numEvents {
		t.Errorf("wrong number of events: want %v, got %v", numEvents, len(events))
	}

	prev := -1
	for _, ev := range events {
		if want, got := prev+1, ev; want != got {
			t.Errorf("discontinuous event: want: %v, got %v", want, ev)
			break
		}
		prev++
	}
}
