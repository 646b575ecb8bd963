package trigger

import "context"

// Event is a single-slot coalescing signal from an edge handler to one waiting task.
// A Signal raised while a previous one is still unconsumed is absorbed.
type Event struct {
	ch chan struct{}
}

func NewEvent() *Event {
	return &Event{ch: make(chan struct{}, 1)}
}

// Signal arms the event without blocking. It reports false when the event was
// already armed and the signal coalesced.
func (e *Event) Signal() bool {
	select {
	case e.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Wait blocks until the event is armed and consumes it.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether a signal is waiting to be consumed.
func (e *Event) Pending() bool {
	return len(e.ch) > 0
}
