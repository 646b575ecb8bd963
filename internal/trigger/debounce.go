package trigger

import (
	"math"
	"sync/atomic"
	"time"
)

const DefaultDebounceWindow = 50 * time.Millisecond

// EdgeResult is the outcome of one edge delivered to a Debouncer.
type EdgeResult uint8

const (
	// EdgeDebounced means the edge fell inside the debounce window and was dropped.
	EdgeDebounced EdgeResult = iota
	// EdgeAccepted means the edge armed the trigger event.
	EdgeAccepted
	// EdgeCoalesced means the edge was accepted but the event was already armed.
	EdgeCoalesced
)

func (r EdgeResult) String() string {
	switch r {
	case EdgeDebounced:
		return "debounced"
	case EdgeAccepted:
		return "accepted"
	case EdgeCoalesced:
		return "coalesced"
	default:
		return "unknown"
	}
}

// Debouncer turns a noisy edge stream into at most one Event signal per window.
//
// OnEdge is safe to call from the edge dispatch goroutine while other goroutines
// deliver edges too: the window check and the timestamp update are one
// compare-and-swap, so two racing edges can never both be accepted for the
// same window.
type Debouncer struct {
	lastAccepted atomic.Uint32
	windowTicks  uint32
	event        *Event
}

func NewDebouncer(event *Event, tickPeriod, window time.Duration) *Debouncer {
	if tickPeriod <= 0 {
		tickPeriod = time.Millisecond
	}
	return &Debouncer{
		windowTicks: windowTicks(tickPeriod, window),
		event:       event,
	}
}

// windowTicks is the smallest tick delta whose duration covers window.
func windowTicks(tickPeriod, window time.Duration) uint32 {
	if window <= 0 {
		return 0
	}
	ticks := window / tickPeriod
	if window%tickPeriod != 0 {
		ticks++
	}
	if ticks > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ticks)
}

// OnEdge handles one edge stamped with the monotonic tick it occurred at.
// It never blocks and never allocates.
func (d *Debouncer) OnEdge(tick uint32) EdgeResult {
	for {
		last := d.lastAccepted.Load()
		// unsigned subtraction tolerates counter rollover
		if tick-last < d.windowTicks {
			return EdgeDebounced
		}
		if d.lastAccepted.CompareAndSwap(last, tick) {
			break
		}
	}

	if !d.event.Signal() {
		return EdgeCoalesced
	}
	return EdgeAccepted
}

// LastAccepted returns the tick of the most recently accepted edge.
func (d *Debouncer) LastAccepted() uint32 {
	return d.lastAccepted.Load()
}
