package processing

import "sync/atomic"

// LatestValue publishes the most recent reading to display tasks. It has a
// single writer and no ordering guarantee: readers see a stale or fresh value,
// never a torn one.
type LatestValue struct {
	v atomic.Uint32
}

func (l *LatestValue) Store(r Reading) {
	l.v.Store(uint32(r))
}

func (l *LatestValue) Load() Reading {
	return Reading(l.v.Load())
}
