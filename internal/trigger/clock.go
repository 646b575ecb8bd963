package trigger

import "time"

// Clock is a host-side monotonic tick counter for edge sources that don't carry
// their own board timestamps. It wraps like a 32-bit hardware tick counter.
type Clock struct {
	start  time.Time
	period time.Duration
	now    func() time.Time
}

func NewClock(period time.Duration) *Clock {
	return newClockWithNow(period, time.Now)
}

func newClockWithNow(period time.Duration, now func() time.Time) *Clock {
	if period <= 0 {
		period = time.Millisecond
	}
	return &Clock{start: now(), period: period, now: now}
}

// Tick returns the number of tick periods elapsed since the clock was created.
func (c *Clock) Tick() uint32 {
	return uint32(c.now().Sub(c.start) / c.period)
}
