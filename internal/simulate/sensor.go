// Package simulate provides a stand-in light sensor for running the node
// without a board attached.
package simulate

import (
	"math/rand/v2"
	"sync"

	"sleepywoodpecker/rp-light-logger/internal/processing"
)

// Sensor is a bounded random walk over the 12-bit ADC range.
type Sensor struct {
	mu      sync.Mutex
	rng     *rand.Rand
	current int
	step    int
}

func NewSensor(seed uint64, start processing.Reading, step int) *Sensor {
	if step <= 0 {
		step = 64
	}
	return &Sensor{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		current: int(min(start, processing.MaxReading)),
		step:    step,
	}
}

func (s *Sensor) Read() (processing.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current += s.rng.IntN(2*s.step+1) - s.step
	s.current = max(0, min(s.current, int(processing.MaxReading)))
	return processing.Reading(s.current), nil
}

var _ processing.Sensor = (*Sensor)(nil)
