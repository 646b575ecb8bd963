package processing

import (
	"errors"
	"sync"
	"time"
)

// The board streams readings faster than the sampler consumes them, so the
// store only keeps the newest one. The sampler pulls from it on its own clock.

const DefaultStaleAfter = time.Second

var (
	ErrNoSample    = errors.New("no sample received from board yet")
	ErrStaleSample = errors.New("latest board sample is stale")
)

// DataSampleStore holds the latest reading received from the board and acts as
// the sampler's Sensor when the node is fed over serial.
type DataSampleStore struct {
	reading         Reading
	receivedAt      time.Time
	staleAfter      time.Duration
	now             func() time.Time
	rawReadingMutex sync.Mutex
}

func NewDataSampleStore(staleAfter time.Duration) *DataSampleStore {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &DataSampleStore{
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (d *DataSampleStore) UpdateSampleStore(reading Reading) {
	d.rawReadingMutex.Lock()
	defer d.rawReadingMutex.Unlock()

	d.reading = reading
	d.receivedAt = d.now()
}

func (d *DataSampleStore) GetReadingFromSampleStore() (Reading, time.Time) {
	d.rawReadingMutex.Lock()
	defer d.rawReadingMutex.Unlock()

	return d.reading, d.receivedAt
}

// Read returns the latest board reading, failing if none has arrived yet or the
// newest one is older than the staleness limit.
func (d *DataSampleStore) Read() (Reading, error) {
	reading, receivedAt := d.GetReadingFromSampleStore()
	if receivedAt.IsZero() {
		return 0, ErrNoSample
	}
	if d.now().Sub(receivedAt) > d.staleAfter {
		return reading, ErrStaleSample
	}
	return reading, nil
}

var _ Sensor = (*DataSampleStore)(nil)
