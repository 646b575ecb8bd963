package processing

import (
	"errors"
	"sync"
	"testing"
	"time"

	"sleepywoodpecker/rp-light-logger/internal/trigger"
)

var errSensor = errors.New("adc read failed")

// scriptedSensor returns queued results in order and then repeats the last one.
type scriptedSensor struct {
	mu       sync.Mutex
	readings []Reading
	errs     []error
	reads    int
}

func (s *scriptedSensor) Read() (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.reads
	s.reads++
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.readings[i], err
}

func (s *scriptedSensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type recordingLED struct {
	mu     sync.Mutex
	levels []bool
}

func (l *recordingLED) High() { l.set(true) }
func (l *recordingLED) Low() { l.set(false) }

func (l *recordingLED) set(level bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels = append(l.levels, level)
}

func (l *recordingLED) Levels() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.levels...)
}

type recordingReporter struct {
	mu        sync.Mutex
	summaries []Summary
	reported  chan Summary
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{reported: make(chan Summary, 16)}
}

func (r *recordingReporter) Report(s Summary) {
	r.mu.Lock()
	r.summaries = append(r.summaries, s)
	r.mu.Unlock()
	r.reported <- s
}

type countingMetrics struct {
	mu             sync.Mutex
	appended       int
	dropped        int
	sensorFailures int
	copied         int
	skipped        int
	summaries      int
	packetErrors   int
	edges          map[trigger.EdgeResult]int
}

func (m *countingMetrics) ObserveSample(appended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if appended {
		m.appended++
	} else {
		m.dropped++
	}
}

func (m *countingMetrics) ObserveSensorFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sensorFailures++
}

func (m *countingMetrics) ObserveEdge(result trigger.EdgeResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.edges == nil {
		m.edges = map[trigger.EdgeResult]int{}
	}
	m.edges[result]++
}

func (m *countingMetrics) ObserveSnapshot(copied bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if copied {
		m.copied++
	} else {
		m.skipped++
	}
}

func (m *countingMetrics) ObserveSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries++
}

func (m *countingMetrics) ObservePacket(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.packetErrors++
	}
}

// cursorForTest returns the slot the next Append will write to.
func (l *SampleLog) cursorForTest(t *testing.T) int {
	t.Helper()
	if !l.acquire(time.Second) {
		t.Fatal("sample log lock held")
	}
	defer l.release()
	return l.cursor
}
