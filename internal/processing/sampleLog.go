package processing

import (
	"time"
)

// Reading is one raw 12-bit ADC sample.
type Reading uint16

const MaxReading Reading = 4095

// LogSize is the number of readings held by a SampleLog.
const LogSize = 50

const (
	DefaultAppendTimeout   = 10 * time.Millisecond
	DefaultSnapshotTimeout = 50 * time.Millisecond
)

// SampleLog is a fixed-size circular history of readings. The buffer and the
// write cursor are guarded together by one lock that supports a bounded wait,
// so neither the sampler nor the summarizer can be stalled by the other.
//
// Slots that were never written read as zero; a snapshot taken before the log
// has wrapped once includes them.
type SampleLog struct {
	lock   chan struct{}
	buf    [LogSize]Reading
	cursor int
}

func NewSampleLog() *SampleLog {
	return &SampleLog{lock: make(chan struct{}, 1)}
}

func (l *SampleLog) acquire(timeout time.Duration) bool {
	select {
	case l.lock <- struct{}{}:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case l.lock <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (l *SampleLog) release() {
	<-l.lock
}

// Append writes r at the cursor and advances it, overwriting the oldest reading
// once the log is full. It returns false and drops r if the lock could not be
// taken within timeout.
func (l *SampleLog) Append(r Reading, timeout time.Duration) bool {
	if !l.acquire(timeout) {
		return false
	}
	defer l.release()

	l.buf[l.cursor] = r
	l.cursor = (l.cursor + 1) % LogSize
	return true
}

// SnapshotInto copies every slot into dst. It returns false and leaves dst
// untouched if the lock could not be taken within timeout.
func (l *SampleLog) SnapshotInto(dst *[LogSize]Reading, timeout time.Duration) bool {
	if !l.acquire(timeout) {
		return false
	}
	defer l.release()

	*dst = l.buf
	return true
}
