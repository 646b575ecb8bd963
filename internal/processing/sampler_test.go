package processing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestSampler(t *testing.T, sensor Sensor, period time.Duration, metrics Metrics) (*Sampler, *SampleLog, *LatestValue) {
	t.Helper()
	sampleLog := NewSampleLog()
	latest := &LatestValue{}
	s := NewSampler(SamplerConfig{Period: period}, sensor, sampleLog, latest, zaptest.NewLogger(t), metrics)
	return s, sampleLog, latest
}

func TestSamplerPublishesAndAppends(t *testing.T) {
	sensor := &scriptedSensor{readings: []Reading{100, 200, 300}}
	metrics := &countingMetrics{}
	s, sampleLog, latest := newTestSampler(t, sensor, time.Hour, metrics)

	for i := 0; i < 3; i++ {
		s.SampleAndLog()
	}

	assert.Equal(t, Reading(300), latest.Load())
	var snap [LogSize]Reading
	require.True(t, sampleLog.SnapshotInto(&snap, DefaultSnapshotTimeout))
	assert.Equal(t, []Reading{100, 200, 300, 0}, snap[:4])
	assert.Equal(t, 3, metrics.appended)
}

func TestSamplerSensorFailureReusesLastReading(t *testing.T) {
	sensor := &scriptedSensor{
		readings: []Reading{1500, 0, 1700},
		errs:     []error{nil, errSensor, nil},
	}
	metrics := &countingMetrics{}
	core, logs := observer.New(zap.WarnLevel)
	sampleLog := NewSampleLog()
	latest := &LatestValue{}
	s := NewSampler(SamplerConfig{Period: time.Hour}, sensor, sampleLog, latest, zap.New(core), metrics)

	s.SampleAndLog()
	s.SampleAndLog()
	assert.Equal(t, Reading(1500), latest.Load())
	s.SampleAndLog()
	assert.Equal(t, Reading(1700), latest.Load())

	var snap [LogSize]Reading
	require.True(t, sampleLog.SnapshotInto(&snap, DefaultSnapshotTimeout))
	assert.Equal(t, []Reading{1500, 1500, 1700}, snap[:3])
	assert.Equal(t, 1, metrics.sensorFailures)
	assert.Equal(t, 1, logs.FilterMessage("[sampler] sensor read failed, reusing last reading").Len())
}

func TestSamplerDropsAppendWhenLogBusy(t *testing.T) {
	metrics := &countingMetrics{}
	s, sampleLog, latest := newTestSampler(t, &scriptedSensor{readings: []Reading{900}}, time.Hour, metrics)
	s.appendTimeout = time.Millisecond

	sampleLog.lock <- struct{}{}
	s.SampleAndLog()
	sampleLog.release()

	assert.Equal(t, Reading(900), latest.Load())
	assert.Equal(t, 0, sampleLog.cursorForTest(t))
	assert.Equal(t, 1, metrics.dropped)
}

func TestSamplerRunStopsOnCancel(t *testing.T) {
	sensor := &scriptedSensor{readings: []Reading{1}}
	s, _, _ := newTestSampler(t, sensor, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return sensor.Reads() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sampler did not stop")
	}
}

func TestSamplerSuspendResumeHasNoBacklog(t *testing.T) {
	const period = 10 * time.Millisecond
	sensor := &scriptedSensor{readings: []Reading{1}}
	s, _, _ := newTestSampler(t, sensor, period, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return sensor.Reads() >= 2 }, time.Second, time.Millisecond)

	require.NoError(t, s.Suspend(ctx))
	assert.True(t, s.Suspended())
	parked := sensor.Reads()

	// 20 periods pass while suspended
	time.Sleep(20 * period)
	assert.Equal(t, parked, sensor.Reads())

	s.Resume()
	assert.False(t, s.Suspended())
	time.Sleep(period / 2)
	// the parked cycle runs at once, the missed ones are never replayed
	assert.LessOrEqual(t, sensor.Reads()-parked, 2)

	require.Eventually(t, func() bool { return sensor.Reads() >= parked+3 }, time.Second, time.Millisecond)
}

func TestSamplerSuspendHonoursContext(t *testing.T) {
	s, _, _ := newTestSampler(t, &scriptedSensor{readings: []Reading{1}}, time.Hour, nil)

	require.NoError(t, s.Suspend(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Suspend(ctx), context.DeadlineExceeded)

	s.Resume()
	s.Resume()
	assert.False(t, s.Suspended())
	require.NoError(t, s.Suspend(context.Background()))
	s.Resume()
}
