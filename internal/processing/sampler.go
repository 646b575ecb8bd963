package processing

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultSamplingPeriod = 200 * time.Millisecond

// Sensor is the single-reading primitive the sampler polls.
type Sensor interface {
	Read() (Reading, error)
}

type SamplerConfig struct {
	Period        time.Duration
	AppendTimeout time.Duration
}

// Sampler reads the sensor once per period, publishes the reading and appends it
// to the sample log.
//
// Each cycle runs while holding the sampler's gate. Suspend takes the gate from
// the outside, so a suspended sampler finishes its current cycle and then waits;
// after Resume it carries on with its normal delay and never replays the cycles
// it missed.
type Sampler struct {
	period        time.Duration
	appendTimeout time.Duration
	sensor        Sensor
	sampleLog     *SampleLog
	latest        *LatestValue
	logger        *zap.Logger
	metrics       Metrics

	gate      chan struct{}
	suspended atomic.Bool
}

func NewSampler(cfg SamplerConfig, sensor Sensor, sampleLog *SampleLog, latest *LatestValue, logger *zap.Logger, metrics Metrics) *Sampler {
	if cfg.Period <= 0 {
		cfg.Period = DefaultSamplingPeriod
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = DefaultAppendTimeout
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Sampler{
		period:        cfg.Period,
		appendTimeout: cfg.AppendTimeout,
		sensor:        sensor,
		sampleLog:     sampleLog,
		latest:        latest,
		logger:        logger,
		metrics:       metrics,
		gate:          make(chan struct{}, 1),
	}
}

// SampleAndLog runs one sampling cycle.
func (s *Sampler) SampleAndLog() {
	reading, err := s.sensor.Read()
	if err != nil {
		s.metrics.ObserveSensorFailure()
		reading = s.latest.Load()
		s.logger.Warn("[sampler] sensor read failed, reusing last reading", zap.Error(err), zap.Uint16("reading", uint16(reading)))
	} else {
		s.latest.Store(reading)
		s.logger.Debug("[sampler] collected sample", zap.Uint16("reading", uint16(reading)))
	}

	appended := s.sampleLog.Append(reading, s.appendTimeout)
	s.metrics.ObserveSample(appended)
	if !appended {
		s.logger.Warn("[sampler] sample log busy, dropped reading", zap.Uint16("reading", uint16(reading)))
	}
}

func (s *Sampler) Run(ctx context.Context) error {
	delay := time.NewTimer(s.period)
	defer delay.Stop()

	for {
		select {
		case s.gate <- struct{}{}:
		case <-ctx.Done():
			s.logger.Info("[sampler] received shutdown signal")
			return nil
		}
		s.SampleAndLog()
		<-s.gate

		delay.Reset(s.period)
		select {
		case <-delay.C:
		case <-ctx.Done():
			s.logger.Info("[sampler] received shutdown signal")
			return nil
		}
	}
}

// Suspend blocks until any in-flight cycle has finished and keeps the sampler
// parked until Resume.
func (s *Sampler) Suspend(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		s.suspended.Store(true)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume releases a sampler parked by Suspend. It is a no-op otherwise.
func (s *Sampler) Resume() {
	if s.suspended.CompareAndSwap(true, false) {
		<-s.gate
	}
}

func (s *Sampler) Suspended() bool {
	return s.suspended.Load()
}
