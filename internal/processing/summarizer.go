package processing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sleepywoodpecker/rp-light-logger/internal/trigger"
)

const DefaultAckPulse = 150 * time.Millisecond

// Indicator is the node's single output line.
type Indicator interface {
	High()
	Low()
}

// Quiescer pauses a producer for the length of a snapshot.
type Quiescer interface {
	Suspend(ctx context.Context) error
	Resume()
}

type SummarizerConfig struct {
	Threshold       Reading
	SnapshotTimeout time.Duration
	AckPulse        time.Duration
	// Quiesce parks the sampler around the snapshot copy. The sample log lock
	// alone keeps the copy consistent.
	Quiesce bool
}

// Summarizer waits for trigger events and reports a summary of the sample log
// for each one.
//
// The snapshot array belongs to the summarizer and survives between triggers:
// if the log lock can't be taken in time the copy is skipped and the previous
// snapshot is summarized again.
type Summarizer struct {
	cfg       SummarizerConfig
	event     *trigger.Event
	sampleLog *SampleLog
	sampler   Quiescer
	led       Indicator
	reporter  Reporter
	logger    *zap.Logger
	metrics   Metrics

	snapshot [LogSize]Reading
}

func NewSummarizer(cfg SummarizerConfig, event *trigger.Event, sampleLog *SampleLog, sampler Quiescer, led Indicator, reporter Reporter, logger *zap.Logger, metrics Metrics) *Summarizer {
	if cfg.SnapshotTimeout <= 0 {
		cfg.SnapshotTimeout = DefaultSnapshotTimeout
	}
	if cfg.AckPulse < 0 {
		cfg.AckPulse = 0
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Summarizer{
		cfg:       cfg,
		event:     event,
		sampleLog: sampleLog,
		sampler:   sampler,
		led:       led,
		reporter:  reporter,
		logger:    logger,
		metrics:   metrics,
	}
}

func (s *Summarizer) Run(ctx context.Context) error {
	for {
		if err := s.event.Wait(ctx); err != nil {
			s.logger.Info("[summarizer] received shutdown signal")
			return nil
		}
		if _, err := s.HandleTrigger(ctx); err != nil {
			s.logger.Info("[summarizer] shutdown during trigger handling", zap.Error(err))
			return nil
		}
	}
}

// HandleTrigger acknowledges one trigger, snapshots the sample log and reports
// the summary. It only fails when ctx is cancelled.
func (s *Summarizer) HandleTrigger(ctx context.Context) (Summary, error) {
	if err := s.acknowledge(ctx); err != nil {
		return Summary{}, err
	}
	s.logger.Info("[summarizer] button pressed, compressing log")

	if err := s.takeSnapshot(ctx); err != nil {
		return Summary{}, err
	}

	summary := Summarize(s.snapshot[:], s.cfg.Threshold)
	s.reporter.Report(summary)
	s.metrics.ObserveSummary()
	return summary, nil
}

func (s *Summarizer) acknowledge(ctx context.Context) error {
	if s.led == nil || s.cfg.AckPulse == 0 {
		return ctx.Err()
	}

	s.led.High()
	defer s.led.Low()

	pulse := time.NewTimer(s.cfg.AckPulse)
	defer pulse.Stop()
	select {
	case <-pulse.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Summarizer) takeSnapshot(ctx context.Context) error {
	if s.cfg.Quiesce && s.sampler != nil {
		if err := s.sampler.Suspend(ctx); err != nil {
			return err
		}
		defer s.sampler.Resume()
	}

	copied := s.sampleLog.SnapshotInto(&s.snapshot, s.cfg.SnapshotTimeout)
	s.metrics.ObserveSnapshot(copied)
	if !copied {
		s.logger.Warn("[summarizer] sample log busy, summarizing previous snapshot", zap.Duration("timeout", s.cfg.SnapshotTimeout))
	}
	return nil
}
