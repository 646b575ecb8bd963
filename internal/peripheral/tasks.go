package peripheral

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sleepywoodpecker/rp-light-logger/internal/processing"
)

const (
	DefaultBlinkPeriod  = 700 * time.Millisecond
	DefaultStatusPeriod = 5 * time.Second
)

// Blinker toggles the LED to show the node is alive.
type Blinker struct {
	led    LED
	period time.Duration
}

func NewBlinker(led LED, period time.Duration) *Blinker {
	if period <= 0 {
		period = DefaultBlinkPeriod
	}
	return &Blinker{led: led, period: period}
}

func (b *Blinker) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()
	defer b.led.Low()

	high := true
	b.led.High()
	for {
		select {
		case <-ticker.C:
			high = !high
			if high {
				b.led.High()
			} else {
				b.led.Low()
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// StatusPrinter logs the latest published reading on a fixed period.
type StatusPrinter struct {
	latest *processing.LatestValue
	period time.Duration
	logger *zap.Logger
}

func NewStatusPrinter(latest *processing.LatestValue, period time.Duration, logger *zap.Logger) *StatusPrinter {
	if period <= 0 {
		period = DefaultStatusPeriod
	}
	return &StatusPrinter{latest: latest, period: period, logger: logger}
}

func (p *StatusPrinter) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.logger.Info("[status] light reading", zap.Uint16("adc", uint16(p.latest.Load())))
		case <-ctx.Done():
			return nil
		}
	}
}
