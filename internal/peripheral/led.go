package peripheral

import (
	"sync"

	"go.uber.org/zap"
)

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

// LogLED is an LED for hosts without an indicator wired up. It remembers its
// level and logs every change at debug level.
type LogLED struct {
	mu     sync.Mutex
	level  bool
	logger *zap.Logger
}

func NewLogLED(logger *zap.Logger) *LogLED {
	return &LogLED{logger: logger}
}

func (l *LogLED) High() { l.set(true) }
func (l *LogLED) Low() { l.set(false) }

func (l *LogLED) set(level bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level != level {
		l.logger.Debug("[led] level changed", zap.Bool("high", level))
	}
	l.level = level
}

func (l *LogLED) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SharedLED lets a foreground pulse own the LED while a background blinker
// keeps toggling it. High starts a pulse and Low ends it; the LED returned by
// Background is ignored while a pulse is active.
type SharedLED struct {
	mu      sync.Mutex
	led     LED
	pulsing bool
}

func NewSharedLED(led LED) *SharedLED {
	return &SharedLED{led: led}
}

func (s *SharedLED) High() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulsing = true
	s.led.High()
}

func (s *SharedLED) Low() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulsing = false
	s.led.Low()
}

func (s *SharedLED) Background() LED {
	return backgroundLED{s}
}

type backgroundLED struct {
	s *SharedLED
}

func (b backgroundLED) High() { b.set(true) }
func (b backgroundLED) Low() { b.set(false) }

func (b backgroundLED) set(level bool) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.s.pulsing {
		return
	}
	if level {
		b.s.led.High()
	} else {
		b.s.led.Low()
	}
}
