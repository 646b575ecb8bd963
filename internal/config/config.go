package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sleepywoodpecker/rp-light-logger/internal/peripheral"
	"sleepywoodpecker/rp-light-logger/internal/processing"
	rserial "sleepywoodpecker/rp-light-logger/internal/rSerial"
	"sleepywoodpecker/rp-light-logger/internal/trigger"
)

const EnvPrefix = "LIGHTLOG"

const (
	DefaultLogFile  = "lightlog.logs"
	DefaultBaudrate = 460800
)

// Config is read once at startup. Nothing in it changes while the node runs.
type Config struct {
	LogFile  string
	LogLevel string

	SerialPort        string
	Baudrate          int
	SerialReadTimeout time.Duration

	Simulate   bool
	StaleAfter time.Duration

	SamplePeriod  time.Duration
	AppendTimeout time.Duration

	Debounce   time.Duration
	TickPeriod time.Duration

	Threshold       int
	SnapshotTimeout time.Duration
	AckPulse        time.Duration
	QuiesceSampler  bool

	BlinkPeriod  time.Duration
	StatusPeriod time.Duration

	MetricsAddr string
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baudrate", DefaultBaudrate)
	v.SetDefault("serial.readTimeout", rserial.DefaultReadTimeout)
	v.SetDefault("sensor.simulate", false)
	v.SetDefault("sensor.staleAfter", processing.DefaultStaleAfter)
	v.SetDefault("sampler.period", processing.DefaultSamplingPeriod)
	v.SetDefault("sampler.appendTimeout", processing.DefaultAppendTimeout)
	v.SetDefault("trigger.debounce", trigger.DefaultDebounceWindow)
	v.SetDefault("trigger.tickPeriod", time.Millisecond)
	v.SetDefault("summary.threshold", int(processing.DefaultThreshold))
	v.SetDefault("summary.snapshotTimeout", processing.DefaultSnapshotTimeout)
	v.SetDefault("summary.ackPulse", processing.DefaultAckPulse)
	v.SetDefault("summary.quiesceSampler", true)
	v.SetDefault("indicator.blinkPeriod", peripheral.DefaultBlinkPeriod)
	v.SetDefault("status.period", peripheral.DefaultStatusPeriod)
	v.SetDefault("metrics.addr", "")
}

// New returns a viper instance with defaults and environment overrides set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional config file and returns the validated config.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		LogFile:           v.GetString("log.file"),
		LogLevel:          v.GetString("log.level"),
		SerialPort:        v.GetString("serial.port"),
		Baudrate:          v.GetInt("serial.baudrate"),
		SerialReadTimeout: v.GetDuration("serial.readTimeout"),
		Simulate:          v.GetBool("sensor.simulate"),
		StaleAfter:        v.GetDuration("sensor.staleAfter"),
		SamplePeriod:      v.GetDuration("sampler.period"),
		AppendTimeout:     v.GetDuration("sampler.appendTimeout"),
		Debounce:          v.GetDuration("trigger.debounce"),
		TickPeriod:        v.GetDuration("trigger.tickPeriod"),
		Threshold:         v.GetInt("summary.threshold"),
		SnapshotTimeout:   v.GetDuration("summary.snapshotTimeout"),
		AckPulse:          v.GetDuration("summary.ackPulse"),
		QuiesceSampler:    v.GetBool("summary.quiesceSampler"),
		BlinkPeriod:       v.GetDuration("indicator.blinkPeriod"),
		StatusPeriod:      v.GetDuration("status.period"),
		MetricsAddr:       v.GetString("metrics.addr"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	positive := map[string]time.Duration{
		"serial.readTimeout":      c.SerialReadTimeout,
		"sensor.staleAfter":       c.StaleAfter,
		"sampler.period":          c.SamplePeriod,
		"sampler.appendTimeout":   c.AppendTimeout,
		"trigger.debounce":        c.Debounce,
		"trigger.tickPeriod":      c.TickPeriod,
		"summary.snapshotTimeout": c.SnapshotTimeout,
		"indicator.blinkPeriod":   c.BlinkPeriod,
		"status.period":           c.StatusPeriod,
	}
	for key, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	if c.AckPulse < 0 {
		errs = append(errs, fmt.Errorf("summary.ackPulse must not be negative, got %s", c.AckPulse))
	}
	if c.Threshold < 0 || c.Threshold > int(processing.MaxReading) {
		errs = append(errs, fmt.Errorf("summary.threshold must be within [0, %d], got %d", processing.MaxReading, c.Threshold))
	}
	if !c.Simulate {
		if c.SerialPort == "" {
			errs = append(errs, errors.New("serial.port is required unless sensor.simulate is set"))
		}
		if c.Baudrate <= 0 {
			errs = append(errs, fmt.Errorf("serial.baudrate must be positive, got %d", c.Baudrate))
		}
	}

	return errors.Join(errs...)
}
