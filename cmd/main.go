package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sleepywoodpecker/rp-light-logger/internal/config"
	"sleepywoodpecker/rp-light-logger/internal/logger"
	"sleepywoodpecker/rp-light-logger/internal/node"
	"sleepywoodpecker/rp-light-logger/internal/peripheral"
	"sleepywoodpecker/rp-light-logger/internal/processing"
	rserial "sleepywoodpecker/rp-light-logger/internal/rSerial"
	"sleepywoodpecker/rp-light-logger/internal/simulate"
	"sleepywoodpecker/rp-light-logger/internal/telemetry"
	"sleepywoodpecker/rp-light-logger/internal/trigger"
)

const SIMULATED_START_READING = 2048

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	v := config.New()

	root := &cobra.Command{
		Use:           "lightlog",
		Short:         "Light sensor logger: samples the board ADC and summarizes history on a button press",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("port", "", "serial port of the sensor board")
	flags.Int("baudrate", config.DefaultBaudrate, "serial baud rate")
	flags.Bool("simulate", false, "use a simulated sensor; send SIGUSR1 to press the button")
	flags.String("log-file", config.DefaultLogFile, "log file path, empty for stderr only")
	flags.String("log-level", "info", "log level")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	_ = v.BindPFlag("serial.port", flags.Lookup("port"))
	_ = v.BindPFlag("serial.baudrate", flags.Lookup("baudrate"))
	_ = v.BindPFlag("sensor.simulate", flags.Lookup("simulate"))
	_ = v.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))

	return root
}

func run(parent context.Context, cfg config.Config) (err error) {
	// context handler for graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// first initialize the main logger
	log, err := logger.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(registry)

	opts := node.Options{
		Sampler: processing.SamplerConfig{
			Period:        cfg.SamplePeriod,
			AppendTimeout: cfg.AppendTimeout,
		},
		Summarizer: processing.SummarizerConfig{
			Threshold:       processing.Reading(cfg.Threshold),
			SnapshotTimeout: cfg.SnapshotTimeout,
			AckPulse:        cfg.AckPulse,
			Quiesce:         cfg.QuiesceSampler,
		},
		TickPeriod:   cfg.TickPeriod,
		Debounce:     cfg.Debounce,
		BlinkPeriod:  cfg.BlinkPeriod,
		StatusPeriod: cfg.StatusPeriod,
	}

	var n *node.Node
	if cfg.Simulate {
		sensor := simulate.NewSensor(uint64(os.Getpid()), SIMULATED_START_READING, 0)
		n = node.New(opts, sensor, peripheral.NewLogLED(log), nil, log, metrics)
		n.AddTask(node.Task{Name: "signal-button", Priority: node.PriorityEdgeDispatch, Run: signalButton(n, trigger.NewClock(cfg.TickPeriod), log)})
	} else {
		// initialize the serial connection to the board
		messageQueue := make(chan []byte, processing.DEFAULT_QUEUE_SIZE)
		board, openErr := rserial.Open(cfg.SerialPort, cfg.Baudrate, messageQueue, log, processing.FrameSize, processing.StopSequence)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, board.Close()) }()
		board.SetFrameReadTimeout(cfg.SerialReadTimeout)

		store := processing.NewDataSampleStore(cfg.StaleAfter)
		n = node.New(opts, store, board.LED(), nil, log, metrics)
		processor := processing.NewProcessor(messageQueue, log, store, func(tick uint32) { n.Edge(tick) }, metrics)

		n.AddTask(node.Task{Name: "rserial", Priority: node.PriorityEdgeDispatch, Run: board.Run})
		n.AddTask(node.Task{Name: "processor", Priority: node.PriorityEdgeDispatch, Run: processor.Run})
	}

	if cfg.MetricsAddr != "" {
		srv, err := telemetry.Listen(cfg.MetricsAddr, registry, log)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		n.AddTask(node.Task{Name: "metrics", Priority: node.PriorityIndicator, Run: srv.Run})
	}

	return n.Run(ctx)
}

// signalButton stands in for the button line when no board is attached.
func signalButton(n *node.Node, clock *trigger.Clock, log *zap.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGUSR1)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-sigCh:
				tick := clock.Tick()
				log.Info("[trigger] simulated button edge", zap.Uint32("tick", tick), zap.Stringer("result", n.Edge(tick)))
			case <-ctx.Done():
				return nil
			}
		}
	}
}
