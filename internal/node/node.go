// Package node wires the acquisition tasks into one running node.
package node

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sleepywoodpecker/rp-light-logger/internal/peripheral"
	"sleepywoodpecker/rp-light-logger/internal/processing"
	"sleepywoodpecker/rp-light-logger/internal/trigger"
)

// Task priorities, highest first. Goroutines have no priorities; the values
// document the intended preemption order and fix the start order so that
// consumers are waiting before their producers begin.
const (
	PriorityEdgeDispatch = 4
	PrioritySummarizer   = 3
	PrioritySampler      = 2
	PriorityIndicator    = 1
)

type Task struct {
	Name     string
	Priority int
	Run      func(ctx context.Context) error
}

type Options struct {
	Sampler      processing.SamplerConfig
	Summarizer   processing.SummarizerConfig
	TickPeriod   time.Duration
	Debounce     time.Duration
	BlinkPeriod  time.Duration
	StatusPeriod time.Duration
}

// Node owns the shared acquisition state and the tasks that use it.
type Node struct {
	logger  *zap.Logger
	metrics processing.Metrics

	SampleLog  *processing.SampleLog
	Latest     *processing.LatestValue
	Event      *trigger.Event
	Debouncer  *trigger.Debouncer
	Sampler    *processing.Sampler
	Summarizer *processing.Summarizer

	tasks []Task
}

func New(opts Options, sensor processing.Sensor, led peripheral.LED, reporter processing.Reporter, logger *zap.Logger, metrics processing.Metrics) *Node {
	if metrics == nil {
		metrics = processing.NopMetrics{}
	}
	if reporter == nil {
		reporter = processing.NewLogReporter(logger)
	}

	n := &Node{
		logger:    logger,
		metrics:   metrics,
		SampleLog: processing.NewSampleLog(),
		Latest:    &processing.LatestValue{},
		Event:     trigger.NewEvent(),
	}
	indicator := peripheral.NewSharedLED(led)
	n.Debouncer = trigger.NewDebouncer(n.Event, opts.TickPeriod, opts.Debounce)
	n.Sampler = processing.NewSampler(opts.Sampler, sensor, n.SampleLog, n.Latest, logger, metrics)
	n.Summarizer = processing.NewSummarizer(opts.Summarizer, n.Event, n.SampleLog, n.Sampler, indicator, reporter, logger, metrics)

	n.tasks = []Task{
		{Name: "summarizer", Priority: PrioritySummarizer, Run: n.Summarizer.Run},
		{Name: "sampler", Priority: PrioritySampler, Run: n.Sampler.Run},
		{Name: "blink", Priority: PriorityIndicator, Run: peripheral.NewBlinker(indicator.Background(), opts.BlinkPeriod).Run},
		{Name: "status", Priority: PriorityIndicator, Run: peripheral.NewStatusPrinter(n.Latest, opts.StatusPeriod, logger).Run},
	}
	return n
}

// Edge is the entry point for button edges. It is safe to call from any
// goroutine and never blocks.
func (n *Node) Edge(tick uint32) trigger.EdgeResult {
	result := n.Debouncer.OnEdge(tick)
	n.metrics.ObserveEdge(result)
	return result
}

// AddTask registers an extra task, such as an edge source, to run with the node.
func (n *Node) AddTask(t Task) {
	n.tasks = append(n.tasks, t)
}

func (n *Node) Tasks() []Task {
	tasks := append([]Task(nil), n.tasks...)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority > tasks[j].Priority
	})
	return tasks
}

// Run starts every task and blocks until ctx is cancelled or a task fails.
func (n *Node) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, task := range n.Tasks() {
		n.logger.Info("[node] starting task", zap.String("task", task.Name), zap.Int("priority", task.Priority))
		g.Go(func() error {
			err := task.Run(gctx)
			if err != nil {
				n.logger.Error("[node] task failed", zap.String("task", task.Name), zap.Error(err))
			}
			return err
		})
	}

	n.logger.Info("[node] system ready, press the button to trigger a log dump")
	return g.Wait()
}
