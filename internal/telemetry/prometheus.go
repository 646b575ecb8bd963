package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sleepywoodpecker/rp-light-logger/internal/processing"
	"sleepywoodpecker/rp-light-logger/internal/trigger"
)

type PrometheusMetrics struct {
	samples        *prometheus.CounterVec
	sensorFailures prometheus.Counter
	edges          *prometheus.CounterVec
	snapshots      *prometheus.CounterVec
	summaries      prometheus.Counter
	packets        *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		samples: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightlog_samples_total",
				Help: "Sampling cycles by whether the reading reached the sample log",
			},
			[]string{"result"},
		),
		sensorFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lightlog_sensor_read_failures_total",
				Help: "Sensor reads that failed and fell back to the last reading",
			},
		),
		edges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightlog_trigger_edges_total",
				Help: "Button edges by debounce outcome",
			},
			[]string{"result"},
		),
		snapshots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightlog_snapshots_total",
				Help: "Sample log snapshots by whether the copy was taken",
			},
			[]string{"result"},
		),
		summaries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lightlog_summaries_total",
				Help: "Summaries reported",
			},
		),
		packets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightlog_packets_total",
				Help: "Board frames by decode result",
			},
			[]string{"result"},
		),
	}
}

func (p *PrometheusMetrics) ObserveSample(appended bool) {
	result := "appended"
	if !appended {
		result = "dropped"
	}
	p.samples.WithLabelValues(result).Inc()
}

func (p *PrometheusMetrics) ObserveSensorFailure() {
	p.sensorFailures.Inc()
}

func (p *PrometheusMetrics) ObserveEdge(result trigger.EdgeResult) {
	p.edges.WithLabelValues(result.String()).Inc()
}

func (p *PrometheusMetrics) ObserveSnapshot(copied bool) {
	result := "copied"
	if !copied {
		result = "skipped"
	}
	p.snapshots.WithLabelValues(result).Inc()
}

func (p *PrometheusMetrics) ObserveSummary() {
	p.summaries.Inc()
}

func (p *PrometheusMetrics) ObservePacket(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.packets.WithLabelValues(result).Inc()
}

var _ processing.Metrics = (*PrometheusMetrics)(nil)
