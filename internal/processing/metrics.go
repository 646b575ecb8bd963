package processing

import "sleepywoodpecker/rp-light-logger/internal/trigger"

// Metrics receives operational counts from the acquisition loops. It never
// receives the readings themselves.
type Metrics interface {
	ObserveSample(appended bool)
	ObserveSensorFailure()
	ObserveEdge(result trigger.EdgeResult)
	ObserveSnapshot(copied bool)
	ObserveSummary()
	ObservePacket(err error)
}

type NopMetrics struct{}

func (NopMetrics) ObserveSample(bool) {}
func (NopMetrics) ObserveSensorFailure() {}
func (NopMetrics) ObserveEdge(trigger.EdgeResult) {}
func (NopMetrics) ObserveSnapshot(bool) {}
func (NopMetrics) ObserveSummary() {}
func (NopMetrics) ObservePacket(error) {}

var _ Metrics = NopMetrics{}
