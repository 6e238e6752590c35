// Package observability provides lifecycle metrics for the coordination
// layer. Counters track drains, relayed events, classified failures, stop
// requests, and input submissions.
//
// For per-drain tracing, the coordinator opens an OpenTelemetry span around
// each drain loop when a global TracerProvider is configured.
package observability

import gu "github.com/xraph/go-utils/metrics"

// Metrics records coordination-layer counters via a go-utils MetricFactory.
type Metrics struct {
	DrainStarted    gu.Counter
	DrainCompleted  gu.Counter
	EventRelayed    gu.Counter
	FailureEmitted  gu.Counter
	StopRequested   gu.Counter
	InputSubmitted  gu.Counter
}

// NewMetrics creates Metrics using a default metrics collector.
func NewMetrics() *Metrics {
	return NewMetricsWithFactory(gu.NewMetricsCollector("flowrelay/observability"))
}

// NewMetricsWithFactory creates Metrics with the provided MetricFactory.
func NewMetricsWithFactory(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		DrainStarted:   factory.Counter("flowrelay.drain.started"),
		DrainCompleted: factory.Counter("flowrelay.drain.completed"),
		EventRelayed:   factory.Counter("flowrelay.event.relayed"),
		FailureEmitted: factory.Counter("flowrelay.failure.emitted"),
		StopRequested:  factory.Counter("flowrelay.stop.requested"),
		InputSubmitted: factory.Counter("flowrelay.input.submitted"),
	}
}
