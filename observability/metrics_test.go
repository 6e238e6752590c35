package observability_test

import (
	"testing"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/beclab/flowrelay/observability"
)

func TestMetricsCounters(t *testing.T) {
	m := observability.NewMetricsWithFactory(gu.NewMetricsCollector("test"))

	m.DrainStarted.Inc()
	m.EventRelayed.Inc()
	m.EventRelayed.Inc()

	if m.DrainStarted.Value() != 1 {
		t.Errorf("DrainStarted: want 1, got %v", m.DrainStarted.Value())
	}
	if m.EventRelayed.Value() != 2 {
		t.Errorf("EventRelayed: want 2, got %v", m.EventRelayed.Value())
	}
}
