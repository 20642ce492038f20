package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"launchfund/core/events"
	"launchfund/core/types"
	"launchfund/native/launch"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured engine events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchfund",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of structured events segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Record increments the counter for the supplied event type.
func (m *eventMetrics) Record(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(eventType))
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// MetricsEmitter satisfies events.Emitter by folding the engine's event
// stream into the Prometheus registries: every event is counted by type, and
// the launch counters (operations, conversion fallbacks, milestone
// withdrawals) are derived from the event payloads.
type MetricsEmitter struct{}

// Emit implements the events.Emitter interface.
func (MetricsEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	Events().Record(evt.EventType())
	metrics := Launch()
	switch evt.EventType() {
	case launch.EventTypeCampaignCreated:
		metrics.RecordOperation("create")
	case launch.EventTypeTokensPurchased:
		metrics.RecordOperation("buy")
		if strategy, fellBack := conversionFellBack(eventAttributes(evt)); fellBack {
			metrics.RecordFallback(strategy)
		}
	case launch.EventTypeTokensSold:
		metrics.RecordOperation("sell")
	case launch.EventTypeMilestoneWithdrawn:
		metrics.RecordOperation("milestone_withdraw")
		metrics.RecordMilestoneWithdrawal()
	case launch.EventTypeEmergencyWithdrawn:
		metrics.RecordOperation("emergency_withdraw")
	case launch.EventTypeCampaignEnded:
		metrics.RecordOperation("end")
	}
}

func eventAttributes(evt events.Event) map[string]string {
	payload, ok := evt.(interface{ Event() *types.Event })
	if !ok || payload.Event() == nil {
		return nil
	}
	return payload.Event().Attributes
}

// conversionFellBack detects a funding share that degraded to base-currency
// accounting. Instant routes everything or nothing through the swap, so any
// deferred base is a fallback; Hybrid always defers half, so only a fully
// deferred share signals one.
func conversionFellBack(attrs map[string]string) (string, bool) {
	switch attrs["strategy"] {
	case "instant":
		if base := attrs["fundingBase"]; base != "" && base != "0" {
			return "instant", true
		}
	case "hybrid":
		if attrs["fundingStable"] == "0" && attrs["fundingBase"] != "0" {
			return "hybrid", true
		}
	}
	return "", false
}
