package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type launchMetrics struct {
	operations  *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	withdrawals prometheus.Counter
}

var (
	launchMetricsOnce sync.Once
	launchRegistry    *launchMetrics
)

// Launch returns the lazily-initialised metrics registry tracking engine
// operations. The counters are driven by MetricsEmitter off the engine's
// event stream.
func Launch() *launchMetrics {
	launchMetricsOnce.Do(func() {
		launchRegistry = &launchMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchfund",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total successful engine operations segmented by operation.",
			}, []string{"operation"}),
			fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchfund",
				Subsystem: "convert",
				Name:      "fallbacks_total",
				Help:      "Count of conversion attempts that degraded to base-currency accounting.",
			}, []string{"strategy"}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "launchfund",
				Subsystem: "milestone",
				Name:      "withdrawals_total",
				Help:      "Count of successful milestone withdrawals.",
			}),
		}
		prometheus.MustRegister(
			launchRegistry.operations,
			launchRegistry.fallbacks,
			launchRegistry.withdrawals,
		)
	})
	return launchRegistry
}

// RecordOperation counts a completed engine operation.
func (m *launchMetrics) RecordOperation(operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation).Inc()
}

// RecordFallback counts a conversion degrading to the deferred path.
func (m *launchMetrics) RecordFallback(strategy string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(strategy).Inc()
}

// RecordMilestoneWithdrawal counts a successful milestone release.
func (m *launchMetrics) RecordMilestoneWithdrawal() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}
