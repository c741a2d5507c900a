// Package metrics exposes the engine's Prometheus collectors (SPEC_FULL
// §10.4). The engine never starts an HTTP server itself — a host process
// registers these collectors with its own registry and exposes /metrics
// however it already does, matching the core's "no transport owned here"
// stance (§6).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the engine updates as it processes
// commands and publishes events.
type Metrics struct {
	CommandsProcessed *prometheus.CounterVec
	TradesExecuted    prometheus.Counter
	OrdersRejected    *prometheus.CounterVec
	QueueDepth        *prometheus.GaugeVec
	EventBusDrops     *prometheus.CounterVec
	MatchLatency      prometheus.Histogram
}

// New constructs a Metrics bundle with unregistered collectors.
func New() *Metrics {
	return &Metrics{
		CommandsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "commands_processed_total",
			Help:      "Commands processed, partitioned by result.",
		}, []string{"instrument", "result"}),
		TradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "trades_executed_total",
			Help:      "Total trades executed across all instruments.",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "orders_rejected_total",
			Help:      "Rejected orders, partitioned by reason.",
		}, []string{"instrument", "reason"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matchengine",
			Name:      "worker_queue_depth",
			Help:      "Pending commands queued for a worker.",
		}, []string{"instrument"}),
		EventBusDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchengine",
			Name:      "eventbus_drops_total",
			Help:      "Events dropped from a lagging subscriber's buffer.",
		}, []string{"instrument"}),
		MatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchengine",
			Name:      "match_latency_seconds",
			Help:      "Time spent inside Matcher.Process per command.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

// MustRegister registers every collector on reg, panicking on a
// duplicate-registration error the way the rest of the engine panics on
// unrecoverable construction-time mistakes.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.CommandsProcessed,
		m.TradesExecuted,
		m.OrdersRejected,
		m.QueueDepth,
		m.EventBusDrops,
		m.MatchLatency,
	)
}
