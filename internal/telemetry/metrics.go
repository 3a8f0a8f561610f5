package telemetry

import "github.com/prometheus/client_golang/prometheus"

var GovernedExecutionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "connectorplane",
		Subsystem: "governed",
		Name:      "executions_total",
		Help:      "Total number of governed executions by connector, tier, and outcome.",
	},
	[]string{"connector_id", "tier", "outcome"},
)

var ProxyRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "connectorplane",
		Subsystem: "proxy",
		Name:      "requests_total",
		Help:      "Total number of outbound requests issued by the proxy.",
	},
	[]string{"connector_id", "transport"},
)

var ProxyRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "connectorplane",
		Subsystem: "proxy",
		Name:      "request_duration_seconds",
		Help:      "Outbound request duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"connector_id"},
)

var PolicyDenialsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "connectorplane",
		Subsystem: "governed",
		Name:      "policy_denials_total",
		Help:      "Total number of governed executions denied by the policy engine.",
	},
	[]string{"connector_id"},
)

var VaultAccessTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "connectorplane",
		Subsystem: "vault",
		Name:      "access_total",
		Help:      "Total number of vault operations by action and result.",
	},
	[]string{"action", "result"},
)

var ReceiptsEmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "connectorplane",
		Subsystem: "governed",
		Name:      "receipts_emitted_total",
		Help:      "Total number of receipts emitted by sink.",
	},
	[]string{"sink"},
)

// All returns all connector-plane metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		GovernedExecutionsTotal,
		ProxyRequestsTotal,
		ProxyRequestDuration,
		PolicyDenialsTotal,
		VaultAccessTotal,
		ReceiptsEmittedTotal,
	}
}
