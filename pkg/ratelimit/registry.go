package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry lazily creates and holds one Limiter per connector. Creation
// and lookup are serialized by a single registry-wide lock; once created,
// a Limiter's own operations are serialized by its own lock (lock order:
// registry -> limiter, never the reverse).
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	limiters map[string]*Limiter
	admitted *prometheus.CounterVec
	denied   *prometheus.CounterVec
}

// NewRegistry creates a rate limiter registry from a two-level config.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		limiters: make(map[string]*Limiter),
		admitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connectorplane",
			Subsystem: "ratelimit",
			Name:      "admitted_total",
			Help:      "Total number of admitted requests per connector.",
		}, []string{"connector_id"}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connectorplane",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Total number of rate-limited requests per connector.",
		}, []string{"connector_id"}),
	}
}

// Collectors returns the Prometheus collectors owned by this registry.
func (r *Registry) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.admitted, r.denied}
}

// GetLimiter returns (lazily creating) the limiter for connectorID.
func (r *Registry) GetLimiter(connectorID string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[connectorID]; ok {
		return l
	}
	lc := r.cfg.forConnector(connectorID)
	l := NewLimiter(lc.MaxRequestsPerMinute, lc.Burst)
	r.limiters[connectorID] = l
	return l
}

// Check is the nonblocking admission check for a connector.
func (r *Registry) Check(connectorID string) bool {
	ok := r.GetLimiter(connectorID).Check()
	if ok {
		r.admitted.WithLabelValues(connectorID).Inc()
	} else {
		r.denied.WithLabelValues(connectorID).Inc()
	}
	return ok
}

// Wait blocks up to timeout for a token for the given connector.
func (r *Registry) Wait(connectorID string, timeout time.Duration) bool {
	ok := r.GetLimiter(connectorID).Wait(timeout)
	if ok {
		r.admitted.WithLabelValues(connectorID).Inc()
	} else {
		r.denied.WithLabelValues(connectorID).Inc()
	}
	return ok
}
