package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Optimization Metrics
	TrialsTotal         *prometheus.CounterVec
	TrialDuration       prometheus.Histogram
	SweepsTotal         prometheus.Counter
	MovesEvaluatedTotal prometheus.Counter
	MovesAcceptedTotal  prometheus.Counter

	// Result Metrics
	Codelength     *prometheus.GaugeVec
	NumModules     prometheus.Gauge
	BiasedCostBits prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initOptimizerMetrics()
	r.initResultMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
