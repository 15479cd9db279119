package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOptimizerMetrics() {
	r.TrialsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "infomap_trials_total",
			Help: "Total number of optimization trials by outcome",
		},
		[]string{"status"},
	)

	r.TrialDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "infomap_trial_duration_seconds",
			Help:    "Wall time of one optimization trial in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	r.SweepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "infomap_sweeps_total",
			Help: "Total number of local-move sweeps over all nodes",
		},
	)

	r.MovesEvaluatedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "infomap_moves_evaluated_total",
			Help: "Total number of candidate moves previewed",
		},
	)

	r.MovesAcceptedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "infomap_moves_accepted_total",
			Help: "Total number of moves committed",
		},
	)
}

func (r *Registry) initResultMetrics() {
	r.Codelength = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "infomap_codelength_bits",
			Help: "Codelength of the best partition found, by part",
		},
		[]string{"part"},
	)

	r.NumModules = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "infomap_modules",
			Help: "Number of non-empty modules in the best partition",
		},
	)

	r.BiasedCostBits = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "infomap_biased_cost_bits",
			Help: "Module-count penalty included in the best codelength",
		},
	)
}
