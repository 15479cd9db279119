package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/common/expfmt"
)

// RecordTrial records a finished trial with its duration
func (r *Registry) RecordTrial(status string, duration time.Duration) {
	r.TrialsTotal.WithLabelValues(status).Inc()
	r.TrialDuration.Observe(duration.Seconds())
}

// RecordSweep records one sweep and the moves it previewed and committed
func (r *Registry) RecordSweep(evaluated, accepted int) {
	r.SweepsTotal.Inc()
	r.MovesEvaluatedTotal.Add(float64(evaluated))
	r.MovesAcceptedTotal.Add(float64(accepted))
}

// SetResult publishes the codelength parts and size of a partition
func (r *Registry) SetResult(index, module, total, biasedCost float64, numModules int) {
	r.Codelength.WithLabelValues("index").Set(index)
	r.Codelength.WithLabelValues("module").Set(module)
	r.Codelength.WithLabelValues("total").Set(total)
	r.BiasedCostBits.Set(biasedCost)
	r.NumModules.Set(float64(numModules))
}

// WriteText writes every metric in the Prometheus text format
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
