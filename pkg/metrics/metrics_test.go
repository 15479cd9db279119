package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.TrialsTotal == nil || r.SweepsTotal == nil || r.Codelength == nil {
		t.Error("optimizer metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordTrial(t *testing.T) {
	r := NewRegistry()
	r.RecordTrial("success", 10*time.Millisecond)
	r.RecordTrial("success", 20*time.Millisecond)
	r.RecordTrial("cancelled", time.Millisecond)

	counter, err := r.TrialsTotal.GetMetricWithLabelValues("success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, counter); v != 2 {
		t.Errorf("success trials = %v, want 2", v)
	}
}

func TestRecordSweep(t *testing.T) {
	r := NewRegistry()
	r.RecordSweep(40, 7)
	r.RecordSweep(35, 0)

	if v := counterValue(t, r.SweepsTotal); v != 2 {
		t.Errorf("sweeps = %v, want 2", v)
	}
	if v := counterValue(t, r.MovesEvaluatedTotal); v != 75 {
		t.Errorf("evaluated = %v, want 75", v)
	}
	if v := counterValue(t, r.MovesAcceptedTotal); v != 7 {
		t.Errorf("accepted = %v, want 7", v)
	}
}

func TestSetResult(t *testing.T) {
	r := NewRegistry()
	r.SetResult(1.5, 2.25, 4.75, 1, 3)

	total, err := r.Codelength.GetMetricWithLabelValues("total")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := gaugeValue(t, total); v != 4.75 {
		t.Errorf("total codelength = %v, want 4.75", v)
	}
	if v := gaugeValue(t, r.NumModules); v != 3 {
		t.Errorf("modules = %v, want 3", v)
	}
	if v := gaugeValue(t, r.BiasedCostBits); v != 1 {
		t.Errorf("biased cost = %v, want 1", v)
	}
}

func TestWriteText(t *testing.T) {
	r := NewRegistry()
	r.RecordSweep(3, 1)

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if !strings.Contains(buf.String(), "infomap_moves_accepted_total 1") {
		t.Errorf("output missing accepted counter:\n%s", buf.String())
	}
}
