package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dantte-lp/procheckd/internal/loader"
	"github.com/dantte-lp/procheckd/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	if c.SlotsLoaded == nil {
		t.Error("SlotsLoaded is nil")
	}
	if c.StateTransitions == nil {
		t.Error("StateTransitions is nil")
	}
	if c.CredentialErrors == nil {
		t.Error("CredentialErrors is nil")
	}
	if c.IdentityCollisions == nil {
		t.Error("IdentityCollisions is nil")
	}
	if c.CapacityExhausted == nil {
		t.Error("CapacityExhausted is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestCollectorRecordsSlotLoadAndFailure(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.Record(0, loader.StateTransition{From: loader.Unloaded, To: loader.CredentialsUnchecked})
	c.Record(0, loader.StateTransition{From: loader.CredentialsUnchecked, To: loader.CredentialsFailed})

	if got := gaugeValue(t, c.SlotsLoaded); got != 1 {
		t.Errorf("SlotsLoaded = %v, want 1", got)
	}
	if got := counterValue(t, c.CredentialErrors); got != 1 {
		t.Errorf("CredentialErrors = %v, want 1", got)
	}
	if got := counterVecValue(t, c.StateTransitions, "Unloaded", "CredentialsUnchecked"); got != 1 {
		t.Errorf("StateTransitions(Unloaded->CredentialsUnchecked) = %v, want 1", got)
	}
}

func TestCollectorRecordsIdentityCollision(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	// A retained (not promoted) slot is re-recorded as CredentialsPassed
	// -> CredentialsPassed, per loader's arbiter.
	c.Record(1, loader.StateTransition{From: loader.CredentialsPassed, To: loader.CredentialsPassed})

	if got := counterValue(t, c.IdentityCollisions); got != 1 {
		t.Errorf("IdentityCollisions = %v, want 1", got)
	}
}

func TestCollectorIncCapacityExhausted(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.IncCapacityExhausted()
	c.IncCapacityExhausted()

	if got := counterValue(t, c.CapacityExhausted); got != 2 {
		t.Errorf("CapacityExhausted = %v, want 2", got)
	}
}

func TestCollectorSatisfiesSlotSink(t *testing.T) {
	t.Parallel()

	var _ loader.SlotSink = metrics.NewCollector(prometheus.NewRegistry())
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
