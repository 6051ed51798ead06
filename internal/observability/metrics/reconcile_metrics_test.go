package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewReconcileMetricsForTest(registry)

	metrics.IncOutcome(OutcomeQueued)
	metrics.IncOutcome(OutcomeQueued)
	metrics.IncOutcome("")

	if got := testutil.ToFloat64(metrics.outcomes.WithLabelValues(OutcomeQueued)); got != 2 {
		t.Fatalf("expected queued count 2, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.outcomes.WithLabelValues(OutcomeError)); got != 1 {
		t.Fatalf("expected empty outcome to count as error, got %v", got)
	}
}

func TestLockMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewReconcileMetricsForTest(registry)

	metrics.IncLockTimeout("redis")
	metrics.ObserveLockWait("redis", 250*time.Millisecond)

	if got := testutil.ToFloat64(metrics.lockTimeouts.WithLabelValues("redis")); got != 1 {
		t.Fatalf("expected 1 lock timeout, got %v", got)
	}
	if count := testutil.CollectAndCount(metrics.lockWait); count != 1 {
		t.Fatalf("expected one lock wait series, got %d", count)
	}
}

func TestNilReconcileMetricsAreSafe(t *testing.T) {
	var metrics *ReconcileMetrics
	metrics.IncOutcome(OutcomeAttached)
	metrics.IncLockTimeout("memory")
	metrics.ObserveLockWait("memory", time.Second)
	metrics.ObserveDuration(time.Second)
}
