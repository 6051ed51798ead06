package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeAttached    = "attached"
	OutcomeQueued      = "queued"
	OutcomeDeferred    = "deferred"
	OutcomeSingleSale  = "single_sale"
	OutcomeMalformed   = "malformed"
	OutcomeLockTimeout = "lock_timeout"
	OutcomeError       = "error"
)

// ReconcileMetrics captures bill reconciliation and lock contention signals.
type ReconcileMetrics struct {
	outcomes     *prometheus.CounterVec
	lockWait     *prometheus.HistogramVec
	lockTimeouts *prometheus.CounterVec
	duration     prometheus.Observer
}

var (
	reconcileMetricsOnce sync.Once
	reconcileMetrics     *ReconcileMetrics
)

// Reconcile returns the singleton reconcile metrics registry.
func Reconcile() *ReconcileMetrics {
	return ReconcileWithConfig(Config{})
}

// ReconcileWithConfig returns the singleton reconcile metrics registry using config labels.
func ReconcileWithConfig(cfg Config) *ReconcileMetrics {
	reconcileMetricsOnce.Do(func() {
		reconcileMetrics = newReconcileMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return reconcileMetrics
}

// ResetReconcileMetricsForTest resets the reconcile metrics singleton for tests.
func ResetReconcileMetricsForTest() {
	reconcileMetricsOnce = sync.Once{}
	reconcileMetrics = nil
}

// NewReconcileMetricsForTest builds an instance bound to the given registry.
func NewReconcileMetricsForTest(registerer prometheus.Registerer) *ReconcileMetrics {
	return newReconcileMetrics(registerer, Config{ServiceName: "vindisync", Environment: "test"})
}

func newReconcileMetrics(registerer prometheus.Registerer, cfg Config) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "vindisync"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vindisync_bill_reconcile_total",
		Help:        "Bill created reconciliations by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "vindisync_subscription_lock_wait_seconds",
		Help:        "Time spent waiting for the per-subscription lock.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"backend"})
	lockTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "vindisync_subscription_lock_timeouts_total",
		Help:        "Per-subscription lock acquisitions that exceeded the wait bound.",
		ConstLabels: constLabels,
	}, []string{"backend"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "vindisync_bill_reconcile_duration_seconds",
		Help:        "Time spent inside the locked reconciliation body.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(outcomes, lockWait, lockTimeouts, duration)

	return &ReconcileMetrics{
		outcomes:     outcomes,
		lockWait:     lockWait,
		lockTimeouts: lockTimeouts,
		duration:     duration,
	}
}

func (m *ReconcileMetrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		outcome = OutcomeError
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

func (m *ReconcileMetrics) ObserveLockWait(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *ReconcileMetrics) IncLockTimeout(backend string) {
	if m == nil {
		return
	}
	m.lockTimeouts.WithLabelValues(backend).Inc()
}

func (m *ReconcileMetrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// Outcomes exposes the outcome counter for assertions.
func (m *ReconcileMetrics) Outcomes() *prometheus.CounterVec {
	return m.outcomes
}

// LockTimeouts exposes the lock timeout counter for assertions.
func (m *ReconcileMetrics) LockTimeouts() *prometheus.CounterVec {
	return m.lockTimeouts
}
