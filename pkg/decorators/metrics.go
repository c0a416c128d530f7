package decorators

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/odvcencio/crossover/pkg/experiment"
)

// Metrics bundles the Prometheus collectors published by the metrics
// decorator. Construct once per registry and share across dispatchers.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	attempts    *prometheus.CounterVec
	recovered   *prometheus.CounterVec
}

// NewMetrics registers the routing collectors on reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossover",
			Name:      "invocations_total",
			Help:      "Routed invocations by contract, final trial, and status.",
		}, []string{"contract", "trial", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crossover",
			Name:      "invocation_duration_seconds",
			Help:      "Total latency of the selection-through-execution unit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"contract", "trial"}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossover",
			Name:      "trial_attempts_total",
			Help:      "Candidate attempts by contract, trial, and status.",
		}, []string{"contract", "trial", "status"}),
		recovered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crossover",
			Name:      "invocations_recovered_total",
			Help:      "Invocations rescued by error-policy fallback.",
		}, []string{"contract"}),
	}
}

// Decorator observes every invocation into the collectors.
func (m *Metrics) Decorator() experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		start := time.Now()
		out, err := next(ctx)
		elapsed := time.Since(start)

		trial := inv.FinalKey
		if trial == "" {
			trial = inv.SelectedKey
		}
		status := "success"
		if err != nil {
			status = "failure"
		}
		m.invocations.WithLabelValues(inv.Contract, trial, status).Inc()
		m.duration.WithLabelValues(inv.Contract, trial).Observe(elapsed.Seconds())

		for _, attempt := range inv.Attempts {
			attemptStatus := "success"
			if attempt.Err != nil {
				attemptStatus = "failure"
			}
			m.attempts.WithLabelValues(inv.Contract, attempt.Key, attemptStatus).Inc()
		}
		if err == nil && len(inv.Attempts) > 1 {
			m.recovered.WithLabelValues(inv.Contract).Inc()
		}
		return out, err
	}
}
