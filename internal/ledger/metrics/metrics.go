package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credit ledger.
type Metrics struct {
	Deductions      *prometheus.CounterVec
	LoginPrompts    prometheus.Counter
	DeductDuration  prometheus.Histogram
	BalanceFetches  prometheus.Counter
	BalanceFailures prometheus.Counter
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		Deductions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_credit_deductions_total",
			Help: "Deduction attempts by principal kind and outcome",
		}, []string{"principal", "outcome"}),
		LoginPrompts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_login_prompts_total",
			Help: "Sign-in prompts raised for guests who ran out of credits",
		}),
		DeductDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atelier_credit_deduct_duration_seconds",
			Help:    "Duration of deduction round trips (generation critical path)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BalanceFetches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_credit_balance_fetches_total",
			Help: "Balance fetches from the durable store",
		}),
		BalanceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_credit_balance_failures_total",
			Help: "Balance fetches that failed",
		}),
	}
}

// RecordDeduction records one deduction attempt.
func (m *Metrics) RecordDeduction(principal, outcome string, start time.Time) {
	m.Deductions.WithLabelValues(principal, outcome).Inc()
	m.DeductDuration.Observe(time.Since(start).Seconds())
}

// IncrementLoginPrompts records a guest sign-in prompt.
func (m *Metrics) IncrementLoginPrompts() {
	m.LoginPrompts.Inc()
}
