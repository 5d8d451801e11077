package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by the ledger.
const Namespace = "gitbounty"

type runtimeMetrics struct {
	transactions *prometheus.CounterVec
	instructions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	throttles    *prometheus.CounterVec
}

var (
	runtimeMetricsOnce sync.Once
	runtimeRegistry    *runtimeMetrics
)

// RuntimeMetrics returns the lazily-initialised registry recording
// transaction execution.
func RuntimeMetrics() *runtimeMetrics {
	runtimeMetricsOnce.Do(func() {
		runtimeRegistry = &runtimeMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "runtime",
				Name:      "transactions_total",
				Help:      "Total transactions executed segmented by outcome.",
			}, []string{"outcome"}),
			instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "runtime",
				Name:      "instructions_total",
				Help:      "Total top-level instructions processed segmented by program and outcome.",
			}, []string{"program", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "runtime",
				Name:      "transaction_duration_seconds",
				Help:      "Latency distribution for transaction execution.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"outcome"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "runtime",
				Name:      "throttles_total",
				Help:      "Count of instructions rejected by pause or quota policies.",
			}, []string{"program", "reason"}),
		}
		prometheus.MustRegister(
			runtimeRegistry.transactions,
			runtimeRegistry.instructions,
			runtimeRegistry.latency,
			runtimeRegistry.throttles,
		)
	})
	return runtimeRegistry
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveTransaction records a finished transaction and its latency.
func (m *runtimeMetrics) ObserveTransaction(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeLabel(err)
	m.transactions.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveInstruction records the outcome of a top-level instruction.
func (m *runtimeMetrics) ObserveInstruction(program string, err error) {
	if m == nil {
		return
	}
	program = strings.TrimSpace(program)
	if program == "" {
		program = "unknown"
	}
	m.instructions.WithLabelValues(program, outcomeLabel(err)).Inc()
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "paused" or "quota_exceeded".
func (m *runtimeMetrics) RecordThrottle(program, reason string) {
	if m == nil {
		return
	}
	if program == "" {
		program = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(program, reason).Inc()
}
