// Package metrics exposes the Prometheus instruments of the classification
// pipeline and its HTTP adapters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_passes_total",
			Help: "Classification passes by outcome",
		},
		[]string{"outcome"}, // "completed", "empty", "cancelled"
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fp_pass_duration_seconds",
			Help:    "Duration of classification passes",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	ReadyTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fp_ready_timeouts_total",
			Help: "Passes that proceeded after the readiness barrier timed out",
		},
	)

	ResolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_catalog_resolves_total",
			Help: "Catalog lookups by stage and outcome",
		},
		[]string{"stage", "outcome"}, // stage: "batch", "parents", "contents"
	)

	DiscardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_discards_total",
			Help: "Identifiers cleared without dispatch, by reason",
		},
		[]string{"reason"},
	)

	EnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_enqueued_total",
			Help: "Items handed to session queues, by kind",
		},
		[]string{"kind"},
	)

	PendingChanges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fp_pending_changes",
			Help: "Pending identifiers per session and set",
		},
		[]string{"session", "set"}, // set: "leaf", "group", "new_group"
	)

	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_account_refreshes_total",
			Help: "Account data refreshes by outcome",
		},
		[]string{"outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fp_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fp_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)
)

func RecordPass(outcome string, duration time.Duration) {
	PassesTotal.WithLabelValues(outcome).Inc()
	if outcome != "empty" {
		PassDuration.Observe(duration.Seconds())
	}
}

func RecordResolve(stage string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ResolvesTotal.WithLabelValues(stage, outcome).Inc()
}

func RecordDiscard(reason string) {
	DiscardsTotal.WithLabelValues(reason).Inc()
}

func RecordEnqueued(kind string) {
	EnqueuedTotal.WithLabelValues(kind).Inc()
}

func RecordRefresh(err error) {
	if err != nil {
		RefreshesTotal.WithLabelValues("error").Inc()
		return
	}
	RefreshesTotal.WithLabelValues("success").Inc()
}

func SetPending(session string, leaves, groups, newGroups int) {
	PendingChanges.WithLabelValues(session, "leaf").Set(float64(leaves))
	PendingChanges.WithLabelValues(session, "group").Set(float64(groups))
	PendingChanges.WithLabelValues(session, "new_group").Set(float64(newGroups))
}

// ForgetSession drops the per-session series of a removed session.
func ForgetSession(session string) {
	PendingChanges.DeletePartialMatch(prometheus.Labels{"session": session})
}

func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}
