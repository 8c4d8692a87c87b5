// Package observability exposes the engine's Prometheus metrics.
// Served on /metrics when the API server runs with metrics enabled.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// AppendsTotal counts ledger appends by reason.
var AppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "glow",
	Subsystem: "ledger",
	Name:      "appends_total",
	Help:      "Total ledger events appended, by reason.",
}, []string{"reason"})

// RejectionsTotal counts validator rejections by attempted reason.
var RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "glow",
	Subsystem: "validator",
	Name:      "rejections_total",
	Help:      "Total actions rejected by the validator, by reason.",
}, []string{"reason"})

// ReversalsTotal counts compensating events by the reversed reason.
var ReversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "glow",
	Subsystem: "ledger",
	Name:      "reversals_total",
	Help:      "Total compensating events appended, by original reason.",
}, []string{"reason"})

// ─── Balance Metrics ────────────────────────────────────────────────────────

// BalanceAvailable tracks the current available point balance.
var BalanceAvailable = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "glow",
	Subsystem: "points",
	Name:      "balance_available",
	Help:      "Current available point balance.",
})

// StreakDays tracks the current consecutive check-in streak.
var StreakDays = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "glow",
	Subsystem: "points",
	Name:      "streak_days",
	Help:      "Current consecutive-day check-in streak.",
})

// ─── Store Metrics ──────────────────────────────────────────────────────────

// SaveFailures counts persistence write failures.
var SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "glow",
	Subsystem: "store",
	Name:      "save_failures_total",
	Help:      "Total failed snapshot saves.",
})
