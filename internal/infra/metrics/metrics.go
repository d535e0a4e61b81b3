// Package metrics provides Prometheus metrics for Momentum.
// Counters, gauges, and histograms for awards, leveling, and sync.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Awards ─────────────────────────────────────────────────────────────────

// AwardsGranted tracks XP grants by reason.
var AwardsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "awards_granted_total",
	Help:      "Total XP awards granted.",
}, []string{"reason"})

// AwardsDeduped tracks award calls absorbed by the ledger guard.
var AwardsDeduped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "awards_deduped_total",
	Help:      "Total duplicate award calls absorbed by the ledger guard.",
}, []string{"reason"})

// XPGranted tracks total XP granted.
var XPGranted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "xp_granted_total",
	Help:      "Total experience points granted.",
})

// LevelUps tracks level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "level_ups_total",
	Help:      "Total level-up events.",
})

// ─── Progress State ─────────────────────────────────────────────────────────

// CurrentLevel is the level from the last persisted snapshot.
var CurrentLevel = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "current_level",
	Help:      "Level in the last persisted snapshot.",
})

// CurrentStreak is the streak from the last persisted snapshot.
var CurrentStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "momentum",
	Name:      "current_streak_days",
	Help:      "Streak length in the last persisted snapshot.",
})

// ─── Reconciliation ─────────────────────────────────────────────────────────

// SyncPushes tracks outbound push outcomes ("ok" or "failed").
var SyncPushes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "sync_pushes_total",
	Help:      "Total outbound reconciliation pushes by result.",
}, []string{"result"})

// SyncRetries tracks push attempts beyond the first.
var SyncRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "sync_retries_total",
	Help:      "Total outbound push retry attempts.",
})

// SyncPulls tracks inbound refresh outcomes ("ok" or "failed").
var SyncPulls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "momentum",
	Name:      "sync_pulls_total",
	Help:      "Total inbound reconciliation refreshes by result.",
}, []string{"result"})

// SyncPushDuration tracks outbound push duration in seconds.
var SyncPushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "momentum",
	Name:      "sync_push_duration_seconds",
	Help:      "Outbound push duration in seconds.",
	Buckets:   prometheus.DefBuckets,
})
