// Package metrics defines the Prometheus instruments of gitquest.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync cycle metrics
	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_sync_cycles_total",
			Help: "Total number of sync cycles by outcome",
		},
		[]string{"outcome"}, // "ok", or a sync error kind
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gitquest_sync_duration_seconds",
			Help:    "Duration of sync cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitquest_sync_rejected_total",
			Help: "Sync requests rejected because one was already in flight",
		},
	)

	XPAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_xp_awarded_total",
			Help: "Total XP appended to the ledger by action type",
		},
		[]string{"action"},
	)

	BadgesEarned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitquest_badges_earned_total",
			Help: "Total number of badges earned",
		},
	)

	ChallengesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_challenges_completed_total",
			Help: "Total number of completed challenges by type",
		},
		[]string{"type"},
	)

	LedgerReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitquest_ledger_replayed_entries_total",
			Help: "Ledger entries applied by recovery instead of the normal cycle",
		},
	)

	LedgerMismatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitquest_ledger_mismatches_total",
			Help: "XP conservation checks that failed",
		},
	)

	// Cache metrics
	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_cache_reads_total",
			Help: "Cache reads by kind and result",
		},
		[]string{"kind", "result"}, // "hit", "stale", "miss"
	)

	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_cache_writes_total",
			Help: "Cache writes by kind",
		},
		[]string{"kind"},
	)

	CacheSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gitquest_cache_swept_total",
			Help: "Expired cache entries removed by sweeps",
		},
	)

	Revalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_revalidations_total",
			Help: "Background stale-while-revalidate refreshes by outcome",
		},
		[]string{"outcome"},
	)

	// Remote API metrics
	GitHubRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitquest_github_requests_total",
			Help: "GitHub API requests by API class and outcome",
		},
		[]string{"class", "outcome"},
	)

	GitHubFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gitquest_github_fetch_duration_seconds",
			Help:    "Duration of a full stats fetch in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	GitHubRateRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gitquest_github_rate_limit_remaining",
			Help: "Remaining GitHub API budget by class",
		},
		[]string{"class"},
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gitquest_github_circuit_breaker_state",
			Help: "GitHub circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordSync records the outcome and duration of a sync cycle.
func RecordSync(outcome string, duration time.Duration) {
	SyncCycles.WithLabelValues(outcome).Inc()
	SyncDuration.Observe(duration.Seconds())
}

// RecordXP records XP appended to the ledger.
func RecordXP(action string, amount int64) {
	if amount > 0 {
		XPAwarded.WithLabelValues(action).Add(float64(amount))
	}
}

// RecordGitHubRequest records one remote API call.
func RecordGitHubRequest(class string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GitHubRequests.WithLabelValues(class, outcome).Inc()
}

// SetRateRemaining records the remaining budget of an API class.
func SetRateRemaining(class string, remaining int) {
	GitHubRateRemaining.WithLabelValues(class).Set(float64(remaining))
}
