package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the fixture sync service

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafetcher_api_calls_total",
			Help: "Total number of API-Football calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datafetcher_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Sync metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafetcher_sync_runs_total",
			Help: "Total number of fixture sync runs",
		},
		[]string{"trigger", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datafetcher_sync_duration_seconds",
			Help:    "Duration of fixture sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)

	FixturesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafetcher_fixtures_upserted_total",
			Help: "Total number of fixture rows written",
		},
	)

	DatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafetcher_dates_skipped_total",
			Help: "Total number of target dates skipped due to fetch failure",
		},
	)

	// Backfill metrics
	BackfillRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafetcher_backfill_runs_total",
			Help: "Total number of odds backfill runs",
		},
		[]string{"status"},
	)

	BackfillRowsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafetcher_backfill_rows_updated_total",
			Help: "Total number of fixture rows enriched with odds",
		},
	)

	BackfillOddsNotFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafetcher_backfill_odds_not_found_total",
			Help: "Total number of outcomes written with the not-found sentinel",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafetcher_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafetcher_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafetcher_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datafetcher_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "datafetcher_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync run",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordSync records a sync run
func RecordSync(trigger, status string, duration float64) {
	SyncRunsTotal.WithLabelValues(trigger, status).Inc()
	SyncDuration.WithLabelValues(trigger).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordBackfill records a backfill run
func RecordBackfill(status string) {
	BackfillRunsTotal.WithLabelValues(status).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
