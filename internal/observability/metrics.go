// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	FeedEventsReceived     prometheus.Counter
	FeedEventsMalformed    *prometheus.CounterVec
	FeedConnectionFailures *prometheus.CounterVec
	FeedRestarts           prometheus.Counter
	BatchFetchLatency      prometheus.Histogram
	BatchFetchErrors       prometheus.Counter

	// Store metrics
	StoreSubmissions *prometheus.CounterVec
	StoreEvictions   prometheus.Counter
	StoreSize        prometheus.Gauge

	// Filter metrics
	FilterEvaluations *prometheus.CounterVec

	// Ledger metrics
	TradesLogged       *prometheus.CounterVec
	TradesRejected     *prometheus.CounterVec
	LedgerClears       prometheus.Counter
	DailyStatsFlushes  *prometheus.CounterVec
	DailyStatsDuration prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastFeedEvent prometheus.Gauge
	ScannerActive prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "sniper"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FeedEventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_received_total",
			Help:      "Total number of new token events accepted from the feed",
		}),
		FeedEventsMalformed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_malformed_total",
			Help:      "Total number of dropped feed frames by reason",
		}, []string{"reason"}),
		FeedConnectionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "connection_failures_total",
			Help:      "Total number of feed connection failures by stage",
		}, []string{"stage"}),
		FeedRestarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "restarts_total",
			Help:      "Total number of feed runs relaunched by the supervisor",
		}),
		BatchFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "batch_fetch_latency_seconds",
			Help:      "Batch listings fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		BatchFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "batch_fetch_errors_total",
			Help:      "Total number of failed batch listings fetches",
		}),

		StoreSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "submissions_total",
			Help:      "Total number of opportunity submissions by result",
		}, []string{"result"}),
		StoreEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "evictions_total",
			Help:      "Total number of opportunities evicted at capacity",
		}),
		StoreSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "size",
			Help:      "Current number of opportunities in the store",
		}),

		FilterEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "evaluations_total",
			Help:      "Total number of hard filter evaluations by result",
		}, []string{"result"}),

		TradesLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_logged_total",
			Help:      "Total number of trades appended by type",
		}, []string{"trade_type"}),
		TradesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_rejected_total",
			Help:      "Total number of trades rejected by reason",
		}, []string{"reason"}),
		LedgerClears: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "clears_total",
			Help:      "Total number of ledger clears",
		}),
		DailyStatsFlushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "daily_stats_flushes_total",
			Help:      "Total number of daily stats flushes by status",
		}, []string{"status"}),
		DailyStatsDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "daily_stats_flush_duration_seconds",
			Help:      "Daily stats flush duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastFeedEvent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_feed_event_timestamp",
			Help:      "Unix timestamp of the last accepted feed event",
		}),
		ScannerActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "scanner_active",
			Help:      "1 when the scanner feed is running, 0 otherwise",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

func resultLabel(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// RecordFeedEvent records an accepted feed event at unixSeconds.
func RecordFeedEvent(unixSeconds int64) {
	DefaultMetrics.FeedEventsReceived.Inc()
	DefaultMetrics.LastFeedEvent.Set(float64(unixSeconds))
}

// RecordFeedMalformed records a dropped feed frame.
func RecordFeedMalformed(reason string) {
	DefaultMetrics.FeedEventsMalformed.WithLabelValues(reason).Inc()
}

// RecordFeedConnectionFailure records a dial, subscribe or read failure.
func RecordFeedConnectionFailure(stage string) {
	DefaultMetrics.FeedConnectionFailures.WithLabelValues(stage).Inc()
}

// RecordFeedRestart records a supervisor relaunch of the feed.
func RecordFeedRestart() {
	DefaultMetrics.FeedRestarts.Inc()
}

// RecordBatchFetch records a batch listings fetch.
func RecordBatchFetch(seconds float64, err error) {
	DefaultMetrics.BatchFetchLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.BatchFetchErrors.Inc()
	}
}

// RecordStoreSubmit records the outcome of a store submission.
func RecordStoreSubmit(inserted bool, evicted, size int) {
	DefaultMetrics.StoreSubmissions.WithLabelValues(resultLabel(inserted, "inserted", "duplicate")).Inc()
	if evicted > 0 {
		DefaultMetrics.StoreEvictions.Add(float64(evicted))
	}
	DefaultMetrics.StoreSize.Set(float64(size))
}

// RecordFilterEvaluation records a hard filter result.
func RecordFilterEvaluation(pass bool) {
	DefaultMetrics.FilterEvaluations.WithLabelValues(resultLabel(pass, "pass", "fail")).Inc()
}

// RecordTradeLogged records a trade appended to the ledger.
func RecordTradeLogged(tradeType string) {
	DefaultMetrics.TradesLogged.WithLabelValues(tradeType).Inc()
}

// RecordTradeRejected records a trade the ledger refused.
func RecordTradeRejected(reason string) {
	DefaultMetrics.TradesRejected.WithLabelValues(reason).Inc()
}

// RecordLedgerClear records a ledger clear.
func RecordLedgerClear() {
	DefaultMetrics.LedgerClears.Inc()
}

// RecordDailyStatsFlush records a daily stats flush.
func RecordDailyStatsFlush(seconds float64, err error) {
	DefaultMetrics.DailyStatsDuration.Observe(seconds)
	DefaultMetrics.DailyStatsFlushes.WithLabelValues(resultLabel(err == nil, "success", "error")).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetScannerActive updates the scanner state gauge.
func SetScannerActive(active bool) {
	if active {
		DefaultMetrics.ScannerActive.Set(1)
		return
	}
	DefaultMetrics.ScannerActive.Set(0)
}
