package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counts scheduled or manual runs by outcome
// ("posted", "no_candidate", "store_error", "delivery_error").
var Runs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "foodpics_runs_total",
	Help: "Total number of selection cycles executed, by outcome",
}, []string{"outcome"})

// Counts how many feed candidates were evaluated against the dedup store.
var CandidatesScanned = promauto.NewCounter(prometheus.CounterOpts{
	Name: "foodpics_candidates_scanned_total",
	Help: "Total number of feed candidates evaluated for duplicates",
})

// Counts candidates flagged as duplicates, by kind ("exact", "fuzzy").
var DuplicatesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "foodpics_duplicates_detected_total",
	Help: "Total number of candidates that were flagged as duplicates",
}, []string{"kind"})

// Counts how often every candidate was a duplicate and one was picked at random.
var RandomFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "foodpics_random_fallbacks_total",
	Help: "Total number of runs that fell back to a random duplicate",
})

// Counts candidates dropped by title pre-filters, by filter name.
var CandidatesFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "foodpics_candidates_filtered_total",
	Help: "Total number of candidates dropped by pre-filters",
}, []string{"filter"})

// Dedup store metrics
var (
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodpics_store_errors_total",
		Help: "Total number of dedup store operations that failed",
	}, []string{"op"})

	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodpics_store_latency_seconds",
		Help:    "Time taken by dedup store operations",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"op"})

	EntriesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodpics_entries_expired_total",
		Help: "Total number of expired entries removed by explicit cleanup",
	})
)

// Fingerprint provider metrics
var (
	FingerprintLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodpics_fingerprint_latency_seconds",
		Help:    "Time taken to download and fingerprint an image",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	FingerprintErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodpics_fingerprint_errors_total",
		Help: "Total number of images that could not be fingerprinted",
	})

	FingerprintCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodpics_fingerprint_cache_hits_total",
		Help: "Total number of fingerprints served from the cache",
	})
)

// Counts webhook deliveries by result ("ok", "error").
var Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "foodpics_deliveries_total",
	Help: "Total number of webhook deliveries attempted",
}, []string{"result"})

var (
	FeedErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodpics_feed_errors_total",
		Help: "Total number of failed feed reads",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodpics_queue_depth",
		Help: "Number of runs waiting in the job queue",
	})

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foodpics_circuit_breaker_state",
			Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service"},
	)
)
