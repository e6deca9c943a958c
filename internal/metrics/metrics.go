// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Query engine latency and errors
// - Spatial index and record store size
// - Result cache efficiency
// - API endpoint latency and throughput

var (
	// Query Engine Metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronomap_query_duration_seconds",
			Help:    "Duration of engine queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "timeline", "export"
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronomap_query_errors_total",
			Help: "Total number of engine query errors",
		},
		[]string{"operation", "error_type"}, // error_type: "invalid_region", "invalid_range", "invalid_cursor", "inconsistent"
	)

	QueryCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronomap_query_candidates",
			Help:    "Number of spatial candidates per query before temporal filtering",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// Index and Store Metrics
	IndexEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronomap_index_entries",
			Help: "Current number of records in the spatial index",
		},
	)

	IndexRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronomap_index_rebuild_duration_seconds",
			Help:    "Duration of full index rebuilds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	StoreRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronomap_store_records",
			Help: "Current number of records in the record store",
		},
	)

	// Result Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronomap_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "query", "timeline"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronomap_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chronomap_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronomap_cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or invalidation)",
		},
		[]string{"cache_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronomap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronomap_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronomap_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Dataset Load Metrics
	DatasetRecordsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronomap_dataset_records_loaded_total",
			Help: "Total number of records loaded from the dataset file",
		},
	)

	DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronomap_dataset_load_duration_seconds",
			Help:    "Duration of dataset boot loads in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)
)

// RecordQuery records an engine operation's duration and outcome.
func RecordQuery(operation string, duration time.Duration, errorType string) {
	QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if errorType != "" {
		QueryErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for the given cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}
