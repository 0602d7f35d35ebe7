package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ResolutionsTotal counts resolved requests by outcome
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caseproxy_resolutions_total",
		Help: "The total number of path resolutions by outcome",
	}, []string{"outcome"})

	// AmbiguousMatchesTotal counts case-variant sibling collisions hit
	// during resolution
	AmbiguousMatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseproxy_ambiguous_matches_total",
		Help: "The total number of path segments matching more than one directory entry",
	})

	// DirectoryReadsTotal counts directory listings read from the
	// filesystem to build index entries
	DirectoryReadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseproxy_directory_reads_total",
		Help: "The total number of directory listings read to build index entries",
	})

	// CacheCachedEntries is the number of entries held per LRU cache
	CacheCachedEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "caseproxy_cached_entries",
		Help: "The number of entries in the cache",
	}, []string{"op"})

	// CacheRequests counts cache lookups by result
	CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caseproxy_cache_requests",
		Help: "The number of cache lookups by result",
	}, []string{"op", "cache"})

	// VFSOperations counts filesystem capability calls
	VFSOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caseproxy_vfs_operations_total",
		Help: "The number of filesystem operations by operation and success",
	}, []string{"vfs_name", "operation", "success"})

	// ServedFileSize measures the size of files streamed in direct mode
	ServedFileSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "caseproxy_served_file_size_bytes",
		Help:    "The size in bytes of files streamed in direct mode",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	// ServingTime measures how long it takes to answer a request
	ServingTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "caseproxy_serving_time_seconds",
		Help:    "The time (in seconds) taken to serve a request",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// RateLimitSourceIPCachedEntries is the number of source IPs tracked
	// by the rate limiter
	RateLimitSourceIPCachedEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "caseproxy_rate_limit_source_ip_cached_entries",
		Help: "The number of source IP entries tracked by the rate limiter",
	}, []string{"op"})

	// RateLimitSourceIPCacheRequests counts rate limiter cache lookups
	RateLimitSourceIPCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caseproxy_rate_limit_source_ip_cache_requests",
		Help: "The number of rate limiter cache lookups by result",
	}, []string{"op", "cache"})

	// RateLimitSourceIPBlockedCount counts requests denied by the source
	// IP rate limiter
	RateLimitSourceIPBlockedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "caseproxy_rate_limit_source_ip_blocked_total",
		Help: "The number of requests denied by the source IP rate limiter",
	})

	// LimitListenerMaxConns is the configured shared connection limit
	LimitListenerMaxConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caseproxy_limit_listener_max_conns",
		Help: "The configured connection limit shared between listeners",
	})

	// LimitListenerConcurrentConns is the number of connections currently held
	LimitListenerConcurrentConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caseproxy_limit_listener_concurrent_conns",
		Help: "The number of connections currently served by the limit listener",
	})

	// LimitListenerWaitingConns is the number of connections waiting for a slot
	LimitListenerWaitingConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "caseproxy_limit_listener_waiting_conns",
		Help: "The number of connections waiting for a limit listener slot",
	})
)

// MustRegister registers all collectors with the default registry. It must
// be called exactly once, before any listener starts.
func MustRegister() {
	prometheus.MustRegister(
		ResolutionsTotal,
		AmbiguousMatchesTotal,
		DirectoryReadsTotal,
		CacheCachedEntries,
		CacheRequests,
		VFSOperations,
		ServedFileSize,
		ServingTime,
		RateLimitSourceIPCachedEntries,
		RateLimitSourceIPCacheRequests,
		RateLimitSourceIPBlockedCount,
		LimitListenerMaxConns,
		LimitListenerConcurrentConns,
		LimitListenerWaitingConns,
	)
}
