package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research paper finder.
// Metrics are organized by subsystem: searches, providers, cache, result
// processing, AI completion and HTTP. All collectors are registered via promauto
// with the default Prometheus registry.
//
// Every Record method is a no-op on a nil receiver.
type Metrics struct {
	// SearchesTotal counts orchestrated searches, labeled by status (success, empty).
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes end-to-end search duration in seconds.
	SearchDuration prometheus.Histogram

	// ProviderRequestsTotal counts provider calls, labeled by provider and status
	// (success, error, cache_hit).
	ProviderRequestsTotal *prometheus.CounterVec

	// ProviderRequestDuration observes provider call duration in seconds, labeled by provider.
	ProviderRequestDuration *prometheus.HistogramVec

	// ProviderPapersReturned counts canonical papers produced, labeled by provider.
	ProviderPapersReturned *prometheus.CounterVec

	// CacheHits counts cache hits, labeled by key namespace.
	CacheHits *prometheus.CounterVec

	// CacheMisses counts cache misses, labeled by key namespace.
	CacheMisses *prometheus.CounterVec

	// CacheEvictions counts entries evicted to make room for new ones.
	CacheEvictions prometheus.Counter

	// PapersDeduplicated counts records dropped as duplicates.
	PapersDeduplicated prometheus.Counter

	// PapersInvalid counts records dropped by validation.
	PapersInvalid prometheus.Counter

	// AIRequestsTotal counts AI completion calls, labeled by provider, operation and status.
	AIRequestsTotal *prometheus.CounterVec

	// AIRequestDuration observes AI completion duration in seconds, labeled by provider and operation.
	AIRequestDuration *prometheus.HistogramVec

	// TermFallbacks counts term generations served by the keyword fallback.
	TermFallbacks prometheus.Counter

	// HTTPRequestsTotal counts HTTP requests, labeled by method, route and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of orchestrated paper searches",
		}, []string{"status"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of orchestrated paper searches in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		// Providers
		ProviderRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of paper provider calls",
		}, []string{"provider", "status"}),
		ProviderRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of paper provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderPapersReturned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_papers_returned_total",
			Help:      "Total number of papers returned by paper providers",
		}, []string{"provider"}),

		// Cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}, []string{"namespace"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"namespace"}),
		CacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache entries evicted at capacity",
		}),

		// Result processing
		PapersDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_deduplicated_total",
			Help:      "Total number of duplicate papers removed",
		}),
		PapersInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_invalid_total",
			Help:      "Total number of papers dropped by validation",
		}),

		// AI
		AIRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Total number of AI completion requests",
		}, []string{"provider", "operation", "status"}),
		AIRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of AI completion requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"provider", "operation"}),
		TermFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "term_fallbacks_total",
			Help:      "Total number of term lists produced by keyword fallback",
		}),

		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordSearch records a completed orchestrated search.
func (m *Metrics) RecordSearch(paperCount int, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if paperCount == 0 {
		status = "empty"
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(duration.Seconds())
}

// RecordProviderRequest records one provider call.
func (m *Metrics) RecordProviderRequest(provider, status string, duration time.Duration, paperCount int) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if paperCount > 0 {
		m.ProviderPapersReturned.WithLabelValues(provider).Add(float64(paperCount))
	}
}

// RecordCacheHit records a cache hit in the given key namespace.
func (m *Metrics) RecordCacheHit(namespace string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(namespace).Inc()
}

// RecordCacheMiss records a cache miss in the given key namespace.
func (m *Metrics) RecordCacheMiss(namespace string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(namespace).Inc()
}

// RecordCacheEviction records a capacity eviction.
func (m *Metrics) RecordCacheEviction() {
	if m == nil {
		return
	}
	m.CacheEvictions.Inc()
}

// RecordPapersProcessed records the outcome of one result-processing pass.
func (m *Metrics) RecordPapersProcessed(invalid, duplicates int) {
	if m == nil {
		return
	}
	m.PapersInvalid.Add(float64(invalid))
	m.PapersDeduplicated.Add(float64(duplicates))
}

// RecordAIRequest records an AI completion call.
func (m *Metrics) RecordAIRequest(provider, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AIRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.AIRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordTermFallback records a term list produced by keyword fallback.
func (m *Metrics) RecordTermFallback() {
	if m == nil {
		return
	}
	m.TermFallbacks.Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
