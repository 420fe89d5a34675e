package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-adp-client/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway,
// outbound API calls and the query cache, and provides lightweight snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	apiTotal        *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	queryEvents     *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	apiCallCount         uint64
	apiFailureCount      uint64
	apiDurationTotal     uint64

	eventsMu sync.Mutex
	events   map[string]uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of gateway HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of gateway HTTP requests",
	}, []string{"method", "path", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "school_api_call_duration_seconds",
		Help:    "Duration of calls to the school API",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	apiTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "school_api_calls_total",
		Help: "Calls to the school API by outcome; status 0 means no response",
	}, []string{"method", "route", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "query_cache_lookup_seconds",
		Help:    "Latency of query cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "query_cache_hit_ratio",
		Help: "Ratio of fresh cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "query_cache_hits_total",
		Help: "Total fresh cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "query_cache_misses_total",
		Help: "Total cache misses",
	})

	queryEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "query_events_total",
		Help: "Query lifecycle events such as fetch, coalesced, retry and invalidate",
	}, []string{"event"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, apiDuration, apiTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses, queryEvents, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		apiDuration:     apiDuration,
		apiTotal:        apiTotal,
		cacheLatency:    cacheLatency,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		queryEvents:     queryEvents,
		events:          map[string]uint64{},
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records gateway request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveAPICall records one call to the school API.
func (m *MetricsService) ObserveAPICall(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.apiTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	atomic.AddUint64(&m.apiCallCount, 1)
	atomic.AddUint64(&m.apiDurationTotal, uint64(duration.Nanoseconds()))
	if status == 0 || status >= http.StatusBadRequest {
		atomic.AddUint64(&m.apiFailureCount, 1)
	}
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordQueryEvent counts a query lifecycle event.
func (m *MetricsService) RecordQueryEvent(event string) {
	if m == nil {
		return
	}
	m.queryEvents.WithLabelValues(event).Inc()
	m.eventsMu.Lock()
	m.events[event]++
	m.eventsMu.Unlock()
}

// Snapshot returns aggregated metrics for the console status view.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	calls := atomic.LoadUint64(&m.apiCallCount)
	callDuration := atomic.LoadUint64(&m.apiDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	m.eventsMu.Lock()
	events := make(map[string]uint64, len(m.events))
	for k, v := range m.events {
		events[k] = v
	}
	m.eventsMu.Unlock()

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(reqDuration, requests),
		APICallsTotal:            calls,
		APIFailuresTotal:         atomic.LoadUint64(&m.apiFailureCount),
		AverageAPICallDurationMs: averageMs(callDuration, calls),
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		QueryEvents:              events,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
