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

	"github.com/senai-sm/school-manager/internal/models"
)

const metricsNamespace = "school_manager"

// MetricsService owns the Prometheus registry and keeps running totals for the metrics snapshot endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	documents       *prometheus.CounterVec

	cacheHitCount        atomic.Uint64
	cacheMissCount       atomic.Uint64
	requestCount         atomic.Uint64
	requestDurationTotal atomic.Uint64
	dbQueryCount         atomic.Uint64
	dbQueryDurationTotal atomic.Uint64
	documentCount        atomic.Uint64

	mu             sync.Mutex
	classification map[string]uint64
}

// NewMetricsService registers the service collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cache_latency_seconds",
			Help:      "Latency for cache lookups",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cache_write_seconds",
			Help:      "Latency for cache writes",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_hits_total",
			Help:      "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_misses_total",
			Help:      "Total cache misses",
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of record store reads",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "classifications_total",
			Help:      "Student classifications produced, by status",
		}, []string{"status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_issued_total",
			Help:      "Issued documents, by type",
		}, []string{"type"}),
		classification: make(map[string]uint64),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Number of running goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLatency.(prometheus.Collector), m.cacheWrite.(prometheus.Collector),
		m.cacheHits, m.cacheMisses, m.dbQueryDuration, m.classifications, m.documents, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	m.requestCount.Add(1)
	m.requestDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		m.cacheHitCount.Add(1)
		return
	}
	m.cacheMisses.Inc()
	m.cacheMissCount.Add(1)
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records record store read timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueryCount.Add(1)
	m.dbQueryDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// RecordClassification counts a produced student classification.
func (m *MetricsService) RecordClassification(status string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(status).Inc()
	m.mu.Lock()
	m.classification[status]++
	m.mu.Unlock()
}

// RecordDocumentIssued counts an issued document.
func (m *MetricsService) RecordDocumentIssued(docType string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(docType).Inc()
	m.documentCount.Add(1)
}

// Snapshot returns the running totals.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := m.cacheHitCount.Load()
	misses := m.cacheMissCount.Load()
	requests := m.requestCount.Load()
	dbCount := m.dbQueryCount.Load()

	snapshot := models.SystemMetrics{
		CacheHits:       hits,
		CacheMisses:     misses,
		RequestsTotal:   requests,
		DBQueryCount:    dbCount,
		DocumentsIssued: m.documentCount.Load(),
		Goroutines:      runtime.NumGoroutine(),
		GeneratedAt:     time.Now().UTC(),
	}
	if total := hits + misses; total > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(total)
	}
	if requests > 0 {
		snapshot.AverageRequestDurationMs = float64(m.requestDurationTotal.Load()) / float64(requests) / float64(time.Millisecond)
	}
	if dbCount > 0 {
		snapshot.AverageDBQueryDurationMs = float64(m.dbQueryDurationTotal.Load()) / float64(dbCount) / float64(time.Millisecond)
	}

	m.mu.Lock()
	snapshot.Classifications = make(map[string]uint64, len(m.classification))
	for k, v := range m.classification {
		snapshot.Classifications[k] = v
	}
	m.mu.Unlock()
	return snapshot
}
