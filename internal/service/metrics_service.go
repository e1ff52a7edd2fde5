package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API, the backend client and the approval workflow.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	backendDuration  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	cacheWrite       prometheus.Observer
	assignments      *prometheus.CounterVec
	chartOccupancy   prometheus.Gauge
	chartCapacity    prometheus.Gauge
	chartUnassigned  prometheus.Gauge
	eventsDropped    prometheus.Counter
	lockContentions  prometheus.Counter
	bulkBatchSeconds prometheus.Histogram
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_call_duration_seconds",
		Help:    "Duration of calls to the library backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_assignments_total",
		Help: "Booking decisions persisted to the backend by action and outcome",
	}, []string{"action", "outcome"})

	chartOccupancy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seat_chart_occupied",
		Help: "Seats occupied in the most recently derived chart",
	})

	chartCapacity := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seat_chart_capacity",
		Help: "Library capacity seen in the most recently derived chart",
	})

	chartUnassigned := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seat_chart_unassigned_students",
		Help: "Students left without a seat in the most recently derived chart",
	})

	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seat_events_dropped_total",
		Help: "Seat assignment events dropped after exhausting retries",
	})

	lockContentions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seat_lock_contentions_total",
		Help: "Seat candidates skipped because another operator held the lock",
	})

	bulkBatchSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bulk_assign_duration_seconds",
		Help:    "Wall time of bulk assignment batches",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, backendDuration, cacheLookups, cacheWrite, assignments,
		chartOccupancy, chartCapacity, chartUnassigned, eventsDropped, lockContentions, bulkBatchSeconds, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		backendDuration:  backendDuration,
		cacheLookups:     cacheLookups,
		cacheWrite:       cacheWrite,
		assignments:      assignments,
		chartOccupancy:   chartOccupancy,
		chartCapacity:    chartCapacity,
		chartUnassigned:  chartUnassigned,
		eventsDropped:    eventsDropped,
		lockContentions:  lockContentions,
		bulkBatchSeconds: bulkBatchSeconds,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveBackendCall records a library backend round trip. Status 0 means no response.
func (m *MetricsService) ObserveBackendCall(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = fmt.Sprintf("%d", status)
	}
	m.backendDuration.WithLabelValues(operation, label).Observe(duration.Seconds())
}

// RecordCacheLookup counts cache hits and misses.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAssignment counts one persisted booking decision.
func (m *MetricsService) RecordAssignment(action, outcome string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(action, outcome).Inc()
}

// ObserveChart publishes the shape of a freshly derived chart.
func (m *MetricsService) ObserveChart(capacity, occupied, unassigned int) {
	if m == nil {
		return
	}
	m.chartCapacity.Set(float64(capacity))
	m.chartOccupancy.Set(float64(occupied))
	m.chartUnassigned.Set(float64(unassigned))
}

// RecordEventDropped counts an undeliverable seat event.
func (m *MetricsService) RecordEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// RecordLockContention counts a seat skipped because of a foreign lock.
func (m *MetricsService) RecordLockContention() {
	if m == nil {
		return
	}
	m.lockContentions.Inc()
}

// ObserveBulkBatch records the wall time of one bulk assignment.
func (m *MetricsService) ObserveBulkBatch(duration time.Duration) {
	if m == nil {
		return
	}
	m.bulkBatchSeconds.Observe(duration.Seconds())
}
