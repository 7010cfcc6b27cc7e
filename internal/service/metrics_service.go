package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the exam API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	marksSubmitted  prometheus.Counter
	marksRejected   prometheus.Counter
	cardsGenerated  prometheus.Counter
	transitions     *prometheus.CounterVec
}

// NewMetricsService registers the collectors.
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

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_card_cache_hits_total",
		Help: "Report-card cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_card_cache_misses_total",
		Help: "Report-card cache misses",
	})

	marksSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marks_entries_saved_total",
		Help: "Mark entries persisted across all batches",
	})

	marksRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marks_entries_rejected_total",
		Help: "Mark entries rejected by the enrollment filter",
	})

	cardsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cards_generated_total",
		Help: "Report cards written by generation runs",
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_status_transitions_total",
		Help: "Exam state-machine transitions by target status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration,
		cacheHits, cacheMisses, marksSubmitted, marksRejected, cardsGenerated,
		transitions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		marksSubmitted:  marksSubmitted,
		marksRejected:   marksRejected,
		cardsGenerated:  cardsGenerated,
		transitions:     transitions,
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

// ObserveHTTPRequest records one request's method, path, status and latency.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing for a named query.
func (m *MetricsService) ObserveDBQuery(query string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordCacheLookup counts a report-card cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordMarksBatch counts the outcome of one submission batch.
func (m *MetricsService) RecordMarksBatch(saved, rejected int) {
	if m == nil {
		return
	}
	m.marksSubmitted.Add(float64(saved))
	m.marksRejected.Add(float64(rejected))
}

// RecordCardsGenerated counts report cards written by a generation run.
func (m *MetricsService) RecordCardsGenerated(count int) {
	if m == nil {
		return
	}
	m.cardsGenerated.Add(float64(count))
}

// RecordTransition counts an exam state-machine transition.
func (m *MetricsService) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}
