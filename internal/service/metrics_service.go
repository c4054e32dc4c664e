package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and the exam scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	examSchedulerRunDuration prometheus.Histogram
	examSchedulerConflicts   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	examSchedulerRunDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "exam_scheduler_run_duration_seconds",
		Help:    "Duration of exam scheduler optimisation runs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	examSchedulerConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exam_scheduler_conflicts_total",
		Help: "Total conflicts logged by the exam scheduler's detector, by kind",
	}, []string{"kind"})

	registry.MustRegister(requestDuration, requestTotal, goroutines, examSchedulerRunDuration, examSchedulerConflicts)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,

		examSchedulerRunDuration: examSchedulerRunDuration,
		examSchedulerConflicts:   examSchedulerConflicts,
	}
}

// ObserveExamSchedulerRun records the wall-clock duration of one
// optimisation run.
func (m *MetricsService) ObserveExamSchedulerRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.examSchedulerRunDuration.Observe(duration.Seconds())
}

// RecordExamConflicts increments the conflict counter for kind by count.
func (m *MetricsService) RecordExamConflicts(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.examSchedulerConflicts.WithLabelValues(kind).Add(float64(count))
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

// ObserveHTTPRequest records request duration and count metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}
