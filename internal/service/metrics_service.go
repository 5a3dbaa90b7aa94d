package service

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	storeFailures   *prometheus.CounterVec
	authOutcomes    *prometheus.CounterVec
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

	storeLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "session_store_operation_seconds",
		Help:    "Latency of session store operations",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation"})

	storeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_store_failures_total",
		Help: "Session store operations that failed for reasons other than a missing key",
	}, []string{"operation"})

	authOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Authentication operations by outcome",
	}, []string{"operation", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storeLatency, storeFailures, authOutcomes, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storeLatency:    storeLatency,
		storeFailures:   storeFailures,
		authOutcomes:    authOutcomes,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
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

// ObserveSessionStore records the latency of a session store call. A cache
// miss is a normal result and is not counted as a failure.
func (m *MetricsService) ObserveSessionStore(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		m.storeFailures.WithLabelValues(operation).Inc()
	}
}

// RecordAuthOutcome counts an auth operation labelled by its error code, or
// "success".
func (m *MetricsService) RecordAuthOutcome(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = appErrors.FromError(err).Code
	}
	m.authOutcomes.WithLabelValues(operation, result).Inc()
}
