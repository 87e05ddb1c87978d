package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/labgate-api/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP, cache and scanning instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	verdicts        *prometheus.CounterVec
	dispatches      *prometheus.CounterVec
	dispatchLatency prometheus.Observer
	credentials     prometheus.Counter
	ignoredScans    prometheus.Counter
	activeRotators  prometheus.Gauge
}

// NewMetricsService registers every collector on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_verdicts_total",
		Help: "Scan verdicts by decision and reason",
	}, []string{"verdict", "reason"})

	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "controller_dispatch_total",
		Help: "Door controller signals by outcome",
	}, []string{"outcome"})

	dispatchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "controller_dispatch_seconds",
		Help:    "Round trip time of door controller signals",
		Buckets: prometheus.DefBuckets,
	})

	credentials := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "credential_issued_total",
		Help: "Credentials minted by the rotators",
	})

	ignoredScans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scans_ignored_total",
		Help: "Scans dropped because the station was busy or cooling down",
	})

	activeRotators := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "credential_rotators_active",
		Help: "Subjects with a bound credential rotator",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		verdicts, dispatches, dispatchLatency, credentials, ignoredScans, activeRotators, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		verdicts:        verdicts,
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		credentials:     credentials,
		ignoredScans:    ignoredScans,
		activeRotators:  activeRotators,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordVerdict counts one decision.
func (m *MetricsService) RecordVerdict(verdict models.Verdict) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(string(verdict.Decision), string(verdict.Reason)).Inc()
}

// RecordDispatch counts one controller signal.
func (m *MetricsService) RecordDispatch(outcome models.DispatchOutcome) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(string(outcome.Status)).Inc()
	if outcome.Status != models.DispatchSkipped {
		m.dispatchLatency.Observe(outcome.Duration.Seconds())
	}
}

// RecordCredentialIssued counts a minted credential.
func (m *MetricsService) RecordCredentialIssued() {
	if m == nil {
		return
	}
	m.credentials.Inc()
}

// RecordScanIgnored counts a debounced scan.
func (m *MetricsService) RecordScanIgnored() {
	if m == nil {
		return
	}
	m.ignoredScans.Inc()
}

// SetActiveRotators publishes the number of bound subjects.
func (m *MetricsService) SetActiveRotators(n int) {
	if m == nil {
		return
	}
	m.activeRotators.Set(float64(n))
}
