package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/mannsetu-api/internal/models"
)

const metricsNamespace = "mannsetu"

// Booking outcome labels.
const (
	BookingOutcomeCreated   = "created"
	BookingOutcomeConflict  = "conflict"
	BookingOutcomeConfirmed = "confirmed"
	BookingOutcomeRejected  = "rejected"
	BookingOutcomeCancelled = "cancelled"
)

// MetricsService owns the Prometheus registry and keeps running totals for
// the admin snapshot. A nil *MetricsService records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	cacheRead    prometheus.Histogram
	cacheWrite   prometheus.Histogram
	bookings     *prometheus.CounterVec
	relayCalls   *prometheus.CounterVec
	relayModel   prometheus.Histogram
	dbQueries    *prometheus.HistogramVec

	totals struct {
		requests      atomic.Uint64
		requestNanos  atomic.Uint64
		cacheHits     atomic.Uint64
		cacheMisses   atomic.Uint64
		bookings      atomic.Uint64
		conflicts     atomic.Uint64
		relayCalls    atomic.Uint64
		relayFailures atomic.Uint64
		dbQueries     atomic.Uint64
		dbNanos       atomic.Uint64
	}
}

// NewMetricsService registers every collector on a private registry.
func NewMetricsService() *MetricsService {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	m := &MetricsService{registry: reg}

	m.httpDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "http", Name: "request_duration_seconds",
		Help: "HTTP request latency by route.",
	}, []string{"method", "route", "status"})
	m.httpRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
	m.cacheLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "roster_cache", Name: "lookups_total",
		Help: "Counselor roster cache lookups by result.",
	}, []string{"result"})
	m.cacheRead = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "roster_cache", Name: "read_seconds",
		Help: "Roster cache read latency.", Buckets: []float64{.0005, .001, .005, .01, .05, .1},
	})
	m.cacheWrite = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "roster_cache", Name: "write_seconds",
		Help: "Roster cache write latency.", Buckets: []float64{.0005, .001, .005, .01, .05, .1},
	})
	m.bookings = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "booking", Name: "outcomes_total",
		Help: "Booking lifecycle outcomes.",
	}, []string{"outcome"})
	m.relayCalls = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "relay", Name: "requests_total",
		Help: "Companion relay requests by result.",
	}, []string{"result"})
	m.relayModel = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "relay", Name: "model_seconds",
		Help: "Generative model call latency.", Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})
	m.dbQueries = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "db", Name: "query_seconds",
		Help: "Latency of instrumented database reads.",
	}, []string{"query"})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Name: "goroutines",
		Help: "Live goroutines.",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.totals.requests.Add(1)
	m.totals.requestNanos.Add(uint64(elapsed))
}

// RecordCacheOperation records a roster cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cacheRead.Observe(elapsed.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.totals.cacheHits.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.totals.cacheMisses.Add(1)
}

// ObserveCacheWrite records a roster cache write.
func (m *MetricsService) ObserveCacheWrite(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(elapsed.Seconds())
}

// RecordBookingOutcome counts a booking lifecycle result.
func (m *MetricsService) RecordBookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
	switch outcome {
	case BookingOutcomeCreated:
		m.totals.bookings.Add(1)
	case BookingOutcomeConflict:
		m.totals.conflicts.Add(1)
	}
}

// ObserveRelay records one relay invocation. model is zero when the model was never called.
func (m *MetricsService) ObserveRelay(result string, model time.Duration) {
	if m == nil {
		return
	}
	m.relayCalls.WithLabelValues(result).Inc()
	if model > 0 {
		m.relayModel.Observe(model.Seconds())
	}
	m.totals.relayCalls.Add(1)
	if result != RelayResultOK {
		m.totals.relayFailures.Add(1)
	}
}

// ObserveDBQuery records the latency of a named database read.
func (m *MetricsService) ObserveDBQuery(query string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(query).Observe(elapsed.Seconds())
	m.totals.dbQueries.Add(1)
	m.totals.dbNanos.Add(uint64(elapsed))
}

// Snapshot returns the running totals for the admin dashboard.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	snap := models.SystemMetrics{
		CacheHits:        m.totals.cacheHits.Load(),
		CacheMisses:      m.totals.cacheMisses.Load(),
		RequestsTotal:    m.totals.requests.Load(),
		BookingsCreated:  m.totals.bookings.Load(),
		BookingConflicts: m.totals.conflicts.Load(),
		RelayRequests:    m.totals.relayCalls.Load(),
		RelayFailures:    m.totals.relayFailures.Load(),
		DBQueryCount:     m.totals.dbQueries.Load(),
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
	if lookups := snap.CacheHits + snap.CacheMisses; lookups > 0 {
		snap.CacheHitRatio = float64(snap.CacheHits) / float64(lookups)
	}
	if snap.RequestsTotal > 0 {
		avg := time.Duration(m.totals.requestNanos.Load() / snap.RequestsTotal)
		snap.AverageRequestDurationMs = float64(avg) / float64(time.Millisecond)
	}
	if snap.DBQueryCount > 0 {
		avg := time.Duration(m.totals.dbNanos.Load() / snap.DBQueryCount)
		snap.AverageDBQueryDurationMs = float64(avg) / float64(time.Millisecond)
	}
	return snap
}
