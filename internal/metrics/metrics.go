// Package metrics exposes Prometheus metrics for layout passes, feed
// refreshes and the HTTP API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dayview/internal/layout"
)

const namespace = "dayview"

// Manager owns the service metrics. A nil *Manager is valid and records
// nothing.
type Manager struct {
	registry *prometheus.Registry

	layoutPasses   *prometheus.CounterVec
	layoutErrors   *prometheus.CounterVec
	layoutDuration prometheus.Histogram
	packedPerPass  prometheus.Histogram

	refreshes         *prometheus.CounterVec
	snapshotSize      prometheus.Gauge
	snapshotUpdatedAt prometheus.Gauge

	httpRequests *prometheus.CounterVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry registers metrics on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager creates and registers all metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.layoutPasses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "layout",
		Name:      "passes_total",
		Help:      "Layout passes by kind (day, pack, partition).",
	}, []string{"kind"})
	m.layoutErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "layout",
		Name:      "errors_total",
		Help:      "Rejected layout passes by error kind.",
	}, []string{"reason"})
	m.layoutDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "layout",
		Name:      "duration_seconds",
		Help:      "Time spent laying out one day.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
	m.packedPerPass = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "layout",
		Name:      "occurrences_per_pass",
		Help:      "Occurrences packed in one day layout.",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})

	m.refreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "refreshes_total",
		Help:      "Feed refreshes by outcome (ok, partial, failed).",
	}, []string{"outcome"})
	m.snapshotSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "snapshot_occurrences",
		Help:      "Occurrences held in the current snapshot.",
	})
	m.snapshotUpdatedAt = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "snapshot_updated_timestamp_seconds",
		Help:      "Unix time of the last snapshot swap.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	return m
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLayout records one day layout pass.
func (m *Manager) ObserveLayout(kind string, took time.Duration, packed int, err error) {
	if m == nil {
		return
	}
	m.layoutPasses.WithLabelValues(kind).Inc()
	if err != nil {
		m.layoutErrors.WithLabelValues(LayoutErrorReason(err)).Inc()
		return
	}
	m.layoutDuration.Observe(took.Seconds())
	m.packedPerPass.Observe(float64(packed))
}

// ObserveRefresh records a feed refresh. size is the snapshot size after
// the refresh.
func (m *Manager) ObserveRefresh(outcome string, size int) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.snapshotSize.Set(float64(size))
	if outcome != "failed" {
		m.snapshotUpdatedAt.SetToCurrentTime()
	}
}

// ObserveRequest records one HTTP response.
func (m *Manager) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// LayoutErrorReason maps layout sentinel errors to a metric label.
func LayoutErrorReason(err error) string {
	switch {
	case errors.Is(err, layout.ErrInvalidGeometry):
		return "invalid_geometry"
	case errors.Is(err, layout.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, layout.ErrMalformedOccurrence):
		return "malformed_occurrence"
	default:
		return "other"
	}
}
