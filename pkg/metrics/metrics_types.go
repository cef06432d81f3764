package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Run Metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	RunsActive         prometheus.Gauge
	RunRejectionsTotal *prometheus.CounterVec

	// Log Ring Metrics
	LogAppendsTotal   prometheus.Counter
	LogBufferEntries  prometheus.Gauge
	LogDroppedEntries prometheus.Gauge
	LogSubscribers    prometheus.Gauge

	// Fanout Metrics
	FanoutPublishedTotal  prometheus.Counter
	FanoutDroppedTotal    prometheus.Counter
	FanoutSendErrorsTotal prometheus.Counter

	// Persistence Metrics
	HistorySavesTotal   *prometheus.CounterVec
	ArchiveUploadsTotal *prometheus.CounterVec
	PlotsRenderedTotal  *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initHTTPMetrics()
	r.initRunMetrics()
	r.initLogRingMetrics()
	r.initFanoutMetrics()
	r.initPersistenceMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler returns the Prometheus exposition handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
