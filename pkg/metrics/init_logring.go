package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLogRingMetrics() {
	r.LogAppendsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "benchdeck_log_appends_total",
			Help: "Total number of lines appended to the log ring",
		},
	)

	r.LogBufferEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "benchdeck_log_buffer_entries",
			Help: "Number of entries currently held in the log ring",
		},
	)

	r.LogDroppedEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "benchdeck_log_dropped_entries",
			Help: "Total entries evicted from the log ring since start",
		},
	)

	r.LogSubscribers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "benchdeck_log_subscribers",
			Help: "Number of live log stream subscriptions",
		},
	)
}
