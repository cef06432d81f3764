package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFanoutMetrics() {
	r.FanoutPublishedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "benchdeck_fanout_published_total",
			Help: "Log entries published on the fanout socket",
		},
	)

	r.FanoutDroppedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "benchdeck_fanout_dropped_total",
			Help: "Log entries dropped because the fanout buffer was full",
		},
	)

	r.FanoutSendErrorsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "benchdeck_fanout_send_errors_total",
			Help: "Socket send failures while publishing log entries",
		},
	)
}
