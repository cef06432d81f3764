package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchdeck_runs_total",
			Help: "Total number of finished experiment runs by outcome",
		},
		[]string{"outcome"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchdeck_run_duration_seconds",
			Help:    "Wall-clock duration of finished experiment runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	r.RunsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "benchdeck_runs_active",
			Help: "Number of experiment runs currently executing",
		},
	)

	r.RunRejectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchdeck_run_rejections_total",
			Help: "Start requests rejected before spawning a process",
		},
		[]string{"reason"},
	)
}
