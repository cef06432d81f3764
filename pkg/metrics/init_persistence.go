package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPersistenceMetrics() {
	r.HistorySavesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchdeck_history_saves_total",
			Help: "Run history inserts by status",
		},
		[]string{"status"},
	)

	r.ArchiveUploadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchdeck_archive_uploads_total",
			Help: "Artifact archive uploads by status",
		},
		[]string{"status"},
	)

	r.PlotsRenderedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchdeck_plots_rendered_total",
			Help: "Result plots rendered by style and format",
		},
		[]string{"style", "format"},
	)
}
