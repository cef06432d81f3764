// Package metrics collects the Prometheus metrics the panel server exposes
// on /metrics. All metrics live in one Registry so tests can assert against
// an isolated instance.
package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordRunFinished records a run reaching a terminal state. The outcome is
// the run's state name (completed, failed or error).
func (r *Registry) RecordRunFinished(outcome string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordRunRejection records a start request refused before spawning.
func (r *Registry) RecordRunRejection(reason string) {
	r.RunRejectionsTotal.WithLabelValues(reason).Inc()
}

// SetRunsActive mirrors the supervisor's active run count.
func (r *Registry) SetRunsActive(n int) {
	r.RunsActive.Set(float64(n))
}

// RecordLogAppend counts one line entering the log ring.
func (r *Registry) RecordLogAppend() {
	r.LogAppendsTotal.Inc()
}

// UpdateRingMetrics mirrors the ring's current occupancy counters.
func (r *Registry) UpdateRingMetrics(entries int, dropped uint64, subscribers int) {
	r.LogBufferEntries.Set(float64(entries))
	r.LogDroppedEntries.Set(float64(dropped))
	r.LogSubscribers.Set(float64(subscribers))
}

// RecordFanoutPublish counts one entry sent on the fanout socket.
func (r *Registry) RecordFanoutPublish() {
	r.FanoutPublishedTotal.Inc()
}

// RecordFanoutDrop counts one entry lost to a full fanout buffer.
func (r *Registry) RecordFanoutDrop() {
	r.FanoutDroppedTotal.Inc()
}

// RecordFanoutSendError counts one failed socket send.
func (r *Registry) RecordFanoutSendError() {
	r.FanoutSendErrorsTotal.Inc()
}

// RecordHistorySave records a history insert attempt.
func (r *Registry) RecordHistorySave(status string) {
	r.HistorySavesTotal.WithLabelValues(status).Inc()
}

// RecordArchiveUpload records an archive upload attempt.
func (r *Registry) RecordArchiveUpload(status string) {
	r.ArchiveUploadsTotal.WithLabelValues(status).Inc()
}

// RecordPlotRender records one rendered result plot.
func (r *Registry) RecordPlotRender(style, format string) {
	r.PlotsRenderedTotal.WithLabelValues(style, format).Inc()
}
