package metrics

import (
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration not initialized")
	}
	if r.RunsTotal == nil {
		t.Error("RunsTotal not initialized")
	}
	if r.LogAppendsTotal == nil {
		t.Error("LogAppendsTotal not initialized")
	}
	if r.FanoutPublishedTotal == nil {
		t.Error("FanoutPublishedTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	// Record some requests
	r.RecordHTTPRequest("GET", "/api/logs", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/experiments", "202", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/logs", "200", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/logs", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordRunFinished(t *testing.T) {
	r := NewRegistry()

	r.RecordRunFinished("completed", 3*time.Second)
	r.RecordRunFinished("completed", 5*time.Second)
	r.RecordRunFinished("failed", time.Second)

	completed, err := r.RunsTotal.GetMetricWithLabelValues("completed")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := completed.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Completed counter = %v, want 2", metric.Counter.GetValue())
	}

	failed, err := r.RunsTotal.GetMetricWithLabelValues("failed")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	if err := failed.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Failed counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordRunRejection(t *testing.T) {
	r := NewRegistry()

	r.RecordRunRejection("busy")
	r.RecordRunRejection("busy")
	r.RecordRunRejection("missing_fields")

	busy, err := r.RunRejectionsTotal.GetMetricWithLabelValues("busy")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := busy.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Busy counter = %v, want 2", metric.Counter.GetValue())
	}
}

func TestUpdateRingMetrics(t *testing.T) {
	r := NewRegistry()

	r.UpdateRingMetrics(42, 7, 3)

	var metric dto.Metric
	if err := r.LogBufferEntries.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 42 {
		t.Errorf("LogBufferEntries = %v, want 42", metric.Gauge.GetValue())
	}

	if err := r.LogDroppedEntries.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 7 {
		t.Errorf("LogDroppedEntries = %v, want 7", metric.Gauge.GetValue())
	}

	if err := r.LogSubscribers.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 3 {
		t.Errorf("LogSubscribers = %v, want 3", metric.Gauge.GetValue())
	}
}

func TestRegistryGather(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/logs", "200", 10*time.Millisecond)
	r.RecordLogAppend()
	r.RecordFanoutPublish()
	r.RecordPlotRender("line", "svg")

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := map[string]bool{}
	for _, fam := range families {
		found[fam.GetName()] = true
	}

	for _, name := range []string{
		"benchdeck_http_requests_total",
		"benchdeck_log_appends_total",
		"benchdeck_fanout_published_total",
		"benchdeck_plots_rendered_total",
	} {
		if !found[name] {
			t.Errorf("Expected metric family %q in gather output", name)
		}
	}

	// Every exported family carries the project prefix
	for _, fam := range families {
		if !strings.HasPrefix(fam.GetName(), "benchdeck_") {
			t.Errorf("Metric %q missing benchdeck_ prefix", fam.GetName())
		}
	}
}
