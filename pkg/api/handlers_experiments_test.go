package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

// waitTerminal polls the supervisor until the run finishes.
func waitTerminal(t *testing.T, server *Server, runID string) runner.RunInfo {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		info, err := server.supervisor.Get(runID)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", runID, err)
		}
		if info.State.Terminal() {
			return info
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Run %s did not finish in time", runID)
	return runner.RunInfo{}
}

func TestStartExperiment(t *testing.T) {
	server := setupTestServer(t)

	rr := postJSON(t, server.Handler(), "/api/experiments", validExperiment())
	if rr.Code != http.StatusAccepted {
		t.Fatalf("Status = %d, want 202, body: %s", rr.Code, rr.Body.String())
	}

	var resp StartResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RunID == "" {
		t.Error("Expected a run ID")
	}
	if resp.Message != "Starting experiment..." {
		t.Errorf("Message = %q", resp.Message)
	}

	info := waitTerminal(t, server, resp.RunID)
	if info.State != runner.StateCompleted {
		t.Errorf("State = %s, want completed, error: %s", info.State, info.Error)
	}
	t.Logf("✓ Experiment %s accepted and completed", resp.RunID)
}

func TestStartExperimentMissingFields(t *testing.T) {
	server := setupTestServer(t)

	req := validExperiment()
	req.Query = ""
	rr := postJSON(t, server.Handler(), "/api/experiments", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", rr.Code)
	}

	resp := decodeError(t, rr)
	if resp.Message != "All fields are required to start an experiment." {
		t.Errorf("Message = %q", resp.Message)
	}

	// The rejection also lands in the terminal buffer.
	if !strings.Contains(server.ring.Text(), "All fields are required") {
		t.Error("Expected the rejection in the log ring")
	}
	t.Logf("✓ Missing fields rejected with the panel message")
}

func TestStartExperimentBusy(t *testing.T) {
	script := writeScript(t, "sleep 5")
	server := setupTestServerWith(t, func(cfg *config.ServerConfig) {
		cfg.Benchmark.Command = script
	})
	handler := server.Handler()

	rr := postJSON(t, handler, "/api/experiments", validExperiment())
	if rr.Code != http.StatusAccepted {
		t.Fatalf("First start = %d, body: %s", rr.Code, rr.Body.String())
	}

	rr = postJSON(t, handler, "/api/experiments", validExperiment())
	if rr.Code != http.StatusConflict {
		t.Fatalf("Second start = %d, want 409", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Message != "Another experiment is already running." {
		t.Errorf("Message = %q", resp.Message)
	}
	t.Logf("✓ Concurrent start rejected with 409")
}

func TestStartExperimentBadJSON(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/experiments", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rr.Code)
	}
}

func TestExperimentsMethodNotAllowed(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/experiments", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", rr.Code)
	}
}

func TestListRuns(t *testing.T) {
	server := setupTestServer(t)
	handler := server.Handler()

	rr := postJSON(t, handler, "/api/experiments", validExperiment())
	var started StartResponse
	if err := json.NewDecoder(rr.Body).Decode(&started); err != nil {
		t.Fatalf("Failed to decode start response: %v", err)
	}
	waitTerminal(t, server, started.RunID)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}

	var resp RunsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Runs) != 1 {
		t.Fatalf("Count = %d, runs = %d, want 1", resp.Count, len(resp.Runs))
	}
	if resp.Runs[0].ID != started.RunID {
		t.Errorf("Run ID = %s, want %s", resp.Runs[0].ID, started.RunID)
	}

	// The state filter can empty the list.
	req = httptest.NewRequest(http.MethodGet, "/api/runs?state=running", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode filtered response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("Filtered count = %d, want 0", resp.Count)
	}
}

func TestGetRun(t *testing.T) {
	server := setupTestServer(t)
	handler := server.Handler()

	rr := postJSON(t, handler, "/api/experiments", validExperiment())
	var started StartResponse
	if err := json.NewDecoder(rr.Body).Decode(&started); err != nil {
		t.Fatalf("Failed to decode start response: %v", err)
	}
	waitTerminal(t, server, started.RunID)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+started.RunID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var info runner.RunInfo
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode run: %v", err)
	}
	if info.ID != started.RunID {
		t.Errorf("ID = %s, want %s", info.ID, started.RunID)
	}
	if info.Params.Dataset != "ldbc" {
		t.Errorf("Dataset = %s, want ldbc", info.Params.Dataset)
	}
}

func TestGetRunNotFound(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-00000000", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Message != "Run not found" {
		t.Errorf("Message = %q", resp.Message)
	}
}
