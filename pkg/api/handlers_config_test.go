package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benchdeck/benchdeck/pkg/config"
)

func TestSaveConfig(t *testing.T) {
	server := setupTestServer(t)

	rr := postJSON(t, server.Handler(), "/api/config", validExperiment())
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var resp ConfigSaveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Filename == "" {
		t.Fatal("Expected a filename")
	}
	if resp.Message != "Configuration saved to "+resp.Filename {
		t.Errorf("Message = %q", resp.Message)
	}

	// The file really exists and round-trips.
	path := filepath.Join(server.cfg.ConfigsPath(), resp.Filename)
	loaded, err := config.LoadExperiment(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Dataset != "ldbc" || loaded.Nodes != 7 {
		t.Errorf("Saved config = %+v", loaded)
	}

	if !strings.Contains(server.ring.Text(), "Configuration saved to") {
		t.Error("Expected the save line in the log ring")
	}
	t.Logf("✓ Config saved as %s", resp.Filename)
}

// A save failure stays a 200: the error goes to the terminal and the
// response message, the way the panel has always reported it.
func TestSaveConfigFailure(t *testing.T) {
	server := setupTestServerWith(t, func(cfg *config.ServerConfig) {
		blocker := filepath.Join(cfg.DataDir, "blocked")
		if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
			t.Fatalf("Failed to write blocker: %v", err)
		}
		cfg.ConfigsDir = "blocked/configs"
	})

	rr := postJSON(t, server.Handler(), "/api/config", validExperiment())
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rr.Code)
	}

	var resp ConfigSaveResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Message, "Error saving configuration:") {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.Filename != "" {
		t.Errorf("Filename = %q, want empty", resp.Filename)
	}
	if !strings.Contains(server.ring.Text(), "Error saving configuration:") {
		t.Error("Expected the error line in the log ring")
	}
}

func TestLoadConfig(t *testing.T) {
	server := setupTestServer(t)

	upload := strings.Join([]string{
		`"Data Set": ldbc`,
		`"Query": pagerank`,
		`"Hardware Heterogeneity": heterogeneous`,
		`"Network Topology": mesh`,
		`"Number of Nodes": 5`,
	}, "\n")

	req := httptest.NewRequest(http.MethodPost, "/api/config/load", bytes.NewReader([]byte(upload)))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}

	var resp ConfigLoadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message != "Configuration loaded successfully." {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.Dataset != "ldbc" || resp.Query != "pagerank" || resp.Nodes != 5 {
		t.Errorf("Fields = %+v", resp)
	}
	if resp.Heterogeneity != "heterogeneous" || resp.Topology != "mesh" {
		t.Errorf("Fields = %+v", resp)
	}
	t.Logf("✓ Uploaded config filled the form fields")
}

// Invalid YAML resets the form: empty fields, error message, log line.
func TestLoadConfigInvalid(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/config/load",
		bytes.NewReader([]byte("{{{ not yaml")))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rr.Code)
	}

	var resp ConfigLoadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Message, "Error loading configuration:") {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.Dataset != "" || resp.Query != "" || resp.Nodes != 0 {
		t.Errorf("Fields should be empty, got %+v", resp)
	}
	if !strings.Contains(server.ring.Text(), "Error loading configuration:") {
		t.Error("Expected the error line in the log ring")
	}
}

func TestListConfigs(t *testing.T) {
	server := setupTestServer(t)
	handler := server.Handler()

	// Empty dir comes back as an empty list, not null.
	req := httptest.NewRequest(http.MethodGet, "/api/configs", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d", rr.Code)
	}
	var resp ConfigListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 0 || resp.Files == nil {
		t.Errorf("Empty list = %+v", resp)
	}

	postJSON(t, handler, "/api/config", validExperiment())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/configs", nil))
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Files) != 1 {
		t.Fatalf("Count = %d, want 1", resp.Count)
	}
	if !strings.HasPrefix(resp.Files[0], "experiment_config_") {
		t.Errorf("Filename = %q", resp.Files[0])
	}
}
