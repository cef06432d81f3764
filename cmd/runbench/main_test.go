package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TestMissingFlags tests the required-flag check
func TestMissingFlags(t *testing.T) {
	params := benchParams{}
	missing := params.missing()
	if len(missing) != 5 {
		t.Errorf("Expected 5 missing flags, got %d: %v", len(missing), missing)
	}

	params = benchParams{
		Dataset:       "ldbc",
		Query:         "bfs",
		Heterogeneity: "homogeneous",
		Topology:      "tree",
		Nodes:         7,
	}
	if missing := params.missing(); len(missing) != 0 {
		t.Errorf("Expected no missing flags, got %v", missing)
	}

	// Zero and negative node counts both count as unset.
	params.Nodes = -2
	missing = params.missing()
	if len(missing) != 1 || missing[0] != "--nodes" {
		t.Errorf("Expected [--nodes], got %v", missing)
	}
}

// TestLatencyDeterministic tests that the same parameters always simulate
// the same timings
func TestLatencyDeterministic(t *testing.T) {
	params := benchParams{
		Dataset:       "ldbc",
		Query:         "pagerank",
		Heterogeneity: "heterogeneous",
		Topology:      "mesh",
		Nodes:         5,
	}
	seed := params.seed()
	for node := 0; node < params.Nodes; node++ {
		a := params.latencyMS(seed, node, 1)
		b := params.latencyMS(seed, node, 1)
		if a != b {
			t.Errorf("Node %d latency not deterministic: %d vs %d", node, a, b)
		}
		if a <= 0 {
			t.Errorf("Node %d latency not positive: %d", node, a)
		}
	}

	other := params
	other.Query = "bfs"
	if other.seed() == params.seed() {
		t.Error("Expected different parameters to produce a different seed")
	}

	t.Logf("✓ Simulated latencies are deterministic per parameter set")
}

// TestHops tests the topology hop counts
func TestHops(t *testing.T) {
	tests := []struct {
		topology string
		nodes    int
		want     int
	}{
		{"mesh", 7, 1},
		{"star", 7, 2},
		{"tree", 7, 4},
		{"tree", 1, 0},
		{"ring", 7, 4}, // unknown topologies fall back to tree
	}

	for _, tt := range tests {
		p := benchParams{Topology: tt.topology, Nodes: tt.nodes}
		if got := p.hops(); got != tt.want {
			t.Errorf("hops(%s, %d nodes) = %d, want %d", tt.topology, tt.nodes, got, tt.want)
		}
	}
}

// TestRunBenchmark tests the full transcript and the CSV it writes
func TestRunBenchmark(t *testing.T) {
	dir := t.TempDir()
	params := benchParams{
		Dataset:       "ldbc",
		Query:         "bfs",
		Heterogeneity: "homogeneous",
		Topology:      "star",
		Nodes:         3,
	}

	var buf bytes.Buffer
	if err := runBenchmark(&buf, params, dir, 0); err != nil {
		t.Fatalf("runBenchmark failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Starting Experiment...",
		"Running Benchmark with the following parameters:",
		"Data Set: ldbc",
		"Query: bfs",
		"Hardware Heterogeneity: homogeneous",
		"Network Topology: star",
		"Number of Nodes: 3",
		"Experiment Completed! Results will be saved to a CSV file.",
		"Experiment results appended to ",
		strings.Repeat("-", 50),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Transcript missing %q", want)
		}
	}

	// One progress line per node per round.
	progress := strings.Count(out, " completed in ")
	if progress != rounds*params.Nodes {
		t.Errorf("Expected %d progress lines, got %d", rounds*params.Nodes, progress)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read results dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 results file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "experiment_results_") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("Unexpected results file name %q", name)
	}
	if !strings.Contains(out, "Experiment results appended to "+filepath.Join(dir, name)) {
		t.Errorf("Transcript does not name the results file %q", name)
	}

	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to open results file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse results CSV: %v", err)
	}
	if len(records) != rounds+1 {
		t.Fatalf("Expected header plus %d rows, got %d records", rounds, len(records))
	}
	if records[0][0] != "round" || records[0][1] != "elapsed_ms" {
		t.Errorf("Unexpected CSV header %v", records[0])
	}
	for i, record := range records[1:] {
		if record[0] != strconv.Itoa(i+1) {
			t.Errorf("Row %d: expected round %d, got %s", i, i+1, record[0])
		}
		ms, err := strconv.Atoi(record[1])
		if err != nil || ms <= 0 {
			t.Errorf("Row %d: elapsed_ms not a positive integer: %q", i, record[1])
		}
	}

	t.Logf("✓ Benchmark transcript and CSV written correctly")
}

// TestRunBenchmarkCollisionSuffix tests that a second run in the same
// minute gets a numbered file name
func TestRunBenchmarkCollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	params := benchParams{
		Dataset:       "ldbc",
		Query:         "bfs",
		Heterogeneity: "homogeneous",
		Topology:      "mesh",
		Nodes:         2,
	}

	for i := 0; i < 2; i++ {
		var buf bytes.Buffer
		if err := runBenchmark(&buf, params, dir, 0); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read results dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 results files, got %d", len(entries))
	}

	var suffixed bool
	for _, e := range entries {
		if strings.Contains(e.Name(), " (1).csv") {
			suffixed = true
		}
	}
	if !suffixed {
		t.Error("Expected the second file to carry a (1) suffix")
	}
}
