// Command runbench is the external benchmark process the panel launches.
// It prints its parameters, simulates the distributed run with
// deterministic per-node timings, writes a results CSV next to the other
// results, and exits. The panel only ever sees its stdout.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"math/bits"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benchdeck/benchdeck/pkg/results"
)

const rounds = 3

type benchParams struct {
	Dataset       string
	Query         string
	Heterogeneity string
	Topology      string
	Nodes         int
}

func main() {
	dataset := flag.String("dataset", "", "Specify the dataset to use")
	query := flag.String("query", "", "Specify the query to run")
	heterogeneity := flag.String("heterogeneity", "", "Specify the hardware heterogeneity")
	topology := flag.String("topology", "", "Specify the network topology")
	nodes := flag.Int("nodes", 0, "Specify the number of nodes")
	out := flag.String("out", "results", "Directory the results CSV is written to")
	sleep := flag.Duration("sleep", 200*time.Millisecond, "Pause per simulated round")
	flag.Parse()

	params := benchParams{
		Dataset:       *dataset,
		Query:         *query,
		Heterogeneity: *heterogeneity,
		Topology:      *topology,
		Nodes:         *nodes,
	}
	if missing := params.missing(); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "runbench: required flags missing: %s\n",
			strings.Join(missing, ", "))
		flag.Usage()
		os.Exit(2)
	}

	if err := runBenchmark(os.Stdout, params, *out, *sleep); err != nil {
		fmt.Fprintf(os.Stderr, "runbench: %v\n", err)
		os.Exit(1)
	}
}

func (p benchParams) missing() []string {
	var missing []string
	if p.Dataset == "" {
		missing = append(missing, "--dataset")
	}
	if p.Query == "" {
		missing = append(missing, "--query")
	}
	if p.Heterogeneity == "" {
		missing = append(missing, "--heterogeneity")
	}
	if p.Topology == "" {
		missing = append(missing, "--topology")
	}
	if p.Nodes <= 0 {
		missing = append(missing, "--nodes")
	}
	return missing
}

// runBenchmark prints the run transcript to w and writes the results CSV
// into outDir. The wording of the fixed lines is load-bearing: the panel
// shows them verbatim and older transcripts are compared against them.
func runBenchmark(w io.Writer, params benchParams, outDir string, sleep time.Duration) error {
	fmt.Fprintln(w, "Starting Experiment...")
	fmt.Fprintln(w, "Running Benchmark with the following parameters:")
	fmt.Fprintf(w, "Data Set: %s\n", params.Dataset)
	fmt.Fprintf(w, "Query: %s\n", params.Query)
	fmt.Fprintf(w, "Hardware Heterogeneity: %s\n", params.Heterogeneity)
	fmt.Fprintf(w, "Network Topology: %s\n", params.Topology)
	fmt.Fprintf(w, "Number of Nodes: %d\n", params.Nodes)

	seed := params.seed()
	table := make([][2]int, 0, rounds)
	for round := 1; round <= rounds; round++ {
		slowest := 0
		for node := 0; node < params.Nodes; node++ {
			ms := params.latencyMS(seed, node, round)
			fmt.Fprintf(w, "Round %d: node %d completed in %d ms\n", round, node, ms)
			if ms > slowest {
				slowest = ms
			}
		}
		// The slowest node gates the round.
		table = append(table, [2]int{round, slowest})
		time.Sleep(sleep)
	}

	fmt.Fprintln(w, "Experiment Completed! Results will be saved to a CSV file.")

	path, err := writeResults(outDir, table)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Experiment results appended to %s\n", path)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	return nil
}

// seed folds the experiment parameters into a hash so the same experiment
// always simulates the same timings.
func (p benchParams) seed() uint64 {
	h := fnv.New64a()
	for _, s := range []string{p.Dataset, p.Query, p.Heterogeneity, p.Topology,
		strconv.Itoa(p.Nodes)} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// latencyMS derives one node's simulated round latency. Base cost grows
// with the topology's hop count; heterogeneous clusters spread wider, so
// their slow nodes drag rounds out further.
func (p benchParams) latencyMS(seed uint64, node, round int) int {
	spread := uint64(60)
	if p.Heterogeneity == "heterogeneous" {
		spread = 180
	}

	h := seed + uint64(node)*31 + uint64(round)*131
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33

	return 20*p.hops() + int(h%spread) + 40
}

// hops is the worst-case message path length in the chosen topology.
func (p benchParams) hops() int {
	switch p.Topology {
	case "mesh":
		return 1
	case "star":
		return 2
	default: // tree, twice the height of a complete binary tree
		return 2 * (bits.Len(uint(p.Nodes)) - 1)
	}
}

// writeResults allocates a collision-free CSV in dir and fills it with the
// per-round table.
func writeResults(dir string, table [][2]int) (string, error) {
	path, err := results.Allocate(dir, time.Now())
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write results file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"round", "elapsed_ms"}); err != nil {
		return "", err
	}
	for _, row := range table {
		record := []string{strconv.Itoa(row[0]), strconv.Itoa(row[1])}
		if err := cw.Write(record); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("write results file: %w", err)
	}
	return path, nil
}
