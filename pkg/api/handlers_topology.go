package api

import (
	"net/http"

	"github.com/benchdeck/benchdeck/pkg/topology"
)

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.getTopology(w, r) }).
		NotAllowed()
}

// getTopology renders the tree for the graph view. Node count and the
// expanded set both arrive as query parameters; bad or absent values fall
// back to the defaults rather than erroring, the way the form does.
func (s *Server) getTopology(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	nodeCount := topology.ParseNodeCount(q.Get("nodes"))
	expanded := topology.ParseSet(q.Get("expanded"))

	elements := topology.BuildElements(nodeCount, expanded)
	layout := topology.NewBreadthFirstLayout(topology.DefaultLayoutConfig())

	s.respondJSON(w, http.StatusOK, TopologyResponse{
		NodeCount: nodeCount,
		Expanded:  expanded.IDs(),
		Elements:  elements,
		Positions: layout.ComputeLayout(elements),
	})
}
