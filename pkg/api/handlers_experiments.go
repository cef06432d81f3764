package api

import (
	"errors"
	"net/http"

	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() { s.startExperiment(w, r) }).
		NotAllowed()
}

// startExperiment validates the five fields and hands off to the
// supervisor. The supervisor writes the terminal lines; this handler only
// maps its verdict to a status code.
func (s *Server) startExperiment(w http.ResponseWriter, r *http.Request) {
	var req ExperimentRequest
	if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}

	params := config.ExperimentConfig{
		Dataset:       req.Dataset,
		Query:         req.Query,
		Heterogeneity: req.Heterogeneity,
		Topology:      req.Topology,
		Nodes:         req.Nodes,
	}

	runID, err := s.supervisor.Start(params)
	switch {
	case errors.Is(err, runner.ErrMissingFields):
		s.metricsRegistry.RecordRunRejection("missing_fields")
		s.respondError(w, http.StatusBadRequest, "All fields are required to start an experiment.")
		return
	case errors.Is(err, runner.ErrBusy):
		s.metricsRegistry.RecordRunRejection("busy")
		s.respondError(w, http.StatusConflict, "Another experiment is already running.")
		return
	case errors.Is(err, runner.ErrShutdown):
		s.respondError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusAccepted, StartResponse{
		RunID:   runID,
		Message: "Starting experiment...",
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.listRuns(w, r) }).
		NotAllowed()
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.supervisor.Runs()
	if state := r.URL.Query().Get("state"); state != "" {
		filtered := runs[:0]
		for _, run := range runs {
			if string(run.State) == state {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}
	s.respondJSON(w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs)})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.getRun(w, r) }).
		NotAllowed()
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.NewPathExtractor(w, r).Extract("/api/runs/")
	if !ok {
		return
	}

	run, err := s.supervisor.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}
