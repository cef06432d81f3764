package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/benchdeck/benchdeck/pkg/config"
)

func (s *Server) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() { s.saveConfig(w, r) }).
		NotAllowed()
}

// saveConfig writes the submitted fields as a YAML file. A failed save is
// reported in the terminal log and the response message, not as an HTTP
// error; the form itself did nothing wrong.
func (s *Server) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req ExperimentRequest
	if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}

	cfg := config.ExperimentConfig{
		Dataset:       req.Dataset,
		Query:         req.Query,
		Heterogeneity: req.Heterogeneity,
		Topology:      req.Topology,
		Nodes:         req.Nodes,
	}

	filename, err := cfg.Save(s.cfg.ConfigsPath())
	if err != nil {
		message := fmt.Sprintf("Error saving configuration: %v", err)
		s.ring.Append("", message)
		s.respondJSON(w, http.StatusOK, ConfigSaveResponse{Message: message})
		return
	}

	message := fmt.Sprintf("Configuration saved to %s", filename)
	s.ring.Append("", message)
	s.respondJSON(w, http.StatusOK, ConfigSaveResponse{
		Filename: filename,
		Message:  message,
	})
}

func (s *Server) handleConfigLoad(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() { s.loadConfig(w, r) }).
		NotAllowed()
}

// loadConfig parses an uploaded YAML body into form fields. A parse
// failure logs the error line and returns empty fields so the form resets,
// matching the panel's long-standing behavior.
func (s *Server) loadConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Could not read upload")
		return
	}

	cfg, err := config.ParseExperiment(body)
	if err != nil {
		message := fmt.Sprintf("Error loading configuration: %v", err)
		s.ring.Append("", message)
		s.respondJSON(w, http.StatusOK, ConfigLoadResponse{Message: message})
		return
	}

	message := "Configuration loaded successfully."
	s.ring.Append("", message)
	s.respondJSON(w, http.StatusOK, ConfigLoadResponse{
		Dataset:       cfg.Dataset,
		Query:         cfg.Query,
		Heterogeneity: cfg.Heterogeneity,
		Topology:      cfg.Topology,
		Nodes:         cfg.Nodes,
		Message:       message,
	})
}

func (s *Server) handleConfigList(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.listConfigs(w, r) }).
		NotAllowed()
}

func (s *Server) listConfigs(w http.ResponseWriter, r *http.Request) {
	files, err := config.ListSaved(s.cfg.ConfigsPath())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not list configurations")
		return
	}
	if files == nil {
		files = []string{}
	}
	s.respondJSON(w, http.StatusOK, ConfigListResponse{Files: files, Count: len(files)})
}
