package api

import (
	"github.com/benchdeck/benchdeck/pkg/history"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/results"
	"github.com/benchdeck/benchdeck/pkg/runner"
	"github.com/benchdeck/benchdeck/pkg/topology"
)

// API Request/Response Types

// ExperimentRequest carries the five form fields for a start request.
type ExperimentRequest struct {
	Dataset       string `json:"dataset"`
	Query         string `json:"query"`
	Heterogeneity string `json:"heterogeneity"`
	Topology      string `json:"topology"`
	Nodes         int    `json:"nodes"`
}

// StartResponse acknowledges an accepted experiment.
type StartResponse struct {
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// RunsResponse lists known runs, newest first.
type RunsResponse struct {
	Runs  []runner.RunInfo `json:"runs"`
	Count int              `json:"count"`
}

// LogsResponse is the terminal buffer snapshot the dashboard polls for.
// A full poll carries Text; an incremental poll (?after=seq) carries the
// new entries instead so clients can append rather than replace.
type LogsResponse struct {
	Text    string          `json:"text,omitempty"`
	Entries []logring.Entry `json:"entries,omitempty"`
	LastSeq uint64          `json:"last_seq"`
	Dropped uint64          `json:"dropped,omitempty"`
}

// MessageResponse is a bare status line, mirroring what the terminal shows.
type MessageResponse struct {
	Message string `json:"message"`
}

// ConfigSaveResponse reports the outcome of a save. The message wording is
// what the terminal log shows and what older transcripts contain.
type ConfigSaveResponse struct {
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message"`
}

// ConfigLoadResponse returns the parsed form fields. On a parse failure the
// fields are empty and Message carries the error line, so the form resets.
type ConfigLoadResponse struct {
	Dataset       string `json:"dataset"`
	Query         string `json:"query"`
	Heterogeneity string `json:"heterogeneity"`
	Topology      string `json:"topology"`
	Nodes         int    `json:"nodes"`
	Message       string `json:"message"`
}

// ConfigListResponse lists saved configuration files, newest first.
type ConfigListResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// ResultsListResponse lists result CSVs, newest first.
type ResultsListResponse struct {
	Files []results.File `json:"files"`
	Count int            `json:"count"`
}

// TopologyResponse is the rendered tree for the graph view.
type TopologyResponse struct {
	NodeCount int                          `json:"node_count"`
	Expanded  []int                        `json:"expanded"`
	Elements  []topology.Element           `json:"elements"`
	Positions map[string]topology.Position `json:"positions"`
}

// HistoryListResponse lists persisted runs, newest first.
type HistoryListResponse struct {
	Runs  []*history.Record `json:"runs"`
	Count int               `json:"count"`
}

// SessionRequest is a login attempt against the optional auth layer.
type SessionRequest struct {
	Password string `json:"password"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
