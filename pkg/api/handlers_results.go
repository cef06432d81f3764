package api

import (
	"errors"
	"net/http"

	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/results"
)

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.listResults(w, r) }).
		NotAllowed()
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	files, err := s.resultsDir.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not list results")
		return
	}
	if files == nil {
		files = []results.File{}
	}
	s.respondJSON(w, http.StatusOK, ResultsListResponse{Files: files, Count: len(files)})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.getResult(w, r) }).
		NotAllowed()
}

// getResult serves one CSV, either parsed ("/api/results/{name}") or
// rendered ("/api/results/{name}/plot").
func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	name, rest, ok := s.NewPathExtractor(w, r).Extract("/api/results/")
	if !ok {
		return
	}

	switch rest {
	case "":
		s.readResult(w, name)
	case "plot":
		s.plotResult(w, r, name)
	default:
		s.respondError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) readResult(w http.ResponseWriter, name string) {
	table, err := s.resultsDir.Read(name)
	if errors.Is(err, results.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Result file not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not read result file")
		return
	}
	s.respondJSON(w, http.StatusOK, table)
}

// plotResult renders the first two columns of the CSV as a chart. Style
// and format come from query parameters; both have defaults.
func (s *Server) plotResult(w http.ResponseWriter, r *http.Request, name string) {
	q := r.URL.Query()

	style, err := results.ParseStyle(q.Get("style"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	if format != "svg" && format != "png" {
		s.respondError(w, http.StatusBadRequest, "Unknown plot format")
		return
	}

	table, err := s.resultsDir.Read(name)
	if errors.Is(err, results.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Result file not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not read result file")
		return
	}

	plot, err := results.BuildPlot(table, style)
	if errors.Is(err, results.ErrTooFewColumns) {
		s.ring.Append("", err.Error())
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not build plot")
		return
	}

	switch format {
	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		err = results.RenderSVG(w, plot)
	case "png":
		w.Header().Set("Content-Type", "image/png")
		err = results.RenderPNG(w, plot)
	}
	if err != nil {
		// Headers are gone; all we can do is log it.
		s.logger.Error("rendering plot",
			logging.Path(name),
			logging.String("format", format),
			logging.Error(err))
		return
	}

	s.metricsRegistry.RecordPlotRender(string(style), format)
}
