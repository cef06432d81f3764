package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/benchdeck/benchdeck/pkg/history"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.listHistory(w, r) }).
		NotAllowed()
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "History store not available")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	records, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not list history")
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	s.respondJSON(w, http.StatusOK, HistoryListResponse{Runs: records, Count: len(records)})
}

func (s *Server) handleHistoryRun(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.getHistoryRun(w, r) }).
		NotAllowed()
}

// getHistoryRun serves one archived run ("/api/history/{id}") or its
// captured log ("/api/history/{id}/log").
func (s *Server) getHistoryRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "History store not available")
		return
	}

	id, rest, ok := s.NewPathExtractor(w, r).Extract("/api/history/")
	if !ok {
		return
	}

	switch rest {
	case "":
		rec, err := s.store.GetRun(r.Context(), id)
		if errors.Is(err, history.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "Could not read history")
			return
		}
		s.respondJSON(w, http.StatusOK, rec)
	case "log":
		logText, err := s.store.GetRunLog(r.Context(), id)
		if errors.Is(err, history.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "Could not read history log")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(logText)
	default:
		s.respondError(w, http.StatusNotFound, "Not found")
	}
}
