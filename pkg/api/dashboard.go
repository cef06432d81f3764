package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/topology"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// dashboardView carries the few server-side values the page is rendered
// with; everything else the page fetches from the API.
type dashboardView struct {
	PollMs       int64
	DefaultNodes int
	AuthEnabled  bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// The root pattern catches every unregistered path.
	if r.URL.Path != "/" {
		s.respondError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	view := dashboardView{
		PollMs:       s.cfg.PollInterval.Milliseconds(),
		DefaultNodes: topology.DefaultNodeCount,
		AuthEnabled:  s.authService.Enabled(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "dashboard.html", view); err != nil {
		s.logger.Error("rendering dashboard", logging.Error(err))
	}
}
