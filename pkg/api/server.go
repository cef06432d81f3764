// Package api is the HTTP face of the panel: the embedded dashboard page,
// the JSON API the page polls, the GraphQL endpoint, and the health and
// metrics surfaces. Handlers stay thin; run lifecycle lives in runner,
// persistence in history, rendering in results.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/benchdeck/benchdeck/pkg/auth"
	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/graphqlapi"
	"github.com/benchdeck/benchdeck/pkg/health"
	"github.com/benchdeck/benchdeck/pkg/history"
	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/metrics"
	"github.com/benchdeck/benchdeck/pkg/results"
	"github.com/benchdeck/benchdeck/pkg/runner"
	paneltls "github.com/benchdeck/benchdeck/pkg/tls"
)

// maxRequestBody bounds request bodies. Uploaded YAML configs are the
// largest thing the API accepts.
const maxRequestBody = 1 << 20

// Server represents the HTTP API server
type Server struct {
	cfg             *config.ServerConfig
	ring            *logring.Ring
	supervisor      *runner.Supervisor
	store           history.Store
	resultsDir      *results.Dir
	graphqlHandler  *graphqlapi.GraphQLHandler
	authService     *auth.Service
	metricsRegistry *metrics.Registry
	healthChecker   *health.HealthChecker
	logger          logging.Logger
	startTime       time.Time
	httpServer      *http.Server
}

// Deps are the collaborators the server serves. Ring and Supervisor are
// required; the rest may be nil and their endpoints degrade gracefully.
type Deps struct {
	Ring       *logring.Ring
	Supervisor *runner.Supervisor
	History    history.Store
	Results    *results.Dir
	Auth       *auth.Service
	Logger     logging.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("api"))

	if deps.Auth == nil {
		// Disabled service, every request passes.
		deps.Auth, _ = auth.NewService(config.AuthConfig{})
	}

	// Generate GraphQL schema over the run and history state
	schema, err := graphqlapi.GenerateSchema(graphqlapi.Deps{
		Runs:    deps.Supervisor,
		History: deps.History,
	})

	var graphqlHandler *graphqlapi.GraphQLHandler
	if err != nil {
		logger.Warn("failed to generate GraphQL schema", logging.Error(err))
	} else {
		graphqlHandler = graphqlapi.NewGraphQLHandler(schema)
	}

	s := &Server{
		cfg:             cfg,
		ring:            deps.Ring,
		supervisor:      deps.Supervisor,
		store:           deps.History,
		resultsDir:      deps.Results,
		graphqlHandler:  graphqlHandler,
		authService:     deps.Auth,
		metricsRegistry: metrics.DefaultRegistry(),
		healthChecker:   newHealthChecker(cfg, deps.History),
		logger:          logger,
		startTime:       time.Now(),
	}
	return s
}

// newHealthChecker wires the panel's three liveness concerns: can results
// be written, can the benchmark be found, does the history store answer.
func newHealthChecker(cfg *config.ServerConfig, store history.Store) *health.HealthChecker {
	hc := health.NewHealthChecker()
	hc.RegisterCheck("results_dir", health.DirWritableCheck("results_dir", cfg.ResultsPath()))
	hc.RegisterCheck("benchmark_command", health.CommandCheck(cfg.Benchmark.Command))
	if store != nil {
		hc.RegisterCheck("history_store", health.StoreCheck(store.Ping))
	}
	return hc
}

// routes registers every endpoint on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Dashboard
	mux.HandleFunc("/", s.handleDashboard)

	// Experiment control
	mux.HandleFunc("/api/experiments", s.handleExperiments)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRun) // /api/runs/{id}

	// Terminal log
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/api/logs/stream", s.handleLogStream)

	// Configuration save/load
	mux.HandleFunc("/api/config", s.handleConfigSave)
	mux.HandleFunc("/api/config/load", s.handleConfigLoad)
	mux.HandleFunc("/api/configs", s.handleConfigList)

	// Results browser
	mux.HandleFunc("/api/results", s.handleResults)
	mux.HandleFunc("/api/results/", s.handleResult) // /api/results/{name}[/plot]

	// Topology view
	mux.HandleFunc("/api/topology", s.handleTopology)

	// Run history
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistoryRun) // /api/history/{id}[/log]

	// Session login
	mux.HandleFunc("/api/session", s.handleSession)

	// GraphQL endpoint
	mux.HandleFunc("/graphql", s.handleGraphQL)

	// Health and metrics
	mux.HandleFunc("/healthz", s.healthChecker.HTTPHandler())
	mux.Handle("/metrics", s.metricsRegistry.Handler())

	return mux
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.panicRecoveryMiddleware(
		s.loggingMiddleware(
			s.corsMiddleware(
				s.metricsMiddleware(
					s.authService.Middleware(
						s.bodySizeLimitMiddleware(s.routes(), maxRequestBody))))))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	s.logger.Info("benchdeck panel listening",
		logging.String("addr", addr),
		logging.String("results_dir", s.cfg.ResultsPath()),
		logging.String("benchmark_command", s.cfg.Benchmark.Command),
		logging.Bool("tls", s.cfg.TLS.Enabled))

	go s.updateMetricsPeriodically()

	// No WriteTimeout: the SSE log stream holds its response open for as
	// long as the client listens.
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	if s.cfg.TLS.Enabled {
		tlsConf, err := paneltls.Load(s.cfg.TLS, s.cfg.DataDir)
		if err != nil {
			return err
		}
		s.httpServer.TLSConfig = tlsConf
		return s.httpServer.ListenAndServeTLS("", "")
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	// Check if GraphQL handler is initialized
	if s.graphqlHandler == nil {
		s.respondError(w, http.StatusServiceUnavailable, "GraphQL endpoint not available")
		return
	}

	// Delegate to GraphQL handler
	s.graphqlHandler.ServeHTTP(w, r)
}
