// Package runner supervises the external benchmark process and streams its
// output into the shared log buffer.
package runner

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/metrics"
)

// Terminal messages written to the experiment log. The wording is part of
// the panel's contract; saved transcripts and the UI both match on it.
const (
	msgMissingFields = "All fields are required to start an experiment."
	msgBusy          = "Another experiment is already running."
	msgStarting      = "Starting experiment..."
	msgCompleted     = "Experiment completed successfully."
	msgFailedFmt     = "Experiment failed with return code %d."
	msgErrorFmt      = "Error running experiment: %v"
)

// Separator precedes every start attempt that passes the field check.
var Separator = strings.Repeat("-", 50)

// maxLineSize bounds a single scanned output line.
const maxLineSize = 1024 * 1024

// Sink is where run output lines go. *logring.Ring satisfies it.
type Sink interface {
	Append(runID, line string) logring.Entry
	Appendf(runID, format string, args ...any) logring.Entry
}

// Hook is notified after a run reaches a terminal state. Hook failures are
// logged and never change the run's outcome.
type Hook interface {
	RunFinished(ctx context.Context, run RunInfo)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, run RunInfo)

// RunFinished calls f.
func (f HookFunc) RunFinished(ctx context.Context, run RunInfo) { f(ctx, run) }

// Supervisor starts benchmark processes and tracks their runs. A bounded
// number of runs (normally one) may be active at a time; extra start
// requests are rejected rather than queued.
type Supervisor struct {
	cfg             config.BenchmarkConfig
	sink            Sink
	logger          logging.Logger
	hooks           []Hook
	metricsRegistry *metrics.Registry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	active int
	runs   map[string]*RunInfo
	order  []string // run ids oldest first
	closed bool
}

// NewSupervisor creates a supervisor for the configured benchmark command.
// A zero MaxConcurrent is treated as one.
func NewSupervisor(cfg config.BenchmarkConfig, sink Sink, logger logging.Logger, hooks ...Hook) *Supervisor {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		cfg:             cfg,
		sink:            sink,
		logger:          logger.With(logging.Component("runner")),
		hooks:           hooks,
		metricsRegistry: metrics.DefaultRegistry(),
		ctx:             ctx,
		cancel:          cancel,
		runs:            make(map[string]*RunInfo),
	}
}

// Start validates params and launches the benchmark in the background,
// returning the new run's id. Any field left empty writes the required-
// fields line to the log and returns ErrMissingFields without spawning.
// When the concurrency limit is reached it returns ErrBusy.
func (s *Supervisor) Start(params config.ExperimentConfig) (string, error) {
	if missing := params.Missing(); len(missing) > 0 {
		s.sink.Append("", msgMissingFields)
		s.logger.Warn("experiment rejected, missing fields",
			logging.Any("missing", missing))
		return "", ErrMissingFields
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrShutdown
	}
	if s.active >= s.cfg.MaxConcurrent {
		s.mu.Unlock()
		s.sink.Append("", msgBusy)
		s.logger.Warn("experiment rejected, concurrency limit reached",
			logging.Int("max_concurrent", s.cfg.MaxConcurrent))
		return "", ErrBusy
	}
	s.active++

	runID := uuid.New().String()
	info := &RunInfo{
		ID:        runID,
		Params:    params,
		State:     StateRunning,
		StartedAt: time.Now().UTC(),
	}
	s.runs[runID] = info
	s.order = append(s.order, runID)
	s.mu.Unlock()

	s.sink.Append("", Separator)
	s.logger.Info("experiment starting",
		logging.RunID(runID),
		logging.Dataset(params.Dataset),
		logging.String("topology", params.Topology),
		logging.Int("nodes", params.Nodes))

	s.wg.Add(1)
	go s.run(runID, params)

	return runID, nil
}

// run owns the whole lifecycle of one benchmark process.
func (s *Supervisor) run(runID string, params config.ExperimentConfig) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	timer := logging.StartTimer(s.logger, "experiment finished", logging.RunID(runID))

	runCtx := s.ctx
	var cancel context.CancelFunc
	if s.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, s.cfg.Timeout)
		defer cancel()
	}

	s.sink.Append(runID, msgStarting)

	cmd := exec.CommandContext(runCtx, s.cfg.Command, params.Args()...)
	cmd.Dir = s.cfg.WorkDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.finishError(runID, err)
		timer.EndError(err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.finishError(runID, err)
		timer.EndError(err)
		return
	}

	if err := cmd.Start(); err != nil {
		s.finishError(runID, err)
		timer.EndError(err)
		return
	}

	// Stream stdout line by line as it arrives, then drain stderr in one
	// read once stdout closes. Matches the order output has always shown
	// up in the terminal view.
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		s.sink.Append(runID, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		s.logger.Error("stdout scan interrupted", logging.RunID(runID), logging.Error(err))
	}

	if errOut, err := io.ReadAll(stderr); err == nil && len(errOut) > 0 {
		for _, line := range strings.Split(strings.TrimRight(string(errOut), "\n"), "\n") {
			s.sink.Append(runID, line)
		}
	}

	waitErr := cmd.Wait()
	if waitErr == nil {
		s.sink.Append(runID, msgCompleted)
		s.finish(runID, StateCompleted, 0, "")
		timer.End()
		return
	}

	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		s.sink.Appendf(runID, msgFailedFmt, code)
		s.finish(runID, StateFailed, code, exitErr.Error())
		timer.EndError(exitErr)
		return
	}

	s.sink.Appendf(runID, msgErrorFmt, waitErr)
	s.finish(runID, StateError, -1, waitErr.Error())
	timer.EndError(waitErr)
}

// finishError handles runs that never got off the ground.
func (s *Supervisor) finishError(runID string, err error) {
	s.sink.Appendf(runID, msgErrorFmt, err)
	s.finish(runID, StateError, -1, err.Error())
}

// finish moves the run to a terminal state and notifies hooks.
func (s *Supervisor) finish(runID string, state State, exitCode int, errMsg string) {
	now := time.Now().UTC()

	s.mu.Lock()
	info, ok := s.runs[runID]
	if !ok {
		s.mu.Unlock()
		return
	}
	info.State = state
	info.FinishedAt = &now
	info.ExitCode = exitCode
	info.Error = errMsg
	snapshot := *info
	s.mu.Unlock()

	s.metricsRegistry.RecordRunFinished(string(state), snapshot.Duration())

	for _, hook := range s.hooks {
		hook.RunFinished(s.ctx, snapshot)
	}
}

// Get returns a copy of the run with the given id.
func (s *Supervisor) Get(runID string) (RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.runs[runID]
	if !ok {
		return RunInfo{}, ErrRunNotFound
	}
	return *info, nil
}

// Runs returns copies of all known runs, newest first.
func (s *Supervisor) Runs() []RunInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]RunInfo, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, *s.runs[s.order[i]])
	}
	return result
}

// Active returns the number of runs currently executing.
func (s *Supervisor) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Shutdown stops accepting new runs, kills any live benchmark process and
// waits for run bookkeeping to settle or ctx to expire.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
