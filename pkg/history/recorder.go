package history

import (
	"context"
	"time"

	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/metrics"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

const saveTimeout = 10 * time.Second

// Recorder is a supervisor hook that writes each finished run, together
// with its portion of the live log, into a Store. Store failures are logged
// and swallowed; history must never break the panel itself.
type Recorder struct {
	store           Store
	ring            *logring.Ring
	logger          logging.Logger
	metricsRegistry *metrics.Registry
}

// NewRecorder creates a recorder writing to store, snapshotting logs
// from ring.
func NewRecorder(store Store, ring *logring.Ring, logger logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Recorder{
		store:           store,
		ring:            ring,
		logger:          logger,
		metricsRegistry: metrics.DefaultRegistry(),
	}
}

// RunFinished implements runner.Hook.
func (r *Recorder) RunFinished(ctx context.Context, run runner.RunInfo) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	rec := FromRun(run)
	log := CollectRunLog(r.ring, run.ID)

	if err := r.store.SaveRun(ctx, rec, log); err != nil {
		r.metricsRegistry.RecordHistorySave("error")
		r.logger.Error("failed to record run",
			logging.RunID(run.ID),
			logging.Error(err))
		return
	}
	r.metricsRegistry.RecordHistorySave("ok")
	r.logger.Debug("run recorded",
		logging.RunID(run.ID),
		logging.String("state", rec.State))
}

// CollectRunLog extracts the lines a single run wrote to the ring. Entries
// may already have been evicted; whatever is still buffered is returned.
func CollectRunLog(ring *logring.Ring, runID string) []byte {
	if ring == nil {
		return nil
	}
	return []byte(ring.RunText(runID))
}
