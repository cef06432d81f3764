package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/benchdeck/benchdeck/pkg/logging"
	"github.com/benchdeck/benchdeck/pkg/logring"
	"github.com/benchdeck/benchdeck/pkg/metrics"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

const (
	uploadTimeout = 60 * time.Second

	// Result files stamp minutes only, so allow mtimes slightly before
	// the recorded start.
	resultWindowSlack = 5 * time.Second
)

// Hook archives each finished run: its captured log, snappy compressed,
// plus any result CSVs the benchmark wrote while it ran.
type Hook struct {
	uploader        *Uploader
	ring            *logring.Ring
	resultsDir      string
	logger          logging.Logger
	metricsRegistry *metrics.Registry
}

// NewHook builds the supervisor hook.
func NewHook(uploader *Uploader, ring *logring.Ring, resultsDir string, logger logging.Logger) *Hook {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Hook{
		uploader:        uploader,
		ring:            ring,
		resultsDir:      resultsDir,
		logger:          logger,
		metricsRegistry: metrics.DefaultRegistry(),
	}
}

// RunFinished implements runner.Hook. Failures are logged, never
// propagated.
func (h *Hook) RunFinished(ctx context.Context, run runner.RunInfo) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	artifacts := []Artifact{{
		Key:         "log.txt.snappy",
		Body:        snappy.Encode(nil, []byte(h.ring.RunText(run.ID))),
		ContentType: "application/octet-stream",
	}}

	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	for _, name := range resultsWritten(h.resultsDir, run.StartedAt, finished) {
		body, err := os.ReadFile(filepath.Join(h.resultsDir, name))
		if err != nil {
			h.logger.Warn("skipping unreadable result file",
				logging.RunID(run.ID),
				logging.Path(name),
				logging.Error(err))
			continue
		}
		artifacts = append(artifacts, Artifact{
			Key:         name,
			Body:        body,
			ContentType: "text/csv",
		})
	}

	if err := h.uploader.UploadRun(ctx, run.ID, artifacts); err != nil {
		h.metricsRegistry.RecordArchiveUpload("error")
		h.logger.Error("run archive failed",
			logging.RunID(run.ID),
			logging.Error(err))
		return
	}
	h.metricsRegistry.RecordArchiveUpload("ok")
	h.logger.Info("run archived",
		logging.RunID(run.ID),
		logging.Count(len(artifacts)))
}

// resultsWritten lists CSV names in dir modified inside the run's window.
func resultsWritten(dir string, start, end time.Time) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	lo := start.Add(-resultWindowSlack)
	hi := end.Add(resultWindowSlack)

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mt := info.ModTime()
		if mt.Before(lo) || mt.After(hi) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}
