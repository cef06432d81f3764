// Package history persists finished experiment runs so the panel can show
// past activity after a restart. Three drivers are supported: an in-memory
// store for tests, a SQLite file under the data directory, and PostgreSQL
// for shared deployments.
package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/benchdeck/benchdeck/pkg/config"
	"github.com/benchdeck/benchdeck/pkg/runner"
)

// ErrNotFound is returned when a run id has no stored record.
var ErrNotFound = errors.New("run not found")

// DefaultLimit bounds ListRuns when the caller passes limit <= 0.
const DefaultLimit = 100

// Record is one finished run as stored. The captured log is kept separately
// because it can be large and most listings never need it.
type Record struct {
	ID         string                  `json:"id"`
	Params     config.ExperimentConfig `json:"params"`
	State      string                  `json:"state"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	ExitCode   int                     `json:"exit_code"`
	Error      string                  `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r *Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FromRun converts a supervisor run into a storable record.
func FromRun(run runner.RunInfo) *Record {
	rec := &Record{
		ID:        run.ID,
		Params:    run.Params,
		State:     string(run.State),
		StartedAt: run.StartedAt,
		ExitCode:  run.ExitCode,
		Error:     run.Error,
	}
	if run.FinishedAt != nil {
		rec.FinishedAt = *run.FinishedAt
	}
	return rec
}

// Store defines the interface for run persistence.
type Store interface {
	SaveRun(ctx context.Context, rec *Record, log []byte) error
	GetRun(ctx context.Context, id string) (*Record, error)
	ListRuns(ctx context.Context, limit int) ([]*Record, error)
	GetRunLog(ctx context.Context, id string) ([]byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg. The SQLite driver places its
// database file inside dataDir.
func Open(ctx context.Context, cfg config.HistoryConfig, dataDir string) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(dataDir, "benchdeck.db"))
	case "postgres":
		return NewPGStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown history driver: %s", cfg.Driver)
	}
}
