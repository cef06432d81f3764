package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs in a single-file SQLite database. The driver is
// pure Go, so the default deployment needs no external services.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// The file is owned by one process; a single connection avoids
	// SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		query TEXT NOT NULL,
		heterogeneity TEXT NOT NULL,
		topology TEXT NOT NULL,
		nodes INTEGER NOT NULL,
		state TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		log BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Fixed-width nanoseconds keep lexicographic ordering of the stored
// strings equal to chronological ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveRun stores a record with its snappy-compressed log.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *Record, log []byte) error {
	query := `
		INSERT OR REPLACE INTO runs
			(id, dataset, query, heterogeneity, topology, nodes, state,
			 started_at, finished_at, exit_code, error, log)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Params.Dataset,
		rec.Params.Query,
		rec.Params.Heterogeneity,
		rec.Params.Topology,
		rec.Params.Nodes,
		rec.State,
		rec.StartedAt.UTC().Format(sqliteTimeLayout),
		rec.FinishedAt.UTC().Format(sqliteTimeLayout),
		rec.ExitCode,
		rec.Error,
		snappy.Encode(nil, log),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

const recordColumns = `id, dataset, query, heterogeneity, topology, nodes, state,
	started_at, finished_at, exit_code, error`

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	rec := &Record{}
	var startedAt, finishedAt string

	err := scan(
		&rec.ID,
		&rec.Params.Dataset,
		&rec.Params.Query,
		&rec.Params.Heterogeneity,
		&rec.Params.Topology,
		&rec.Params.Nodes,
		&rec.State,
		&startedAt,
		&finishedAt,
		&rec.ExitCode,
		&rec.Error,
	)
	if err != nil {
		return nil, err
	}

	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return rec, nil
}

// GetRun retrieves a record by run id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM runs WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit records, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// GetRunLog returns the decompressed log for a run.
func (s *SQLiteStore) GetRunLog(ctx context.Context, id string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT log FROM runs WHERE id = ?`, id).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run log: %w", err)
	}

	log, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress run log: %w", err)
	}
	return log, nil
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
