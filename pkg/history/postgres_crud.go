package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/jackc/pgx/v5"
)

// SaveRun stores a record with its snappy-compressed log
func (s *PGStore) SaveRun(ctx context.Context, rec *Record, log []byte) error {
	query := `
		INSERT INTO runs
			(id, dataset, query, heterogeneity, topology, nodes, state,
			 started_at, finished_at, exit_code, error, log)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			finished_at = EXCLUDED.finished_at,
			exit_code = EXCLUDED.exit_code,
			error = EXCLUDED.error,
			log = EXCLUDED.log
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.Params.Dataset,
		rec.Params.Query,
		rec.Params.Heterogeneity,
		rec.Params.Topology,
		rec.Params.Nodes,
		rec.State,
		rec.StartedAt,
		rec.FinishedAt,
		rec.ExitCode,
		rec.Error,
		snappy.Encode(nil, log),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a record by run id
func (s *PGStore) GetRun(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT id, dataset, query, heterogeneity, topology, nodes, state,
			started_at, finished_at, exit_code, error
		FROM runs
		WHERE id = $1
	`

	rec := &Record{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Params.Dataset,
		&rec.Params.Query,
		&rec.Params.Heterogeneity,
		&rec.Params.Topology,
		&rec.Params.Nodes,
		&rec.State,
		&rec.StartedAt,
		&rec.FinishedAt,
		&rec.ExitCode,
		&rec.Error,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit records, newest first
func (s *PGStore) ListRuns(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
		SELECT id, dataset, query, heterogeneity, topology, nodes, state,
			started_at, finished_at, exit_code, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		err := rows.Scan(
			&rec.ID,
			&rec.Params.Dataset,
			&rec.Params.Query,
			&rec.Params.Heterogeneity,
			&rec.Params.Topology,
			&rec.Params.Nodes,
			&rec.State,
			&rec.StartedAt,
			&rec.FinishedAt,
			&rec.ExitCode,
			&rec.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return out, nil
}

// GetRunLog returns the decompressed log for a run
func (s *PGStore) GetRunLog(ctx context.Context, id string) ([]byte, error) {
	var compressed []byte
	err := s.pool.QueryRow(ctx,
		`SELECT log FROM runs WHERE id = $1`, id).Scan(&compressed)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run log: %w", err)
	}

	log, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress run log: %w", err)
	}
	return log, nil
}
