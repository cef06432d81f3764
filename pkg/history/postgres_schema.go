package history

import "context"

// migrate creates the necessary database tables
func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		query TEXT NOT NULL,
		heterogeneity TEXT NOT NULL,
		topology TEXT NOT NULL,
		nodes INTEGER NOT NULL,
		state TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		exit_code INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		log BYTEA
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
