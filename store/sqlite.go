package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/taskforge-dev/taskforge/workflow"
)

// SQLiteStore persists snapshots as JSON blobs keyed by run ID, one row
// per run, overwritten on every save.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a SQLite database at path. Use
// ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS run_snapshots (
	run_id TEXT PRIMARY KEY,
	state_json TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, st workflow.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO run_snapshots (run_id, state_json, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`,
		st.RunID, string(b), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, runID string) (workflow.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM run_snapshots WHERE run_id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return workflow.State{}, ErrNotFound
	}
	if err != nil {
		return workflow.State{}, fmt.Errorf("load snapshot: %w", err)
	}
	var st workflow.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return workflow.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
