package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/taskforge-dev/taskforge/workflow"
)

// MySQLStore is the same single-row-per-run snapshot scheme as
// SQLiteStore, against a shared MySQL instance for deployments that
// run several orchestrator instances against one database.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL connection using dsn (see the
// go-sql-driver/mysql DSN format) and ensures the snapshot table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS run_snapshots (
	run_id VARCHAR(128) PRIMARY KEY,
	state_json LONGTEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate mysql: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) SaveSnapshot(ctx context.Context, st workflow.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO run_snapshots (run_id, state_json, updated_at)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE state_json = VALUES(state_json), updated_at = VALUES(updated_at)`,
		st.RunID, string(b), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *MySQLStore) LoadLatest(ctx context.Context, runID string) (workflow.State, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
