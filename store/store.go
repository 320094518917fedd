// Package store holds taskforge's persistence backends. The engine
// treats durability as delegated — there is no persistent engine
// checkpoint in the core — so every backend here implements the same
// two-method shape the workflow.Engine consumes: save the latest
// snapshot, load the latest snapshot for a run.
package store

import (
	"context"
	"errors"

	"github.com/taskforge-dev/taskforge/workflow"
)

// ErrNotFound is returned by LoadLatest when no snapshot exists for the
// given run ID.
var ErrNotFound = errors.New("store: not found")

// Snapshot is a single persisted point-in-time record of a run's state.
type Snapshot struct {
	RunID string
	Step  int
	State workflow.State
}

// Backend is the interface every concrete store implements. It is kept
// deliberately narrow (no checkpoint versioning, no idempotency map, no
// transactional outbox): this engine has one writer and one reader per
// run, so multi-writer exactly-once delivery machinery has no use here
// (see DESIGN.md).
type Backend interface {
	SaveSnapshot(ctx context.Context, s workflow.State) error
	LoadLatest(ctx context.Context, runID string) (workflow.State, error)
}
