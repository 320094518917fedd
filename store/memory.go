package store

import (
	"context"
	"sync"

	"github.com/taskforge-dev/taskforge/workflow"
)

// MemStore keeps the latest snapshot per run in memory, trimmed to a
// single map since this engine persists one snapshot per run, not a
// per-step log.
type MemStore struct {
	mu    sync.RWMutex
	byRun map[string]workflow.State
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{byRun: make(map[string]workflow.State)}
}

func (m *MemStore) SaveSnapshot(ctx context.Context, s workflow.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byRun[s.RunID] = s
	return nil
}

func (m *MemStore) LoadLatest(ctx context.Context, runID string) (workflow.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byRun[runID]
	if !ok {
		return workflow.State{}, ErrNotFound
	}
	return s, nil
}
