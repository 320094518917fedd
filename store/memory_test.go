package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/workflow"
)

func TestMemStoreRoundTripsLatestSnapshotPerRun(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	require.NoError(t, m.SaveSnapshot(ctx, workflow.State{RunID: "run-1", Status: workflow.StatusRunning}))
	require.NoError(t, m.SaveSnapshot(ctx, workflow.State{RunID: "run-1", Status: workflow.StatusComplete}))
	require.NoError(t, m.SaveSnapshot(ctx, workflow.State{RunID: "run-2", Status: workflow.StatusRunning}))

	got, err := m.LoadLatest(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusComplete, got.Status)

	got2, err := m.LoadLatest(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, got2.Status)
}

func TestMemStoreLoadLatestMissingRunReturnsNotFound(t *testing.T) {
	m := NewMemStore()
	_, err := m.LoadLatest(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}
