package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/workflow"
)

func TestSQLiteStoreRoundTripsLatestSnapshot(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveSnapshot(ctx, workflow.State{RunID: "run-1", Urgency: 0.3, Status: workflow.StatusRunning}))
	require.NoError(t, s.SaveSnapshot(ctx, workflow.State{RunID: "run-1", Urgency: 0.9, Status: workflow.StatusFailed}))

	got, err := s.LoadLatest(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFailed, got.Status)
	assert.InDelta(t, 0.9, got.Urgency, 0.0001)
}

func TestSQLiteStoreLoadLatestMissingRunReturnsNotFound(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.LoadLatest(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrNotFound)
}
