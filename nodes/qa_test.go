package nodes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/model/mock"
	"github.com/taskforge-dev/taskforge/workflow"
)

func newTestInvoker(t *testing.T, responses ...model.ChatOut) (*agent.Invoker, *mock.ChatModel) {
	t.Helper()
	m := mock.NewChatModel(responses...)
	registry := agent.NewRegistry(map[agent.ModelRole]model.ChatModel{agent.RolePrimary: m})
	return agent.NewInvoker(registry, nil, agent.NewCostTracker(), map[agent.ModelRole]int{agent.RolePrimary: 50000}, nil), m
}

func TestQANodeFailsDeterministicCheckBeforeSpendingTokens(t *testing.T) {
	invoker, m := newTestInvoker(t, model.ChatOut{Text: `{"passed": true}`})
	n := &QANode{Invoker: invoker}

	s := workflow.State{
		RepoRoot: t.TempDir(),
		CurrentImplementationResult: &workflow.ImplementationResult{
			FilesModified: []string{"does_not_exist.go"},
			Success:       true,
		},
	}

	result := n.Run(context.Background(), s)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Delta.CurrentQAResult)
	assert.False(t, result.Delta.CurrentQAResult.Passed)
	assert.Greater(t, result.Delta.Urgency, 0.0)
	assert.Empty(t, m.Recorded, "model should never be called when the deterministic check already fails")
}

func TestQANodePassesWhenModelAgrees(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "resource.go"), []byte("package resources\n"), 0o644))

	invoker, _ := newTestInvoker(t, model.ChatOut{Text: `{"passed": true, "feedback": "looks right."}`})
	n := &QANode{Invoker: invoker}

	s := workflow.State{
		RepoRoot:                  repoRoot,
		CurrentImplementationPlan: "register titanium resource",
		CurrentImplementationResult: &workflow.ImplementationResult{
			FilesModified: []string{"resource.go"},
			ResultSummary: "added titanium",
			Success:       true,
		},
	}

	result := n.Run(context.Background(), s)
	require.NoError(t, result.Err)
	require.NotNil(t, result.Delta.CurrentQAResult)
	assert.True(t, result.Delta.CurrentQAResult.Passed)
	assert.Equal(t, float64(0), result.Delta.Urgency)
}

func TestQANodeDefaultsToFailedOnUnparseableOutput(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "resource.go"), []byte("package resources\n"), 0o644))

	invoker, _ := newTestInvoker(t, model.ChatOut{Text: "not json at all"})
	n := &QANode{Invoker: invoker}

	s := workflow.State{
		RepoRoot: repoRoot,
		CurrentImplementationResult: &workflow.ImplementationResult{
			FilesModified: []string{"resource.go"},
			Success:       true,
		},
	}

	result := n.Run(context.Background(), s)
	require.NoError(t, result.Err)
	assert.False(t, result.Delta.CurrentQAResult.Passed)
	assert.Contains(t, result.Delta.CurrentQAResult.Issues, "could not normalise QA output")
}
