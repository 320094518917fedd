package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/workflow"
)

func TestScopeNodeProducesMilestonesFromFreshRequest(t *testing.T) {
	invoker, _ := newTestInvoker(t, model.ChatOut{Text: `{"remit": "add titanium resource", ` +
		`"milestones": [{"description": "titanium usable by player", "sketch": ["registry", "UI"]}]}`})
	n := &ScopeNode{Invoker: invoker}

	result := n.Run(context.Background(), workflow.State{UserRequest: "add titanium resource"})
	require.NoError(t, result.Err)
	require.Len(t, result.Delta.Milestones, 1)
	assert.Equal(t, "add titanium resource", result.Delta.Remit)
	assert.Equal(t, 0, result.Delta.ActiveMilestoneIndex)
}

func TestScopeNodeFailsOnZeroMilestones(t *testing.T) {
	invoker, _ := newTestInvoker(t, model.ChatOut{Text: `{"remit": "x", "milestones": []}`})
	n := &ScopeNode{Invoker: invoker}

	result := n.Run(context.Background(), workflow.State{UserRequest: "add titanium resource"})
	require.Error(t, result.Err)
}

func TestScopeNodePreservesCompletedMilestonesOnReplan(t *testing.T) {
	invoker, _ := newTestInvoker(t, model.ChatOut{Text: `{"remit": "revised remit", ` +
		`"milestones": [{"description": "new milestone", "sketch": []}]}`})
	n := &ScopeNode{Invoker: invoker}

	s := workflow.State{
		UserRequest:          "add titanium resource",
		Milestones:           []workflow.Milestone{{Description: "done milestone"}, {Description: "in-progress milestone"}},
		ActiveMilestoneIndex: 1,
		PriorWork:            "milestone 0 completed",
		DivergenceAnalysis:   "scope crept into unrelated refactor",
	}

	result := n.Run(context.Background(), s)
	require.NoError(t, result.Err)
	require.Len(t, result.Delta.Milestones, 2)
	assert.Equal(t, "done milestone", result.Delta.Milestones[0].Description)
	assert.Equal(t, "new milestone", result.Delta.Milestones[1].Description)
	assert.Equal(t, 1, result.Delta.ActiveMilestoneIndex)
	assert.Empty(t, result.Delta.DivergenceAnalysis)
}
