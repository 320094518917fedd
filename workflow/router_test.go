package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterScopeAgent(t *testing.T) {
	assert.Equal(t, NodeTaskPlanner, AfterScopeAgent(State{Milestones: []Milestone{{Description: "x"}}}))
	assert.Equal(t, NodeReport, AfterScopeAgent(State{}))
}

func TestAfterTaskPlanner(t *testing.T) {
	cases := map[TaskPlannerAction]string{
		ActionImplement:     NodeImplementor,
		ActionSkip:          NodeMarkComplete,
		ActionAbort:         NodeMarkFailed,
		ActionMilestoneDone: NodeAssessor,
	}
	for action, want := range cases {
		got := AfterTaskPlanner(State{TaskPlannerAction: action})
		assert.Equal(t, want, got, "action %s", action)
	}
}

func TestAfterQA(t *testing.T) {
	assert.Equal(t, NodeMarkComplete, AfterQA(State{CurrentQAResult: &QAResult{Passed: true}}))
	assert.Equal(t, NodeIncrementAttempt, AfterQA(State{
		CurrentQAResult: &QAResult{Passed: false},
		AttemptCount:    0, MaxAttempts: 3,
	}))
	assert.Equal(t, NodeMarkFailed, AfterQA(State{
		CurrentQAResult: &QAResult{Passed: false},
		AttemptCount:    3, MaxAttempts: 3,
	}))
}

func TestAfterMarkComplete(t *testing.T) {
	assert.Equal(t, NodeAssessor, AfterMarkComplete(State{TasksSinceLastReview: 5, ReviewInterval: 5}))
	assert.Equal(t, NodeAssessor, AfterMarkComplete(State{Urgency: 1.0}))
	assert.Equal(t, NodeTaskPlanner, AfterMarkComplete(State{TasksSinceLastReview: 1, ReviewInterval: 5}))
}

func TestAfterMarkFailedAlwaysGoesToAssessor(t *testing.T) {
	assert.Equal(t, NodeAssessor, AfterMarkFailed(State{}))
}

func TestAfterAssessor(t *testing.T) {
	assert.Equal(t, NodeTaskPlanner, AfterAssessor(State{LastAssessorVerdict: VerdictAligned}))
	assert.Equal(t, NodeTaskPlanner, AfterAssessor(State{LastAssessorVerdict: VerdictMinorDrift}))
	assert.Equal(t, NodeScopeAgent, AfterAssessor(State{LastAssessorVerdict: VerdictMajorDivergence}))

	twoMilestones := []Milestone{{Description: "a"}, {Description: "b"}}
	assert.Equal(t, NodeTaskPlanner, AfterAssessor(State{
		LastAssessorVerdict: VerdictMilestoneComplete, Milestones: twoMilestones, ActiveMilestoneIndex: 0,
		Status: StatusRunning,
	}))
	assert.Equal(t, NodeReport, AfterAssessor(State{
		LastAssessorVerdict: VerdictMilestoneComplete, Milestones: twoMilestones, ActiveMilestoneIndex: 2,
	}))
}

// TestRouterIsPureFunction asserts the router is a pure function: equal
// state snapshots always route to the same node.
func TestRouterIsPureFunction(t *testing.T) {
	s := State{TaskPlannerAction: ActionImplement}
	a := Route(NodeTaskPlanner, s)
	b := Route(NodeTaskPlanner, s)
	assert.Equal(t, a, b)
}
