package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addBookkeeping wires the three bookkeeping handlers every scenario
// graph below needs, shared instead of repeated per test.
func addBookkeeping(eng *Engine) {
	eng.Add(NodeMarkComplete, NodeFunc(MarkCompleteHandler))
	eng.Add(NodeMarkFailed, NodeFunc(MarkFailedHandler))
	eng.Add(NodeIncrementAttempt, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.AttemptCount++
		return NodeResult{Delta: s}
	}))
}

// TestEngineRetryThenSucceeds exercises a QA failure followed by a
// passing QA on the retry, confirming the loop resumes the same task
// through increment_attempt rather than abandoning it.
func TestEngineRetryThenSucceeds(t *testing.T) {
	eng := New(NodeScopeAgent, Options{})

	eng.Add(NodeScopeAgent, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.Milestones = []Milestone{{Description: "titanium resource usable by player"}}
		return NodeResult{Delta: s}
	}))

	eng.Add(NodeTaskPlanner, NodeFunc(func(ctx context.Context, s State) NodeResult {
		if len(s.DoneList) > 0 {
			s.TaskPlannerAction = ActionMilestoneDone
			return NodeResult{Delta: s}
		}
		s.TaskPlannerAction = ActionImplement
		s.CurrentTaskDescription = "add titanium resource"
		return NodeResult{Delta: s}
	}))

	eng.Add(NodeImplementor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentImplementationResult = &ImplementationResult{FilesModified: []string{"resource.go"}, Success: true}
		return NodeResult{Delta: s}
	}))

	qaCalls := 0
	eng.Add(NodeQA, NodeFunc(func(ctx context.Context, s State) NodeResult {
		qaCalls++
		if qaCalls == 1 {
			s.CurrentQAResult = &QAResult{Passed: false, Feedback: "missing cap check"}
			s = Ledger{}.RecordQAFail(s)
			return NodeResult{Delta: s}
		}
		s.CurrentQAResult = &QAResult{Passed: true}
		return NodeResult{Delta: s}
	}))

	addBookkeeping(eng)

	eng.Add(NodeAssessor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s = Ledger{}.ResetOnAssessor(s)
		s.LastAssessorVerdict = VerdictMilestoneComplete
		s.Status = StatusComplete
		return NodeResult{Delta: s}
	}))

	final, err := eng.Run(context.Background(), State{MaxAttempts: 3, ReviewInterval: 5})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, final.Status)
	assert.Equal(t, 2, qaCalls, "QA should see the retried task a second time")
	require.Len(t, final.DoneList, 1)
	assert.False(t, final.DoneList[0].Failed)
	assert.Equal(t, 0, final.AttemptCount, "mark_complete resets the retry counter")
}

// TestEngineRetryExhaustionEscalatesAtUrgencyThreshold exercises the
// §8 retry-exhaustion scenario: with MaxAttempts=3, the third
// consecutive QA failure (not the fourth) exhausts the retry budget,
// and urgency has crossed 0.9 by the time mark_failed runs.
func TestEngineRetryExhaustionEscalatesAtUrgencyThreshold(t *testing.T) {
	eng := New(NodeScopeAgent, Options{})

	eng.Add(NodeScopeAgent, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.Milestones = []Milestone{{Description: "titanium resource usable by player"}}
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeTaskPlanner, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.TaskPlannerAction = ActionImplement
		s.CurrentTaskDescription = "add titanium resource"
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeImplementor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentImplementationResult = &ImplementationResult{FilesModified: []string{"resource.go"}, Success: true}
		return NodeResult{Delta: s}
	}))

	qaCalls := 0
	eng.Add(NodeQA, NodeFunc(func(ctx context.Context, s State) NodeResult {
		qaCalls++
		s.CurrentQAResult = &QAResult{Passed: false, Feedback: "still broken"}
		s = Ledger{}.RecordQAFail(s)
		return NodeResult{Delta: s}
	}))

	addBookkeeping(eng)

	var urgencyAtMarkFailed float64
	eng.Add(NodeAssessor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		urgencyAtMarkFailed = s.Urgency
		s = Ledger{}.ResetOnAssessor(s)
		s.Status = StatusFailed
		return NodeResult{Delta: s}
	}))

	final, err := eng.Run(context.Background(), State{MaxAttempts: 3, ReviewInterval: 5})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, final.Status)
	assert.Equal(t, 3, qaCalls, "exactly three QA failures should exhaust a MaxAttempts=3 budget")
	assert.GreaterOrEqual(t, urgencyAtMarkFailed, 0.9)
	require.Len(t, final.DoneList, 1)
	assert.True(t, final.DoneList[0].Failed)
}

// TestEngineReachesAssessorOnPeriodicReviewInterval confirms five
// consecutive successful tasks pull the assessor forward even though
// every QA passed and urgency never crossed the threshold.
func TestEngineReachesAssessorOnPeriodicReviewInterval(t *testing.T) {
	eng := New(NodeScopeAgent, Options{})

	eng.Add(NodeScopeAgent, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.Milestones = []Milestone{{Description: "five small fixes"}}
		return NodeResult{Delta: s}
	}))

	tasksPlanned := 0
	eng.Add(NodeTaskPlanner, NodeFunc(func(ctx context.Context, s State) NodeResult {
		tasksPlanned++
		s.TaskPlannerAction = ActionImplement
		s.CurrentTaskDescription = "fix"
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeImplementor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentImplementationResult = &ImplementationResult{FilesModified: []string{"a.go"}, Success: true}
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeQA, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentQAResult = &QAResult{Passed: true}
		return NodeResult{Delta: s}
	}))

	addBookkeeping(eng)

	assessorCalls := 0
	var tasksSinceReviewAtAssessor int
	eng.Add(NodeAssessor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		assessorCalls++
		tasksSinceReviewAtAssessor = s.TasksSinceLastReview
		s = Ledger{}.ResetOnAssessor(s)
		s.Status = StatusComplete
		return NodeResult{Delta: s}
	}))

	final, err := eng.Run(context.Background(), State{MaxAttempts: 3, ReviewInterval: 5})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, final.Status)
	assert.Equal(t, 1, assessorCalls, "assessor should run exactly once, on the fifth task")
	assert.Equal(t, 5, tasksSinceReviewAtAssessor)
	assert.Equal(t, 5, tasksPlanned)
	assert.Equal(t, 0, final.TasksSinceLastReview, "assessor resets the review window")
}

// TestEngineAdvancesMilestoneAndResetsCounters exercises the
// milestone-advance path: the assessor's milestone_complete verdict
// clears carry-forward and per-milestone counters and moves
// ActiveMilestoneIndex forward, with the run finishing once the final
// milestone completes.
func TestEngineAdvancesMilestoneAndResetsCounters(t *testing.T) {
	eng := New(NodeScopeAgent, Options{})

	eng.Add(NodeScopeAgent, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.Milestones = []Milestone{{Description: "milestone one"}, {Description: "milestone two"}}
		return NodeResult{Delta: s}
	}))

	doneMilestones := map[int]bool{}
	eng.Add(NodeTaskPlanner, NodeFunc(func(ctx context.Context, s State) NodeResult {
		if !doneMilestones[s.ActiveMilestoneIndex] {
			doneMilestones[s.ActiveMilestoneIndex] = true
			s.TaskPlannerAction = ActionImplement
			s.CurrentTaskDescription = "work on milestone"
			if s.ActiveMilestoneIndex == 0 {
				s.CarryForward = []string{"leftover note"}
			}
			return NodeResult{Delta: s}
		}
		s.TaskPlannerAction = ActionMilestoneDone
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeImplementor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentImplementationResult = &ImplementationResult{FilesModified: []string{"a.go"}, Success: true}
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeQA, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentQAResult = &QAResult{Passed: true}
		return NodeResult{Delta: s}
	}))

	addBookkeeping(eng)

	eng.Add(NodeAssessor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		next := Ledger{}.ResetOnAssessor(s)
		next.LastAssessorVerdict = VerdictMilestoneComplete
		if next.ActiveMilestoneIndex+1 < len(next.Milestones) {
			next.ActiveMilestoneIndex++
			next = Ledger{}.ResetOnMilestoneAdvance(next)
		} else {
			next.Status = StatusComplete
		}
		return NodeResult{Delta: next}
	}))

	final, err := eng.Run(context.Background(), State{MaxAttempts: 3, ReviewInterval: 5})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, final.Status)
	assert.Equal(t, 1, final.ActiveMilestoneIndex)
	assert.Empty(t, final.CarryForward, "advancing past milestone one clears its carry-forward")
	assert.Len(t, final.DoneList, 2)
}

// TestEngineMajorDivergenceReturnsToScopeAgentWithPriorWork exercises
// the divergence-and-replan path: a major_divergence verdict routes
// back to scope_agent carrying prior_work and divergence_analysis, and
// the milestone-zero work already recorded stays in DoneList rather
// than being discarded.
func TestEngineMajorDivergenceReturnsToScopeAgentWithPriorWork(t *testing.T) {
	eng := New(NodeScopeAgent, Options{})

	scopeCalls := 0
	var priorWorkSeenOnRescope, divergenceSeenOnRescope string
	eng.Add(NodeScopeAgent, NodeFunc(func(ctx context.Context, s State) NodeResult {
		scopeCalls++
		if scopeCalls == 2 {
			priorWorkSeenOnRescope = s.PriorWork
			divergenceSeenOnRescope = s.DivergenceAnalysis
		}
		s.Milestones = []Milestone{{Description: "revised milestone"}}
		s.ActiveMilestoneIndex = 0
		return NodeResult{Delta: s}
	}))

	plannerRounds := 0
	eng.Add(NodeTaskPlanner, NodeFunc(func(ctx context.Context, s State) NodeResult {
		plannerRounds++
		if plannerRounds == 2 {
			s.TaskPlannerAction = ActionMilestoneDone
			return NodeResult{Delta: s}
		}
		s.TaskPlannerAction = ActionImplement
		s.CurrentTaskDescription = "first pass work"
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeImplementor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentImplementationResult = &ImplementationResult{FilesModified: []string{"a.go"}, Success: true}
		return NodeResult{Delta: s}
	}))
	eng.Add(NodeQA, NodeFunc(func(ctx context.Context, s State) NodeResult {
		s.CurrentQAResult = &QAResult{Passed: true}
		return NodeResult{Delta: s}
	}))

	addBookkeeping(eng)

	assessorCalls := 0
	eng.Add(NodeAssessor, NodeFunc(func(ctx context.Context, s State) NodeResult {
		assessorCalls++
		if assessorCalls == 1 {
			next := s
			next.DivergenceAnalysis = "scope drifted from the original remit"
			next.PriorWork = "milestone one: first pass work done"
			next.LastAssessorVerdict = VerdictMajorDivergence
			return NodeResult{Delta: next}
		}
		next := Ledger{}.ResetOnAssessor(s)
		next.LastAssessorVerdict = VerdictMilestoneComplete
		next.Status = StatusComplete
		return NodeResult{Delta: next}
	}))

	final, err := eng.Run(context.Background(), State{MaxAttempts: 3, ReviewInterval: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, final.Status)
	assert.Equal(t, 2, scopeCalls, "major divergence should route back through scope_agent once")
	assert.Contains(t, priorWorkSeenOnRescope, "first pass work done")
	assert.Contains(t, divergenceSeenOnRescope, "drifted")
	require.Len(t, final.DoneList, 1, "milestone-zero work stays recorded across the re-scope")
}
