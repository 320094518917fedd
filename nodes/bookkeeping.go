package nodes

import (
	"context"

	"github.com/taskforge-dev/taskforge/workflow"
)

// MarkCompleteNode folds the ephemeral task fields into a DoneEntry and
// clears them, whether the task was actually implemented or the
// planner declared it already satisfied (skip).
type MarkCompleteNode struct{}

func (MarkCompleteNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	skipped := s.TaskPlannerAction == workflow.ActionSkip

	entry := workflow.DoneEntry{
		TaskDescription: s.CurrentTaskDescription,
		MilestoneIndex:  s.ActiveMilestoneIndex,
		Skipped:         skipped,
	}
	if s.CurrentImplementationResult != nil {
		entry.ResultSummary = s.CurrentImplementationResult.ResultSummary
	}
	if s.CurrentQAResult != nil {
		entry.QAFeedback = s.CurrentQAResult.Feedback
	}

	next := s.ClearCurrentTask()
	next.DoneList = append(next.DoneList, entry)
	next.TasksSinceLastReview++
	next.AttemptCount = 0

	return workflow.NodeResult{Delta: next}
}

// MarkFailedNode folds the ephemeral fields into a failed DoneEntry
// with the escalation context and clears them. It always routes to the
// assessor (AfterMarkFailed), so it does not itself set routing.
type MarkFailedNode struct{}

func (MarkFailedNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	entry := workflow.DoneEntry{
		TaskDescription: s.CurrentTaskDescription,
		ResultSummary:   s.EscalationContext,
		MilestoneIndex:  s.ActiveMilestoneIndex,
		Failed:          true,
	}
	if s.CurrentQAResult != nil {
		entry.QAFeedback = s.CurrentQAResult.Feedback
	}

	next := s.ClearCurrentTask()
	next.DoneList = append(next.DoneList, entry)
	next.AttemptCount = 0

	return workflow.NodeResult{Delta: next}
}

// IncrementAttemptNode bumps attempt_count and preserves the current
// plan and QA result so the planner's next round can react to the
// failure without losing context.
type IncrementAttemptNode struct{}

func (IncrementAttemptNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	next := s
	next.AttemptCount++
	return workflow.NodeResult{Delta: next}
}
