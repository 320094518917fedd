package workflow

// Node name constants used both as graph keys and as Next.To targets.
const (
	NodeScopeAgent       = "scope_agent"
	NodeTaskPlanner      = "task_planner"
	NodeImplementor      = "implementor"
	NodeQA               = "qa"
	NodeAssessor         = "assessor"
	NodeMarkComplete     = "mark_complete"
	NodeMarkFailed       = "mark_failed"
	NodeIncrementAttempt = "increment_attempt"
	NodeReport           = "report"
)

// AfterScopeAgent routes to the planner once the scope agent has
// produced at least one milestone; an empty milestone list means the
// scope agent gave up and the run goes straight to the reporter.
func AfterScopeAgent(s State) string {
	if len(s.Milestones) > 0 {
		return NodeTaskPlanner
	}
	return NodeReport
}

// AfterTaskPlanner switches exhaustively on the planner's action.
func AfterTaskPlanner(s State) string {
	switch s.TaskPlannerAction {
	case ActionImplement:
		return NodeImplementor
	case ActionSkip:
		return NodeMarkComplete
	case ActionAbort:
		return NodeMarkFailed
	case ActionMilestoneDone:
		return NodeAssessor
	default:
		// Unreachable once PlannerError handling normalises the action
		// before routing; treated as abort defensively.
		return NodeMarkFailed
	}
}

// AfterImplementor always hands off to QA.
func AfterImplementor(s State) string {
	return NodeQA
}

// AfterQA routes on the QA verdict and the retry ledger. AttemptCount
// counts retries already granted, so at the Nth QA failure it still
// holds N-1; comparing against MaxAttempts-1 makes the Nth failure the
// one that exhausts the budget when N == MaxAttempts, rather than
// N == MaxAttempts+1.
func AfterQA(s State) string {
	if s.CurrentQAResult != nil && s.CurrentQAResult.Passed {
		return NodeMarkComplete
	}
	if s.AttemptCount < s.MaxAttempts-1 {
		return NodeIncrementAttempt
	}
	return NodeMarkFailed
}

// AfterMarkComplete pulls the assessor forward on the periodic-review
// interval or when urgency has crossed its threshold; otherwise the
// planner continues with the next task.
func AfterMarkComplete(s State) string {
	if s.TasksSinceLastReview >= s.ReviewInterval || s.Urgency >= 1.0 {
		return NodeAssessor
	}
	return NodeTaskPlanner
}

// AfterAssessor switches on the assessor's verdict. Milestone advance
// and drift handling is the assessor node's own responsibility (it
// writes the next ActiveMilestoneIndex / CorrectionHint / cleared
// CarryForward into Delta); this function only decides where to go.
func AfterAssessor(s State) string {
	switch verdict(s) {
	case VerdictAligned, VerdictMinorDrift:
		return NodeTaskPlanner
	case VerdictMilestoneComplete:
		// The assessor node itself decides whether to advance
		// ActiveMilestoneIndex or set Status to terminal (it is the
		// one with "is this the last milestone" context); the router
		// only needs to act on that decision.
		if s.Status != StatusRunning {
			return NodeReport
		}
		return NodeTaskPlanner
	case VerdictMajorDivergence:
		return NodeScopeAgent
	default:
		return NodeReport
	}
}

// verdict reads the verdict the assessor node just wrote to Delta.
func verdict(s State) AssessorVerdict {
	return s.LastAssessorVerdict
}

// AfterMarkFailed always routes to the assessor so strategic impact is
// evaluated, regardless of how the task failed.
func AfterMarkFailed(s State) string {
	return NodeAssessor
}

// Route computes the next node name for whatever node s.CurrentNode
// names, after that node has already run and had its Delta reduced into
// s. It is the single place the engine calls when a node's own
// NodeResult.Route is zero-valued.
func Route(nodeName string, s State) string {
	switch nodeName {
	case NodeScopeAgent:
		return AfterScopeAgent(s)
	case NodeTaskPlanner:
		return AfterTaskPlanner(s)
	case NodeImplementor:
		return AfterImplementor(s)
	case NodeQA:
		return AfterQA(s)
	case NodeMarkComplete:
		return AfterMarkComplete(s)
	case NodeMarkFailed:
		return AfterMarkFailed(s)
	case NodeAssessor:
		return AfterAssessor(s)
	case NodeIncrementAttempt:
		return NodeTaskPlanner
	default:
		return NodeReport
	}
}
