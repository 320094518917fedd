// Package workflow holds the orchestrator's state model, the pure router
// functions that compute the next node from that state, the sequential
// engine that drives node execution, and the retry/escalation ledger the
// router and bookkeeping nodes share.
package workflow

import "time"

// TaskPlannerAction is the planner's closed set of next actions. The
// router switches on it exhaustively; there is no "unhandled" fallthrough.
type TaskPlannerAction string

const (
	ActionImplement    TaskPlannerAction = "implement"
	ActionSkip         TaskPlannerAction = "skip"
	ActionAbort        TaskPlannerAction = "abort"
	ActionMilestoneDone TaskPlannerAction = "milestone_done"
)

// AssessorVerdict is the assessor's closed set of outcomes.
type AssessorVerdict string

const (
	VerdictAligned           AssessorVerdict = "aligned"
	VerdictMinorDrift        AssessorVerdict = "minor_drift"
	VerdictMajorDivergence   AssessorVerdict = "major_divergence"
	VerdictMilestoneComplete AssessorVerdict = "milestone_complete"
)

// RunStatus is the terminal classification of a run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusComplete RunStatus = "complete"
	StatusFailed   RunStatus = "failed"
)

// DirectiveType distinguishes supervisory directives that interrupt
// planning (functional) from ones that merely queue cleanup work.
type DirectiveType string

const (
	DirectiveFunctional DirectiveType = "functional"
	DirectiveCleanup    DirectiveType = "cleanup"
)

// Milestone is a user-observable interim outcome, not an implementation
// step. Sketch lists non-binding work themes the scope agent anticipated.
type Milestone struct {
	Description string
	Sketch      []string
}

// DoneEntry is an append-only record of a completed, skipped, or failed
// task. Entries are never mutated or removed once appended.
type DoneEntry struct {
	TaskDescription string
	ResultSummary   string
	QAFeedback      string
	MilestoneIndex  int
	Skipped         bool
	Failed          bool
}

// ImplementationResult is what the implementor node reports after acting
// on a plan.
type ImplementationResult struct {
	FilesModified []string
	ResultSummary string
	Issues        []string
	Success       bool
}

// QAResult is the QA node's verdict on an ImplementationResult.
type QAResult struct {
	Passed   bool
	Feedback string
	Issues   []string
}

// Directive is a supervisory instruction placed onto the planner's queue
// by an external supervisor. Functional directives prepend to
// carry-forward; cleanup directives append.
type Directive struct {
	Type        DirectiveType
	Source      string
	Description string
	Rationale   string
	Priority    int
}

// State is the single record mutated by successive node updates. Node
// handlers receive the current State, compute the next one, and return
// it as a NodeResult delta; the engine owns State exclusively and never
// lets a node mutate it in place.
type State struct {
	RunID     string
	StartedAt time.Time
	UpdatedAt time.Time

	// Immutable inputs.
	UserRequest string
	RepoRoot    string

	// Scope.
	Remit                 string
	Milestones            []Milestone
	ActiveMilestoneIndex  int

	// Sliding window.
	DoneList          []DoneEntry
	RollupByMilestone map[int]string
	CarryForward      []string

	// Current task (ephemeral; cleared on task boundary).
	CurrentTaskDescription      string
	CurrentImplementationPlan   string
	CurrentImplementationResult *ImplementationResult
	CurrentQAResult             *QAResult

	// Routing controls.
	TaskPlannerAction   TaskPlannerAction
	EscalationContext   string
	CorrectionHint      string
	DivergenceAnalysis  string
	PriorWork           string
	LastAssessorVerdict AssessorVerdict

	// Counters.
	TasksSinceLastReview int
	ReviewInterval       int
	AttemptCount         int
	MaxAttempts          int
	Urgency              float64
	AbortsThisMilestone  int

	// Directives.
	PendingDirectives []Directive

	// Status.
	Status     RunStatus
	Error      string
	WorkReport string

	// Driver bookkeeping, not part of the domain model proper but carried
	// on State since the engine has nowhere else to put it between steps.
	CurrentNode   string
	Iterations    int
	MaxIterations int
}

// ClearCurrentTask nils out the ephemeral per-task fields. Every
// bookkeeping node calls this after folding them into a DoneEntry.
func (s State) ClearCurrentTask() State {
	s.CurrentTaskDescription = ""
	s.CurrentImplementationPlan = ""
	s.CurrentImplementationResult = nil
	s.CurrentQAResult = nil
	return s
}

// ActiveMilestone returns the milestone at ActiveMilestoneIndex. It
// panics if called while that index is out of range, which should never
// happen while Status == StatusRunning (see the active-milestone-index
// invariant).
func (s State) ActiveMilestone() Milestone {
	return s.Milestones[s.ActiveMilestoneIndex]
}
