package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/tool"
	"github.com/taskforge-dev/taskforge/workflow"
)

// recentDoneEntries is the window size held in full (the last 5-7
// entries); older entries are compacted by the planner into
// RollupByMilestone.
const recentDoneEntries = 6

// maxCarryForward bounds carry-forward to what the sliding-window
// contract allows.
const maxCarryForward = 10

// PlannerNode is the hardest subsystem: every round it re-derives
// carry-forward from current knowledge, selects at most one cohesive
// task, and returns exactly one of four actions.
type PlannerNode struct {
	Invoker *agent.Invoker
	Tools   []tool.Tool
}

type plannerOutput struct {
	Action              string   `json:"action"`
	TaskDescription      string   `json:"task_description"`
	ImplementationPlan  string   `json:"implementation_plan"`
	CarryForward        []string `json:"carry_forward"`
	EscalationContext   string   `json:"escalation_context"`
	MilestoneRollup     string   `json:"milestone_rollup"`
}

func (n *PlannerNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	if len(s.Milestones) == 0 || s.ActiveMilestoneIndex >= len(s.Milestones) {
		return workflow.NodeResult{Err: &errs.PlannerError{Reason: "no active milestone"}}
	}

	carryForward := applyDirectives(s)

	messages := n.buildMessages(s, carryForward)
	out, err := n.Invoker.Invoke(ctx, agent.RolePrimary, workflow.NodeTaskPlanner, messages, n.Tools)
	if err != nil {
		return workflow.NodeResult{Err: &errs.PlannerError{Reason: "model invocation failed", Cause: err}}
	}

	var parsed plannerOutput
	if _, err := agent.NormaliseJSON(out.Text, &parsed); err != nil {
		return workflow.NodeResult{Err: &errs.PlannerError{Reason: "could not normalise planner output", Cause: err}}
	}

	action := workflow.TaskPlannerAction(parsed.Action)
	switch action {
	case workflow.ActionImplement, workflow.ActionSkip, workflow.ActionAbort, workflow.ActionMilestoneDone:
	default:
		return workflow.NodeResult{Err: &errs.PlannerError{Reason: fmt.Sprintf("unrecognised action %q", parsed.Action)}}
	}

	next := s
	next.TaskPlannerAction = action
	next.CurrentTaskDescription = parsed.TaskDescription

	newCarryForward := agent.DedupStrings(parsed.CarryForward)
	if len(newCarryForward) > maxCarryForward {
		newCarryForward = newCarryForward[:maxCarryForward]
	}
	next = workflow.Ledger{}.RecordCarryForwardChurn(next, carryForward, newCarryForward)
	next.CarryForward = newCarryForward

	if parsed.MilestoneRollup != "" {
		if next.RollupByMilestone == nil {
			next.RollupByMilestone = make(map[int]string)
		}
		next.RollupByMilestone[s.ActiveMilestoneIndex] = parsed.MilestoneRollup
	}

	switch action {
	case workflow.ActionImplement:
		next.CurrentImplementationPlan = n.Invoker.SummariseField(ctx, parsed.ImplementationPlan, 4000)
	case workflow.ActionAbort:
		next.EscalationContext = parsed.EscalationContext
		next = workflow.Ledger{}.RecordAbort(next)
	}

	next.PendingDirectives = consumeAllDirectives(s.PendingDirectives)

	return workflow.NodeResult{Delta: next}
}

// applyDirectives folds every pending directive into carry-forward
// (functional prepends, cleanup appends) before the planner sees it.
// The caller clears PendingDirectives at the end of every planner round
// (see consumeAllDirectives), whatever action the round chose; a
// directive is not kept pending until the task it inspired completes
// or is abandoned.
func applyDirectives(s workflow.State) []string {
	carryForward := append([]string{}, s.CarryForward...)
	for _, d := range s.PendingDirectives {
		carryForward = workflow.ApplyDirective(carryForward, d)
	}
	return carryForward
}

// consumeAllDirectives treats every directive folded into this round's
// carry-forward as consumed. A richer implementation might track which
// directive produced which carry-forward item and only consume the
// ones whose task resolved this round; this engine's planner re-derives
// carry-forward from scratch every round regardless, so there is no
// partial-consumption case to track.
func consumeAllDirectives(pending []workflow.Directive) []workflow.Directive {
	return nil
}

func (n *PlannerNode) buildMessages(s workflow.State, carryForward []string) []model.Message {
	milestone := s.ActiveMilestone()

	var b strings.Builder
	fmt.Fprintf(&b, "Milestone: %s\n", milestone.Description)
	if len(milestone.Sketch) > 0 {
		fmt.Fprintf(&b, "Sketch: %s\n", strings.Join(milestone.Sketch, "; "))
	}
	if rollup, ok := s.RollupByMilestone[s.ActiveMilestoneIndex]; ok && rollup != "" {
		fmt.Fprintf(&b, "Rollup of earlier work this milestone:\n%s\n", rollup)
	}
	fmt.Fprintf(&b, "Recent completed/failed tasks:\n")
	for _, entry := range recentEntries(s.DoneList, s.ActiveMilestoneIndex) {
		fmt.Fprintf(&b, "- %s (failed=%v, skipped=%v): %s\n", entry.TaskDescription, entry.Failed, entry.Skipped, entry.ResultSummary)
	}
	fmt.Fprintf(&b, "Carry-forward: %s\n", strings.Join(carryForward, "; "))
	if s.CurrentQAResult != nil && !s.CurrentQAResult.Passed {
		fmt.Fprintf(&b, "Last QA feedback: %s (issues: %s)\n", s.CurrentQAResult.Feedback, strings.Join(s.CurrentQAResult.Issues, "; "))
	}
	if s.CorrectionHint != "" {
		fmt.Fprintf(&b, "Correction hint from assessor: %s\n", s.CorrectionHint)
	}

	sys := model.Message{
		Role: model.RoleSystem,
		Content: "You are the task planner. Pick exactly one cohesive next task, or declare the " +
			"milestone done, skipped, or infeasible. Respond as JSON: {\"action\": " +
			"\"implement|skip|abort|milestone_done\", \"task_description\": \"...\", " +
			"\"implementation_plan\": \"...\", \"carry_forward\": [\"...\"], " +
			"\"escalation_context\": \"...\", \"milestone_rollup\": \"...\"}. " +
			"You may call explain_code, ask, web_search, rag_search, find_files_by_name, " +
			"or read_file_lines before deciding.",
	}
	return []model.Message{sys, {Role: model.RoleUser, Content: b.String()}}
}

// recentEntries returns up to recentDoneEntries done entries belonging
// to milestoneIndex, most recent last.
func recentEntries(all []workflow.DoneEntry, milestoneIndex int) []workflow.DoneEntry {
	var forMilestone []workflow.DoneEntry
	for _, e := range all {
		if e.MilestoneIndex == milestoneIndex {
			forMilestone = append(forMilestone, e)
		}
	}
	if len(forMilestone) > recentDoneEntries {
		return forMilestone[len(forMilestone)-recentDoneEntries:]
	}
	return forMilestone
}
