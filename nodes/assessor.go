package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/workflow"
)

// AssessorNode judges alignment between the work done and the original
// remit. It is the only node that can route back to the scope agent.
type AssessorNode struct {
	Invoker *agent.Invoker
}

type assessorOutput struct {
	Verdict            string `json:"verdict"`
	CorrectionHint     string `json:"correction_hint"`
	DivergenceAnalysis string `json:"divergence_analysis"`
}

func (n *AssessorNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	messages := n.buildMessages(s)
	out, err := n.Invoker.Invoke(ctx, agent.RoleSupervisor, workflow.NodeAssessor, messages, nil)
	if err != nil {
		return workflow.NodeResult{Err: &errs.ToolError{Tool: "assessor", NodeID: workflow.NodeAssessor, Cause: err}}
	}

	var parsed assessorOutput
	if _, err := agent.NormaliseJSON(out.Text, &parsed); err != nil {
		parsed = assessorOutput{Verdict: string(workflow.VerdictAligned)}
	}

	next := workflow.Ledger{}.ResetOnAssessor(s)
	verdict := workflow.AssessorVerdict(parsed.Verdict)
	next.LastAssessorVerdict = verdict

	switch verdict {
	case workflow.VerdictMinorDrift:
		next.CorrectionHint = n.Invoker.SummariseField(ctx, parsed.CorrectionHint, 200)
		next.CarryForward = nil
		next = workflow.Ledger{}.RecordMinorDrift(next)
	case workflow.VerdictMajorDivergence:
		next.DivergenceAnalysis = parsed.DivergenceAnalysis
		next.PriorWork = rollupAllDone(s)
	case workflow.VerdictMilestoneComplete:
		if next.ActiveMilestoneIndex+1 < len(next.Milestones) {
			next.ActiveMilestoneIndex++
			next = workflow.Ledger{}.ResetOnMilestoneAdvance(next)
		} else {
			next.Status = workflow.StatusComplete
		}
	case workflow.VerdictAligned:
		next.CorrectionHint = ""
	default:
		next.LastAssessorVerdict = workflow.VerdictAligned
	}

	return workflow.NodeResult{Delta: next}
}

func rollupAllDone(s workflow.State) string {
	var b strings.Builder
	for idx, rollup := range s.RollupByMilestone {
		fmt.Fprintf(&b, "Milestone %d rollup: %s\n", idx, rollup)
	}
	for _, e := range s.DoneList {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", statusLabel(e), e.TaskDescription, e.ResultSummary)
	}
	return b.String()
}

func statusLabel(e workflow.DoneEntry) string {
	switch {
	case e.Failed:
		return "failed"
	case e.Skipped:
		return "skipped"
	default:
		return "done"
	}
}

func (n *AssessorNode) buildMessages(s workflow.State) []model.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Remit: %s\n", s.Remit)
	if s.ActiveMilestoneIndex < len(s.Milestones) {
		fmt.Fprintf(&b, "Current milestone: %s\n", s.Milestones[s.ActiveMilestoneIndex].Description)
	}
	fmt.Fprintf(&b, "Done since last review:\n")
	for _, e := range s.DoneList {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", statusLabel(e), e.TaskDescription, e.ResultSummary)
	}
	fmt.Fprintf(&b, "Carry-forward: %s\n", strings.Join(s.CarryForward, "; "))
	if s.EscalationContext != "" {
		fmt.Fprintf(&b, "Escalation context from abort: %s\n", s.EscalationContext)
	}

	sys := model.Message{
		Role: model.RoleSystem,
		Content: "You are the assessor. Judge alignment with the remit. Respond as JSON: " +
			"{\"verdict\": \"aligned|minor_drift|major_divergence|milestone_complete\", " +
			"\"correction_hint\": \"...\", \"divergence_analysis\": \"...\"}.",
	}
	return []model.Message{sys, {Role: model.RoleUser, Content: b.String()}}
}
