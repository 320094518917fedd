// Package nodes implements the five agent nodes (scope, planner,
// implementor, qa, assessor) and the three bookkeeping nodes
// (mark_complete, mark_failed, increment_attempt) as workflow.Node
// handlers.
package nodes

import (
	"context"
	"fmt"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/workflow"
)

// ScopeNode produces remit and milestones from the user request, or
// re-plans from prior_work + divergence_analysis when entered after a
// major-divergence verdict.
type ScopeNode struct {
	Invoker *agent.Invoker
}

type scopeOutput struct {
	Remit      string `json:"remit"`
	Milestones []struct {
		Description string   `json:"description"`
		Sketch      []string `json:"sketch"`
	} `json:"milestones"`
}

func (n *ScopeNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	messages := n.buildMessages(s)
	out, err := n.Invoker.Invoke(ctx, agent.RolePrimary, workflow.NodeScopeAgent, messages, nil)
	if err != nil {
		return workflow.NodeResult{Err: &errs.ScopeError{Reason: "model invocation failed", Cause: err}}
	}

	var parsed scopeOutput
	if _, err := agent.NormaliseJSON(out.Text, &parsed); err != nil {
		return workflow.NodeResult{Err: &errs.ScopeError{Reason: "could not normalise scope output", Cause: err}}
	}

	remit := n.Invoker.SummariseField(ctx, parsed.Remit, 1000)
	if len(parsed.Milestones) == 0 {
		return workflow.NodeResult{Err: &errs.ScopeError{Reason: "scope agent produced zero milestones"}}
	}

	preserved := preservedMilestones(s)
	var newMilestones []workflow.Milestone
	for _, m := range parsed.Milestones {
		desc := n.Invoker.SummariseField(ctx, m.Description, 200)
		newMilestones = append(newMilestones, workflow.Milestone{
			Description: desc,
			Sketch:      agent.DedupStrings(m.Sketch),
		})
	}

	next := s
	next.Remit = remit
	next.Milestones = append(preserved, newMilestones...)
	next.ActiveMilestoneIndex = len(preserved)
	next.CarryForward = nil
	next.TasksSinceLastReview = 0
	next.AttemptCount = 0
	next.AbortsThisMilestone = 0
	next.Urgency = 0
	next.PriorWork = ""
	next.DivergenceAnalysis = ""

	return workflow.NodeResult{Delta: next}
}

// preservedMilestones returns the milestones before the active one at
// re-plan time: completed milestones are immutable.
func preservedMilestones(s workflow.State) []workflow.Milestone {
	if s.PriorWork == "" && s.DivergenceAnalysis == "" {
		return nil // first scoping pass, nothing to preserve
	}
	if s.ActiveMilestoneIndex <= 0 || s.ActiveMilestoneIndex > len(s.Milestones) {
		return nil
	}
	out := make([]workflow.Milestone, s.ActiveMilestoneIndex)
	copy(out, s.Milestones[:s.ActiveMilestoneIndex])
	return out
}

func (n *ScopeNode) buildMessages(s workflow.State) []model.Message {
	sys := model.Message{
		Role: model.RoleSystem,
		Content: "You are the scope agent. Produce a remit (<=1000 chars) and an ordered list of " +
			"milestones, each a user-observable outcome (not an implementation step) with a short " +
			"sketch of work themes. Respond as JSON: {\"remit\": \"...\", \"milestones\": " +
			"[{\"description\": \"...\", \"sketch\": [\"...\"]}]}.",
	}
	if s.DivergenceAnalysis != "" {
		return []model.Message{sys, {
			Role: model.RoleUser,
			Content: fmt.Sprintf(
				"The prior plan diverged from the original request.\nOriginal request: %s\nPrior work: %s\nDivergence analysis: %s\nRe-plan the remaining milestones.",
				s.UserRequest, s.PriorWork, s.DivergenceAnalysis),
		}}
	}
	return []model.Message{sys, {Role: model.RoleUser, Content: s.UserRequest}}
}
