package nodes

import (
	"context"
	"fmt"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/filetool"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/tool"
	"github.com/taskforge-dev/taskforge/workflow"
)

// ImplementorNode performs the current plan using file edit/read/search
// tools. It must not claim a file was modified without a successful
// tool call — QA's deterministic pre-step checks this independently,
// but the implementor's own tool-call discipline is the first line of
// defense.
type ImplementorNode struct {
	Invoker  *agent.Invoker
	Edit     *filetool.EditFile
	Read     *filetool.ReadFile
	Find     *filetool.FindFilesByName
}

type implementorOutput struct {
	FilesModified []string `json:"files_modified"`
	ResultSummary string   `json:"result_summary"`
	Issues        []string `json:"issues"`
	Success       bool     `json:"success"`
}

func (n *ImplementorNode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	tools := []tool.Tool{n.Edit, n.Read, n.Find}
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "You are the implementor. Carry out the plan using the " +
			"available file tools, then report what you changed. Respond as JSON: " +
			"{\"files_modified\": [\"...\"], \"result_summary\": \"...\", \"issues\": [\"...\"], \"success\": true}."},
		{Role: model.RoleUser, Content: fmt.Sprintf("Repo root: %s\nPlan:\n%s", s.RepoRoot, s.CurrentImplementationPlan)},
	}

	out, err := n.Invoker.Invoke(ctx, agent.RolePrimary, workflow.NodeImplementor, messages, tools)
	if err != nil {
		return workflow.NodeResult{Err: &errs.ToolError{Tool: "implementor", NodeID: workflow.NodeImplementor, Cause: err}}
	}

	var parsed implementorOutput
	if _, err := agent.NormaliseJSON(out.Text, &parsed); err != nil {
		parsed = implementorOutput{
			ResultSummary: n.Invoker.SummariseField(ctx, out.Text, 300),
			Success:       false,
			Issues:        []string{"could not normalise implementor output"},
		}
	}

	next := s
	next.CurrentImplementationResult = &workflow.ImplementationResult{
		FilesModified: agent.DedupStrings(parsed.FilesModified),
		ResultSummary: n.Invoker.SummariseField(ctx, parsed.ResultSummary, 300),
		Issues:        parsed.Issues,
		Success:       parsed.Success,
	}
	return workflow.NodeResult{Delta: next}
}
