package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskforge-dev/taskforge/agent"
	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/filetool"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/workflow"
)

// QANode runs the deterministic file-existence pre-step before ever
// spending an LLM token, then asks the model to judge whether the
// measurable outcome was met.
type QANode struct {
	Invoker *agent.Invoker
}

type qaOutput struct {
	Passed   bool     `json:"passed"`
	Feedback string   `json:"feedback"`
	Issues   []string `json:"issues"`
}

func (n *QANode) Run(ctx context.Context, s workflow.State) workflow.NodeResult {
	result := s.CurrentImplementationResult
	if result == nil {
		return workflow.NodeResult{Err: &errs.ToolError{Tool: "qa", NodeID: workflow.NodeQA, Cause: fmt.Errorf("no implementation result to validate")}}
	}

	if ok, issues := filetool.CheckFilesExist(s.RepoRoot, result.FilesModified); !ok {
		next := s
		next.CurrentQAResult = &workflow.QAResult{Passed: false, Feedback: "deterministic file check failed", Issues: issues}
		next = workflow.Ledger{}.RecordQAFail(next)
		return workflow.NodeResult{Delta: next}
	}

	content := readReportedFiles(ctx, s.RepoRoot, result.FilesModified)
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "You are QA. Compare the plan and the actual file contents to " +
			"judge whether the measurable outcome was met. Respond as JSON: {\"passed\": true, " +
			"\"feedback\": \"...\", \"issues\": [\"...\"]}."},
		{Role: model.RoleUser, Content: fmt.Sprintf("Plan:\n%s\n\nReported result: %s\n\nFile contents:\n%s",
			s.CurrentImplementationPlan, result.ResultSummary, content)},
	}

	out, err := n.Invoker.Invoke(ctx, agent.RoleResearch, workflow.NodeQA, messages, nil)
	if err != nil {
		return workflow.NodeResult{Err: &errs.ToolError{Tool: "qa", NodeID: workflow.NodeQA, Cause: err}}
	}

	var parsed qaOutput
	if _, err := agent.NormaliseJSON(out.Text, &parsed); err != nil {
		parsed = qaOutput{Passed: false, Issues: []string{"could not normalise QA output"}}
	}

	next := s
	next.CurrentQAResult = &workflow.QAResult{
		Passed:   parsed.Passed,
		Feedback: n.Invoker.SummariseField(ctx, parsed.Feedback, 500),
		Issues:   parsed.Issues,
	}
	if !parsed.Passed {
		next = workflow.Ledger{}.RecordQAFail(next)
	}
	return workflow.NodeResult{Delta: next}
}

// readReportedFiles reads up to 50 lines of each of up to 10 reported
// files, kept well within the QA model's token budget.
func readReportedFiles(ctx context.Context, repoRoot string, paths []string) string {
	reader := &filetool.ReadFile{RepoRoot: repoRoot}
	limit := paths
	if len(limit) > 10 {
		limit = limit[:10]
	}
	var b strings.Builder
	for _, p := range limit {
		out, err := reader.Call(ctx, map[string]interface{}{"path": p, "start_line": float64(0), "end_line": float64(50)})
		if err != nil {
			fmt.Fprintf(&b, "=== %s ===\n(unreadable: %v)\n\n", p, err)
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n%v\n\n", p, out["lines"])
	}
	return b.String()
}
