// Package subagent implements the planner's research tools
// (explain_code, ask, web_search, rag_search) as self-contained
// synchronous call/return loops. These are not graph nodes and are not
// statically introspectable — they trade debug visibility for
// flexibility, the same tradeoff made by tool-calling helpers that never
// expose their sub-LLM-calls as nodes either.
package subagent

import (
	"context"
	"fmt"

	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/retrieval"
)

// ExplainCode answers a question about the repository by retrieving
// relevant snippets and asking the research-role model to explain them.
type ExplainCode struct {
	Index     retrieval.Index
	Research  model.ChatModel
}

func (t *ExplainCode) Name() string { return "explain_code" }

func (t *ExplainCode) Description() string {
	return "Retrieve relevant repository snippets and explain them in relation to a question."
}

func (t *ExplainCode) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		"required":   []string{"query"},
	}
}

func (t *ExplainCode) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: query")}
	}

	snippets, err := t.Index.Search(ctx, query, 8)
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}

	var context string
	for _, s := range snippets {
		context += fmt.Sprintf("=== %s:%d-%d ===\n%s\n\n", s.Path, s.StartLine, s.EndLine, s.Text)
	}

	out, err := t.Research.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "Explain the following code in relation to the question. Be concise."},
		{Role: model.RoleUser, Content: fmt.Sprintf("Question: %s\n\nCode:\n%s", query, context)},
	}, nil)
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	return map[string]interface{}{"explanation": out.Text}, nil
}

// Ask is a free-form question to the research-role model, with no
// repository context attached. Used when the planner needs general
// domain knowledge rather than something grounded in this repo.
type Ask struct {
	Research model.ChatModel
}

func (t *Ask) Name() string { return "ask" }

func (t *Ask) Description() string {
	return "Ask the research model a free-form question with no repository context attached."
}

func (t *Ask) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		"required":   []string{"query"},
	}
}

func (t *Ask) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: query")}
	}
	out, err := t.Research.Chat(ctx, []model.Message{
		{Role: model.RoleUser, Content: query},
	}, nil)
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	return map[string]interface{}{"answer": out.Text}, nil
}

// WebSearcher is the external web search backend WebSearch calls. Kept
// as a narrow interface so tests can stub it without a live network
// dependency.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// WebSearch wraps an external web search backend as a tool.
type WebSearch struct {
	Backend WebSearcher
}

func (t *WebSearch) Name() string { return "web_search" }

func (t *WebSearch) Description() string {
	return "Search the web for a query and return a list of result snippets."
}

func (t *WebSearch) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		"required":   []string{"query"},
	}
}

func (t *WebSearch) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: query")}
	}
	results, err := t.Backend.Search(ctx, query)
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	return map[string]interface{}{"results": results}, nil
}

// RAGSearch exposes retrieval.Index directly as a tool, for planner
// calls that want ranked snippets without an explanatory pass.
type RAGSearch struct {
	Index retrieval.Index
}

func (t *RAGSearch) Name() string { return "rag_search" }

func (t *RAGSearch) Description() string {
	return "Return ranked repository snippets for a query without an explanatory pass."
}

func (t *RAGSearch) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
			"limit": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"query"},
	}
}

func (t *RAGSearch) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: fmt.Errorf("missing required field: query")}
	}
	limit := 8
	if l, ok := input["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	snippets, err := t.Index.Search(ctx, query, limit)
	if err != nil {
		return nil, &errs.ToolError{Tool: t.Name(), Cause: err}
	}
	results := make([]map[string]interface{}, len(snippets))
	for i, s := range snippets {
		results[i] = map[string]interface{}{
			"path": s.Path, "start_line": s.StartLine, "end_line": s.EndLine,
			"text": s.Text, "score": s.Score,
		}
	}
	return map[string]interface{}{"results": results}, nil
}
