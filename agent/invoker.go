package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/tool"
)

// maxToolRounds bounds how many times Invoke will feed tool results
// back for another model turn before returning whatever text it has,
// so a model that keeps calling tools without ever answering can't
// spin the node loop forever.
const maxToolRounds = 6

// Invoker is the AgentInvoker component: it binds a ModelRole, applies
// the role's token budget, runs the summarization middleware when a
// node asks for it, records cost, and drives the tool-call loop: every
// ToolCall a model returns gets executed against the matching Tool and
// its result fed back as the next turn, until the model stops calling
// tools or the round cap is hit.
type Invoker struct {
	registry    *Registry
	summarizer  *SummarizationMiddleware
	cost        *CostTracker
	budgets     map[ModelRole]int
	modelNames  map[ModelRole]string
}

// NewInvoker builds an Invoker. modelNames lets CostTracker attribute
// spend to the right pricing row without the model.ChatModel interface
// needing a Name() method.
func NewInvoker(registry *Registry, summarizer *SummarizationMiddleware, cost *CostTracker, budgets map[ModelRole]int, modelNames map[ModelRole]string) *Invoker {
	return &Invoker{
		registry:   registry,
		summarizer: summarizer,
		cost:       cost,
		budgets:    budgets,
		modelNames: modelNames,
	}
}

// Invoke calls the model bound to role with messages and tools,
// compressing first if the role's budget is exceeded and the
// conversation is long enough to warrant it. A hard excess after
// compression raises errs.BudgetError so the caller's retry path (the
// planner) can decide what to do.
//
// Once the model replies, any ToolCalls it returned are executed
// against the matching entry in tools and their results appended as
// the next turn, repeating until a reply carries no more tool calls
// or maxToolRounds is reached. Every tool call from the earlier rounds
// has run by the time Invoke returns; a reply returned because
// maxToolRounds was reached still carries its own ToolCalls, which
// have not been executed. A call naming a tool not in tools is
// answered with a "no such tool" result turn instead of being run.
func (inv *Invoker) Invoke(ctx context.Context, role ModelRole, nodeID string, messages []model.Message, tools []tool.Tool) (model.ChatOut, error) {
	budget := inv.budgets[role]
	if budget > 0 && estimateTokens(messages) > budget && inv.summarizer != nil {
		compressed, err := inv.summarizer.MaybeCompress(ctx, messages)
		if err != nil {
			return model.ChatOut{}, &errs.ToolError{Tool: "summarizer", NodeID: nodeID, Cause: err}
		}
		messages = compressed
	}
	if budget > 0 && estimateTokens(messages) > budget {
		return model.ChatOut{}, &errs.BudgetError{Kind: "token", Limit: float64(budget), Current: float64(estimateTokens(messages))}
	}

	m := inv.registry.For(role)
	if m == nil {
		return model.ChatOut{}, fmt.Errorf("agent: no model configured for role %q or primary fallback", role)
	}

	specs := toolSpecs(tools)
	byName := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}

	convo := messages
	var out model.ChatOut
	for round := 0; ; round++ {
		var err error
		out, err = m.Chat(ctx, convo, specs)
		if err != nil {
			return model.ChatOut{}, fmt.Errorf("agent: invoke %s: %w", role, err)
		}
		if inv.cost != nil {
			if name, ok := inv.modelNames[role]; ok {
				inv.cost.Record(name, out)
			}
		}
		if len(out.ToolCalls) == 0 || round >= maxToolRounds {
			return out, nil
		}

		convo = append(convo, model.Message{Role: model.RoleAssistant, Content: out.Text})
		for _, call := range out.ToolCalls {
			t, ok := byName[call.Name]
			if !ok {
				convo = append(convo, model.Message{Role: model.RoleTool, Content: fmt.Sprintf("%s: no such tool", call.Name)})
				continue
			}
			result, callErr := t.Call(ctx, call.Input)
			convo = append(convo, toolResultMessage(call.Name, result, callErr))
		}
	}
}

// SummariseField returns text fit to at most limit runes. A field under
// twice the limit is hard-truncated at a sentence boundary, same as a
// bare TruncateAtSentence call; one that overshot further is worth the
// extra model round, so it goes through the summarizer role first and
// is only then truncated as a backstop against the summary itself
// running long.
func (inv *Invoker) SummariseField(ctx context.Context, text string, limit int) string {
	if len([]rune(text)) <= limit*2 || inv.summarizer == nil {
		return TruncateAtSentence(text, limit)
	}
	digest, err := inv.summarizer.SummariseField(ctx, text, limit)
	if err != nil {
		return TruncateAtSentence(text, limit)
	}
	return TruncateAtSentence(digest, limit)
}

// toolResultMessage renders a tool's outcome as the next conversation
// turn. Errors are reported as content rather than surfaced to the
// caller, the same way a human operator would relay "that failed"
// back to the model rather than aborting the exchange.
func toolResultMessage(name string, result map[string]interface{}, callErr error) model.Message {
	if callErr != nil {
		return model.Message{Role: model.RoleTool, Content: fmt.Sprintf("%s: error: %s", name, callErr.Error())}
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return model.Message{Role: model.RoleTool, Content: fmt.Sprintf("%s: error: could not encode result", name)}
	}
	return model.Message{Role: model.RoleTool, Content: fmt.Sprintf("%s: %s", name, encoded)}
}

// toolSpecs declares each tool's full shape to the model, sourced
// directly from the Tool's own Description/Schema rather than a
// name-only stub.
func toolSpecs(tools []tool.Tool) []model.ToolSpec {
	specs := make([]model.ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = model.ToolSpec{Name: t.Name(), Description: t.Description(), Schema: t.Schema()}
	}
	return specs
}
