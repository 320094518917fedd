// Package tool defines the shared Tool interface every subagent and
// file-edit capability implements.
package tool

import "context"

// Tool is an opaque capability with a declared input/output shape. The
// engine never calls a Tool directly; the AgentInvoker does, once a
// ChatModel returns a ToolCall naming it, and the Implementor/Planner
// nodes only assemble the set a round offers.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]interface{}
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}

// Spec describes a Tool's declared shape for the model.ToolSpec the
// AgentInvoker passes to a ChatModel.
type Spec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}
