// Package model abstracts chat-completion providers behind one
// interface so the agent package can bind a model role (primary,
// summarizer, research, supervisor) to whichever provider that
// role's configuration names, without the rest of the codebase caring
// which SDK is underneath.
package model

import "context"

// Role is a conversation turn's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries a tool's result back into the conversation.
	// Adapters that don't distinguish it from RoleUser still render it
	// as a normal turn, which is correct for providers whose SDK
	// wrapper this codebase talks to through plain text content.
	RoleTool Role = "tool"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// ToolSpec declares a tool a model may call during Chat. Schema is a
// JSON Schema describing the tool's input shape.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ToolCall is a model-requested invocation of one of the ToolSpecs
// passed to Chat.
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}

// ChatOut is a model's response: free text plus zero or more tool calls
// the caller is expected to execute and feed back as a follow-up turn.
type ChatOut struct {
	Text       string
	ToolCalls  []ToolCall
	InputTokens  int
	OutputTokens int
}

// ChatModel is the interface every provider adapter implements.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}
