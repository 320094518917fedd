// Package mock provides a scriptable model.ChatModel for tests, in the
// same spirit as the anthropicClient/openaiClient interfaces that exist
// precisely so a fake can stand in for the real SDK call.
package mock

import (
	"context"
	"fmt"

	"github.com/taskforge-dev/taskforge/model"
)

// ChatModel replies with pre-scripted outputs in call order. Calling it
// more times than it has scripted responses is a test bug, not a
// runtime condition, so it panics rather than returning a zero value.
type ChatModel struct {
	Responses []model.ChatOut
	Errs      []error
	calls     int
	Recorded  [][]model.Message
}

// NewChatModel returns a ChatModel that plays back responses in order.
func NewChatModel(responses ...model.ChatOut) *ChatModel {
	return &ChatModel{Responses: responses}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	m.Recorded = append(m.Recorded, messages)
	idx := m.calls
	m.calls++
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return model.ChatOut{}, m.Errs[idx]
	}
	if idx >= len(m.Responses) {
		panic(fmt.Sprintf("mock.ChatModel: call %d exceeds %d scripted responses", idx, len(m.Responses)))
	}
	return m.Responses[idx], nil
}
