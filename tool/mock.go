package tool

import (
	"context"
	"sync"
)

// MockTool is a scriptable Tool for node tests: it returns queued
// Responses in order (repeating the last one once exhausted), or Err if
// set, and records every call for assertions.
type MockTool struct {
	ToolName        string
	ToolDescription string
	ToolSchema      map[string]interface{}
	Responses       []map[string]interface{}
	Err             error
	Calls           []map[string]interface{}

	mu        sync.Mutex
	callIndex int
}

func (m *MockTool) Name() string { return m.ToolName }

func (m *MockTool) Description() string { return m.ToolDescription }

func (m *MockTool) Schema() map[string]interface{} { return m.ToolSchema }

func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, input)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return map[string]interface{}{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// CallCount returns the number of times Call has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
