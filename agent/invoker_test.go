package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-dev/taskforge/errs"
	"github.com/taskforge-dev/taskforge/model"
	"github.com/taskforge-dev/taskforge/model/mock"
	"github.com/taskforge-dev/taskforge/tool"
)

func TestInvokerPassesThroughUnderBudget(t *testing.T) {
	primary := mock.NewChatModel(model.ChatOut{Text: "ok"})
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: primary})
	inv := NewInvoker(registry, nil, NewCostTracker(), map[ModelRole]int{RolePrimary: 1000}, nil)

	out, err := inv.Invoke(context.Background(), RolePrimary, "scope_agent", []model.Message{
		{Role: model.RoleUser, Content: "short request"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
}

func TestInvokerCompressesOverBudgetThenSucceeds(t *testing.T) {
	primary := mock.NewChatModel(model.ChatOut{Text: "final"})
	summarizerModel := mock.NewChatModel(model.ChatOut{Text: "digest of older turns"})
	registry := NewRegistry(map[ModelRole]model.ChatModel{
		RolePrimary:    primary,
		RoleSummarizer: summarizerModel,
	})
	summarizer := NewSummarizationMiddleware(summarizerModel, 10, 1)
	inv := NewInvoker(registry, summarizer, NewCostTracker(), map[ModelRole]int{RolePrimary: 20}, nil)

	messages := []model.Message{
		{Role: model.RoleUser, Content: strings.Repeat("word ", 50)},
		{Role: model.RoleAssistant, Content: strings.Repeat("word ", 50)},
		{Role: model.RoleUser, Content: "final turn"},
	}

	out, err := inv.Invoke(context.Background(), RolePrimary, "task_planner", messages, nil)
	require.NoError(t, err)
	assert.Equal(t, "final", out.Text)

	require.Len(t, primary.Recorded, 1)
	sent := primary.Recorded[0]
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Content, "digest of older turns")
	assert.Equal(t, "final turn", sent[1].Content)
}

func TestInvokerRaisesBudgetErrorWhenStillOverAfterCompression(t *testing.T) {
	primary := mock.NewChatModel(model.ChatOut{Text: "unused"})
	summarizerModel := mock.NewChatModel(model.ChatOut{Text: strings.Repeat("still too long ", 50)})
	registry := NewRegistry(map[ModelRole]model.ChatModel{
		RolePrimary:    primary,
		RoleSummarizer: summarizerModel,
	})
	summarizer := NewSummarizationMiddleware(summarizerModel, 10, 1)
	inv := NewInvoker(registry, summarizer, NewCostTracker(), map[ModelRole]int{RolePrimary: 5}, nil)

	messages := []model.Message{
		{Role: model.RoleUser, Content: strings.Repeat("word ", 50)},
		{Role: model.RoleUser, Content: "final turn"},
	}

	_, err := inv.Invoke(context.Background(), RolePrimary, "implementor", messages, nil)
	require.Error(t, err)
	var budgetErr *errs.BudgetError
	assert.ErrorAs(t, err, &budgetErr)
}

func TestInvokerExecutesReturnedToolCallsAndFeedsResultsBack(t *testing.T) {
	primary := mock.NewChatModel(
		model.ChatOut{ToolCalls: []model.ToolCall{{Name: "find_files_by_name", Input: map[string]interface{}{"pattern": "*.go"}}}},
		model.ChatOut{Text: "done"},
	)
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: primary})
	inv := NewInvoker(registry, nil, NewCostTracker(), map[ModelRole]int{RolePrimary: 10000}, nil)

	mockTool := &tool.MockTool{
		ToolName:  "find_files_by_name",
		Responses: []map[string]interface{}{{"matches": []string{"a.go"}}},
	}

	out, err := inv.Invoke(context.Background(), RolePrimary, "implementor", []model.Message{
		{Role: model.RoleUser, Content: "find the go files"},
	}, []tool.Tool{mockTool})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Text)
	assert.Equal(t, 1, mockTool.CallCount())

	require.Len(t, primary.Recorded, 2)
	secondTurn := primary.Recorded[1]
	require.Len(t, secondTurn, 3)
	assert.Equal(t, model.RoleTool, secondTurn[2].Role)
	assert.Contains(t, secondTurn[2].Content, "a.go")
}

func TestInvokerStopsAfterMaxToolRounds(t *testing.T) {
	responses := make([]model.ChatOut, maxToolRounds+1)
	for i := range responses {
		responses[i] = model.ChatOut{ToolCalls: []model.ToolCall{{Name: "find_files_by_name", Input: nil}}}
	}
	primary := mock.NewChatModel(responses...)
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: primary})
	inv := NewInvoker(registry, nil, NewCostTracker(), map[ModelRole]int{RolePrimary: 10000}, nil)

	mockTool := &tool.MockTool{ToolName: "find_files_by_name"}

	out, err := inv.Invoke(context.Background(), RolePrimary, "implementor", []model.Message{
		{Role: model.RoleUser, Content: "keep searching"},
	}, []tool.Tool{mockTool})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ToolCalls)
	assert.LessOrEqual(t, mockTool.CallCount(), maxToolRounds+1)
}

func TestSummariseFieldHardTruncatesUnderTwiceTheLimit(t *testing.T) {
	summarizerModel := mock.NewChatModel(model.ChatOut{Text: "should not be called"})
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: summarizerModel, RoleSummarizer: summarizerModel})
	summarizer := NewSummarizationMiddleware(summarizerModel, 10, 1)
	inv := NewInvoker(registry, summarizer, NewCostTracker(), nil, nil)

	text := strings.Repeat("a", 15) + ". " + strings.Repeat("b", 15)
	got := inv.SummariseField(context.Background(), text, 20)
	assert.LessOrEqual(t, len([]rune(got)), 20)
	assert.Empty(t, summarizerModel.Recorded, "the summarizer should never be invoked under the 2x threshold")
}

func TestSummariseFieldInvokesSummarizerOverTwiceTheLimit(t *testing.T) {
	summarizerModel := mock.NewChatModel(model.ChatOut{Text: "short digest"})
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: summarizerModel, RoleSummarizer: summarizerModel})
	summarizer := NewSummarizationMiddleware(summarizerModel, 10, 1)
	inv := NewInvoker(registry, summarizer, NewCostTracker(), nil, nil)

	text := strings.Repeat("word ", 200)
	got := inv.SummariseField(context.Background(), text, 20)
	assert.Equal(t, "short digest", got)
	require.Len(t, summarizerModel.Recorded, 1)
}

func TestSummariseFieldFallsBackToTruncationOnSummarizerError(t *testing.T) {
	summarizerModel := &mock.ChatModel{Errs: []error{assert.AnError}}
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: summarizerModel, RoleSummarizer: summarizerModel})
	summarizer := NewSummarizationMiddleware(summarizerModel, 10, 1)
	inv := NewInvoker(registry, summarizer, NewCostTracker(), nil, nil)

	text := strings.Repeat("word ", 200)
	got := inv.SummariseField(context.Background(), text, 20)
	assert.LessOrEqual(t, len([]rune(got)), 20)
}

func TestInvokerRecordsCostAgainstConfiguredModelName(t *testing.T) {
	primary := mock.NewChatModel(model.ChatOut{Text: "ok", InputTokens: 1000, OutputTokens: 500})
	registry := NewRegistry(map[ModelRole]model.ChatModel{RolePrimary: primary})
	cost := NewCostTracker()
	inv := NewInvoker(registry, nil, cost, map[ModelRole]int{RolePrimary: 10000}, map[ModelRole]string{RolePrimary: "gpt-4o"})

	_, err := inv.Invoke(context.Background(), RolePrimary, "qa", []model.Message{{Role: model.RoleUser, Content: "x"}}, nil)
	require.NoError(t, err)
	assert.Greater(t, cost.Total(), 0.0)
}
