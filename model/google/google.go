// Package google adapts Google's Gemini API (generative-ai-go) to
// model.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/taskforge-dev/taskforge/model"
)

// ChatModel implements model.ChatModel against Gemini. Gemini has no
// distinct system-message slot in the SDK version pinned here, so
// system messages are folded into the first user turn.
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel builds a ChatModel for modelName. An empty modelName
// defaults to gemini-1.5-pro.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google: new client: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(m.modelName)
	if len(tools) > 0 {
		gm.Tools = convertTools(tools)
	}

	history, prompt := splitHistory(messages)
	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google: send message: %w", err)
	}
	return convertResponse(resp), nil
}

// splitHistory folds system messages into the leading user turn (Gemini
// has no dedicated system role in this SDK version) and returns every
// prior turn as history plus the final user message as the live prompt.
func splitHistory(messages []model.Message) ([]*genai.Content, string) {
	var systemPrefix string
	var turns []model.Message
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if systemPrefix != "" {
				systemPrefix += "\n\n"
			}
			systemPrefix += msg.Content
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 {
		return nil, systemPrefix
	}
	last := turns[len(turns)-1]
	prompt := last.Content
	if systemPrefix != "" && len(turns) == 1 {
		prompt = systemPrefix + "\n\n" + prompt
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for i, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		content := msg.Content
		if i == 0 && systemPrefix != "" {
			content = systemPrefix + "\n\n" + content
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}
	return history, prompt
}

func convertTools(tools []model.ToolSpec) []*genai.Tool {
	result := make([]*genai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        t.Name,
				Description: t.Description,
			}},
		})
	}
	return result
}

func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	var out model.ChatOut
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{Name: p.Name, Input: p.Args})
		}
	}
	return out
}
