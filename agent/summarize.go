package agent

import (
	"context"
	"fmt"

	"github.com/taskforge-dev/taskforge/model"
)

// SummarizationMiddleware replaces the older half of a conversation with
// a summarizer-produced digest once it crosses a token threshold,
// keeping the last keepTurns verbatim.
type SummarizationMiddleware struct {
	summarizer model.ChatModel
	threshold  int
	keepTurns  int
}

// NewSummarizationMiddleware builds middleware that compresses once the
// conversation exceeds threshold estimated tokens, keeping the last
// keepTurns messages verbatim.
func NewSummarizationMiddleware(summarizer model.ChatModel, threshold, keepTurns int) *SummarizationMiddleware {
	return &SummarizationMiddleware{summarizer: summarizer, threshold: threshold, keepTurns: keepTurns}
}

// MaybeCompress returns messages unchanged if under threshold, otherwise
// summarizes everything but the last keepTurns messages into a single
// system-role digest prepended to them.
func (s *SummarizationMiddleware) MaybeCompress(ctx context.Context, messages []model.Message) ([]model.Message, error) {
	if estimateTokens(messages) < s.threshold || len(messages) <= s.keepTurns {
		return messages, nil
	}

	cut := len(messages) - s.keepTurns
	older, recent := messages[:cut], messages[cut:]

	digest, err := s.summarize(ctx, older)
	if err != nil {
		return nil, fmt.Errorf("summarize middleware: %w", err)
	}

	compressed := make([]model.Message, 0, 1+len(recent))
	compressed = append(compressed, model.Message{
		Role:    model.RoleSystem,
		Content: "Conversation digest of earlier turns:\n" + digest,
	})
	compressed = append(compressed, recent...)
	return compressed, nil
}

// SummariseField compresses a single free-text field to roughly limit
// characters via the summarizer model, for callers truncating a
// model-reported field (a plan, a feedback note) that ran more than
// twice over its limit instead of merely clipping it.
func (s *SummarizationMiddleware) SummariseField(ctx context.Context, text string, limit int) (string, error) {
	out, err := s.summarizer.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf("Summarize the following text in at most %d characters, preserving the key point.", limit)},
		{Role: model.RoleUser, Content: text},
	}, nil)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func (s *SummarizationMiddleware) summarize(ctx context.Context, messages []model.Message) (string, error) {
	var transcript string
	for _, m := range messages {
		transcript += fmt.Sprintf("[%s] %s\n", m.Role, m.Content)
	}
	out, err := s.summarizer.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "Summarize the following conversation concisely, preserving decisions and open issues."},
		{Role: model.RoleUser, Content: transcript},
	}, nil)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
