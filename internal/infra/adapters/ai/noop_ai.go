package ai

import (
	"context"
	"fmt"
	"time"

	"telegram-ai-relay/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev testing.
// It echoes the prompt instead of calling a real backend.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop"}, nil
}

func (a *NoopAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: "noop", Description: "local echo adapter"}, nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content) / 4
	}
	return n, nil
}

func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := a.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	if len(messages) == 0 {
		return "(noop) empty prompt", adapter.Usage{}, nil
	}
	last := messages[len(messages)-1]
	return fmt.Sprintf("(noop %s) you said: %s", model, last.Content), adapter.Usage{}, nil
}
