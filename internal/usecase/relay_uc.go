package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/infra/logging"
	"telegram-ai-relay/internal/infra/metrics"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

// RelayRequest is one inbound chat event after the bot layer has parsed it.
type RelayRequest struct {
	UserID    string
	ChannelID string
	Model     string
	Text      string
	FileText  string // extracted attachment content, empty when none
}

// RelayUseCase forwards a user message, enriched with conversational
// context, to a model backend and returns the answer.
type RelayUseCase interface {
	Relay(ctx context.Context, req RelayRequest) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

type relayUC struct {
	contexts ContextUseCase
	ai       adapter.AIServiceAdapter
	dev      bool
	log      *zerolog.Logger
}

func NewRelayUseCase(contexts ContextUseCase, ai adapter.AIServiceAdapter, dev bool, logger *zerolog.Logger) *relayUC {
	l := logger.With().Str("component", "RelayUC").Logger()
	return &relayUC{contexts: contexts, ai: ai, dev: dev, log: &l}
}

func (r *relayUC) Relay(ctx context.Context, req RelayRequest) (string, error) {
	defer logging.TraceDuration(r.log, "RelayUC.Relay")()

	text := strings.TrimSpace(req.Text)
	if text == "" && req.FileText == "" {
		return "", domain.ErrInvalidArgument
	}

	built := r.contexts.BuildContext(ctx, req.UserID, req.ChannelID)

	msgs := composePrompt(built, text, req.FileText)

	start := time.Now()
	reply, usage, err := r.ai.ChatWithUsage(ctx, req.Model, msgs)
	latency := int(time.Since(start).Milliseconds())
	metrics.ObserveChatUsage(provider(req.Model), req.Model,
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, latency, err == nil)
	if err != nil {
		return "", fmt.Errorf("model backend: %w", err)
	}
	r.log.Debug().
		Bool("cached_context", built.FromCache).
		Int("participants", len(built.Participants)).
		Str("reply_preview", logging.Redact(reply, r.dev)).
		Msg("relay complete")
	return reply, nil
}

func (r *relayUC) ListModels(ctx context.Context) ([]string, error) {
	return r.ai.ListModels(ctx)
}

// composePrompt assembles the outbound message list: context block as a
// system preamble when present, then extracted file text, then the user's
// own message.
func composePrompt(built BuiltContext, text, fileText string) []adapter.Message {
	msgs := make([]adapter.Message, 0, 3)
	if built.Block != "" {
		msgs = append(msgs, adapter.Message{
			Role:    "system",
			Content: "Recent conversation in this channel:\n" + built.Block,
		})
	}
	if fileText != "" {
		msgs = append(msgs, adapter.Message{
			Role:    "system",
			Content: "The user attached a file with this content:\n" + fileText,
		})
	}
	if text == "" {
		text = "Please analyze the attached file."
	}
	msgs = append(msgs, adapter.Message{Role: "user", Content: text})
	return msgs
}

func provider(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gemini") {
		return "gemini"
	}
	return "openai"
}
