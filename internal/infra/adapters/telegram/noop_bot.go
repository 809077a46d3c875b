package telegram

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopBotAdapter logs outbound messages instead of talking to Telegram.
// Useful for local runs without a bot token.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l}
}

func (n *NoopBotAdapter) StartPolling(ctx context.Context) error {
	n.log.Info().Msg("noop bot started, no updates will arrive")
	<-ctx.Done()
	return ctx.Err()
}

func (n *NoopBotAdapter) StopPolling() {}

func (n *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	n.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("send")
	return nil
}
