package adapter

import (
	"context"
	"time"

	"telegram-ai-relay/internal/domain/model"
)

// ContextSource pulls a bounded window of recent messages for a channel from
// the live platform history. Pure read, no local state from the caller's
// point of view. An empty history is an empty slice, never an error.
type ContextSource interface {
	FetchRecent(ctx context.Context, channelID string, limit int, before time.Time) ([]model.ContextMessage, error)
}
