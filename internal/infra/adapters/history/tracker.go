package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
)

var _ adapter.ContextSource = (*Tracker)(nil)

// Tracker is the live context source for platforms whose bot API cannot read
// channel history backwards (Telegram). The bot feeds every observed message
// into it; FetchRecent reads the bounded per-channel window back out.
// Nothing here is persisted or shared between processes; the window dies
// with the process, same as platform-side scrollback read on demand.
type Tracker struct {
	mu       sync.RWMutex
	channels map[string][]model.ContextMessage
	capacity int
	botName  string
}

func NewTracker(capacity int, botName string) *Tracker {
	if capacity <= 0 {
		capacity = 40
	}
	return &Tracker{
		channels: make(map[string][]model.ContextMessage),
		capacity: capacity,
		botName:  botName,
	}
}

// Observe records one message into the channel window. Bot-authored
// messages, commands, and empty content are skipped, mirroring what a
// history read would filter out anyway.
func (t *Tracker) Observe(channelID, author, text string, ts time.Time) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "/") {
		return
	}
	if t.botName != "" && author == t.botName {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	win := append(t.channels[channelID], model.ContextMessage{
		Author:    author,
		Text:      text,
		Timestamp: ts,
	})
	if len(win) > t.capacity {
		win = win[len(win)-t.capacity:]
	}
	t.channels[channelID] = win
}

// FetchRecent returns up to limit messages with Timestamp < before, ordered
// most-recent-last. Empty history is an empty slice, never an error.
func (t *Tracker) FetchRecent(ctx context.Context, channelID string, limit int, before time.Time) ([]model.ContextMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	win := t.channels[channelID]
	out := make([]model.ContextMessage, 0, limit)
	for i := len(win) - 1; i >= 0 && len(out) < limit; i-- {
		if win[i].Timestamp.Before(before) {
			out = append(out, win[i])
		}
	}
	// reverse into most-recent-last order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
