package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxMessageRunes = 2000

// ContextMessage is one recent message pulled from the platform history.
type ContextMessage struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextSnapshot is the transient, in-memory window of recent messages used
// to build a single prompt. Ordered most-recent-last. It is produced fresh
// per request or decrypted from a cache entry and is never persisted as-is.
type ContextSnapshot struct {
	ID        string           `json:"id"`
	ChannelID string           `json:"channel_id"`
	Messages  []ContextMessage `json:"messages"`
	FetchedAt time.Time        `json:"fetched_at"`
}

func NewContextSnapshot(channelID string, messages []ContextMessage) *ContextSnapshot {
	return &ContextSnapshot{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Messages:  messages,
		FetchedAt: time.Now(),
	}
}

func (s *ContextSnapshot) Empty() bool {
	return s == nil || len(s.Messages) == 0
}

// Compose renders the snapshot into the context block attached to the
// outbound prompt, one "[HH:MM] Author: text" line per message. The privacy
// mode is dispatched exactly once, here: strict replaces author names with
// per-snapshot pseudonyms, balanced and permissive pass them through.
func (s *ContextSnapshot) Compose(mode PrivacyMode) string {
	if s.Empty() {
		return ""
	}
	names := authorNames(s.Messages, mode)
	var sb strings.Builder
	for i, m := range s.Messages {
		text := m.Text
		if r := []rune(text); len(r) > maxMessageRunes {
			text = string(r[:maxMessageRunes])
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("15:04"), names[i], text))
		if i < len(s.Messages)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Participants returns the composed author labels, deduplicated in order of
// first appearance, under the given mode.
func (s *ContextSnapshot) Participants(mode PrivacyMode) []string {
	if s.Empty() {
		return nil
	}
	names := authorNames(s.Messages, mode)
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// authorNames maps every message to its display label. Under strict mode
// each distinct author gets a stable per-snapshot pseudonym. The numbering
// starts at a random offset so the same history does not produce the same
// mapping across requests.
func authorNames(msgs []ContextMessage, mode PrivacyMode) []string {
	out := make([]string, len(msgs))
	if mode != ModeStrict {
		for i, m := range msgs {
			out[i] = m.Author
		}
		return out
	}
	base := pseudonymBase()
	byAuthor := make(map[string]string, 4)
	for i, m := range msgs {
		p, ok := byAuthor[m.Author]
		if !ok {
			p = fmt.Sprintf("Participant-%d", base+len(byAuthor)+1)
			byAuthor[m.Author] = p
		}
		out[i] = p
	}
	return out
}

// pseudonymBase draws the numbering offset from the system CSPRNG. The
// labels serve a privacy mechanism, so the offset must not be predictable
// from a previous snapshot's labels.
func pseudonymBase() int {
	n, err := rand.Int(rand.Reader, big.NewInt(90))
	if err != nil {
		return int(time.Now().UnixNano() % 90)
	}
	return int(n.Int64())
}
