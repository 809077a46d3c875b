package repository

import (
	"context"

	"telegram-ai-relay/internal/domain/model"
)

// ContextCache is the opt-in, encrypted, per-user single-slot holder of
// recent-context snapshots.
//
// Get returns (nil, nil) for absent: missing, expired, or undecryptable
// entries are all the same cheap-to-recover-from outcome. Put overwrites the
// user's slot with a fresh TTL. Evict is idempotent. Sweep removes expired
// entries and returns how many it dropped.
type ContextCache interface {
	Put(ctx context.Context, userID string, snapshot *model.ContextSnapshot) error
	Get(ctx context.Context, userID string) (*model.ContextSnapshot, error)
	Evict(ctx context.Context, userID string) error
	Sweep(ctx context.Context) (int, error)
	// Len reports current entry count (ops surface).
	Len() int
}
