package repository

import (
	"context"

	"telegram-ai-relay/internal/domain/model"
)

// PrivacyRepository persists per-user privacy preferences. It stores
// metadata only, never message content.
//
// Find reports storage failures truthfully; degrading to the safe default
// is the policy engine's job, not the repository's.
type PrivacyRepository interface {
	Find(ctx context.Context, userID string) (*model.PrivacyPreference, error)
	Save(ctx context.Context, pref *model.PrivacyPreference) error
	// Count returns the number of recorded preferences (ops surface).
	Count(ctx context.Context) (int, error)
}
