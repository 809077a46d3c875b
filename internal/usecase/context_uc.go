package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/adapter"
	"telegram-ai-relay/internal/domain/ports/repository"
	"telegram-ai-relay/internal/infra/metrics"
)

// Compile-time check
var _ ContextUseCase = (*contextUC)(nil)

// BuiltContext is the terminal outcome of a context build: a composed block
// (possibly empty) plus the snapshot it came from for follow-up use.
type BuiltContext struct {
	Block        string
	Participants []string
	FromCache    bool
}

// ContextUseCase decides, per request, which context is attached to the
// outbound prompt and in what form. It never fails: every error in the
// subsystem degrades to a smaller or empty context.
type ContextUseCase interface {
	BuildContext(ctx context.Context, userID, channelID string) BuiltContext
}

type contextUC struct {
	prefs  repository.PrivacyRepository
	cache  repository.ContextCache
	source adapter.ContextSource
	window int
	log    *zerolog.Logger
}

func NewContextUseCase(prefs repository.PrivacyRepository, cache repository.ContextCache, source adapter.ContextSource, window int, logger *zerolog.Logger) *contextUC {
	if window <= 0 {
		window = 20
	}
	l := logger.With().Str("component", "ContextUC").Logger()
	return &contextUC{prefs: prefs, cache: cache, source: source, window: window, log: &l}
}

// BuildContext runs the two-path state machine:
//
//	consent != allow  -> LiveOnly: fetch fresh, never touch the cache
//	consent == allow  -> CacheFirst: cached snapshot on hit; on miss fetch
//	                     live and re-populate the user's slot
//
// The preference is re-read on every call; a /privacy deny between two
// messages is honored on the very next one.
func (c *contextUC) BuildContext(ctx context.Context, userID, channelID string) BuiltContext {
	pref := c.preference(ctx, userID)

	if !pref.AllowsCaching() {
		metrics.IncContextRequest("live_only")
		snap := c.fetchLive(ctx, channelID)
		return compose(snap, pref.Mode, false)
	}

	if snap, err := c.cache.Get(ctx, userID); err == nil && !snap.Empty() {
		metrics.IncContextRequest("cache_hit")
		return compose(snap, pref.Mode, true)
	}

	metrics.IncContextRequest("cache_miss")
	snap := c.fetchLive(ctx, channelID)
	if !snap.Empty() {
		if err := c.cache.Put(ctx, userID, snap); err != nil {
			c.log.Warn().Err(err).Msg("cache populate failed")
		}
	}
	return compose(snap, pref.Mode, false)
}

// preference reads the stored preference, substituting defaults for unknown
// users and the deny/strict safe default when storage is unreachable.
func (c *contextUC) preference(ctx context.Context, userID string) *model.PrivacyPreference {
	pref, err := c.prefs.Find(ctx, userID)
	switch {
	case err == nil && pref != nil:
		return pref
	case errors.Is(err, domain.ErrNotFound) || err == nil:
		return model.DefaultPreference(userID)
	default:
		c.log.Warn().Err(err).Msg("preference lookup degraded to safe default")
		return model.SafePreference(userID)
	}
}

// fetchLive pulls the recent window from the platform. Failures degrade to
// an empty snapshot; conversational context is best effort.
func (c *contextUC) fetchLive(ctx context.Context, channelID string) *model.ContextSnapshot {
	msgs, err := c.source.FetchRecent(ctx, channelID, c.window, time.Now())
	if err != nil {
		metrics.IncContextFetchFailure()
		err = fmt.Errorf("%w: %v", domain.ErrContextFetchFailed, err)
		c.log.Warn().Err(err).Str("channel_id", channelID).Msg("live fetch failed, continuing with empty context")
		return model.NewContextSnapshot(channelID, nil)
	}
	metrics.ObserveContextFetch(len(msgs))
	return model.NewContextSnapshot(channelID, msgs)
}

func compose(snap *model.ContextSnapshot, mode model.PrivacyMode, fromCache bool) BuiltContext {
	return BuiltContext{
		Block:        snap.Compose(mode),
		Participants: snap.Participants(mode),
		FromCache:    fromCache,
	}
}
