package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/repository"
)

// Compile-time check
var _ PrivacyUseCase = (*privacyUC)(nil)

// PrivacyUseCase is the command surface the bot layer maps /privacy onto.
type PrivacyUseCase interface {
	Get(ctx context.Context, userID string) (*model.PrivacyPreference, error)
	SetConsent(ctx context.Context, userID string, consent model.Consent) error
	SetMode(ctx context.Context, userID string, mode model.PrivacyMode) error
	ClearCache(ctx context.Context, userID string) error
}

type privacyUC struct {
	prefs repository.PrivacyRepository
	cache repository.ContextCache
	log   *zerolog.Logger
}

func NewPrivacyUseCase(prefs repository.PrivacyRepository, cache repository.ContextCache, logger *zerolog.Logger) *privacyUC {
	l := logger.With().Str("component", "PrivacyUC").Logger()
	return &privacyUC{prefs: prefs, cache: cache, log: &l}
}

// Get returns the stored preference, or unset defaults for an unknown user.
// It never fails on an unknown user.
func (p *privacyUC) Get(ctx context.Context, userID string) (*model.PrivacyPreference, error) {
	pref, err := p.prefs.Find(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return model.DefaultPreference(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return pref, nil
}

// SetConsent persists the new consent. On deny the user's cache slot is
// evicted first, so no entry survives the preference write even if the
// persist itself fails, and again after the write, so a concurrent request
// that read the old consent cannot leave a repopulated slot behind.
func (p *privacyUC) SetConsent(ctx context.Context, userID string, consent model.Consent) error {
	if consent != model.ConsentAllow && consent != model.ConsentDeny {
		return fmt.Errorf("%w: consent %q", domain.ErrInvalidArgument, consent)
	}
	if consent == model.ConsentDeny {
		if err := p.cache.Evict(ctx, userID); err != nil {
			return fmt.Errorf("evict on deny: %w", err)
		}
	}
	pref, err := p.Get(ctx, userID)
	if err != nil {
		pref = model.DefaultPreference(userID)
	}
	pref.Consent = consent
	pref.UpdatedAt = time.Now()
	if err := p.prefs.Save(ctx, pref); err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	if consent == model.ConsentDeny {
		if err := p.cache.Evict(ctx, userID); err != nil {
			return fmt.Errorf("evict on deny: %w", err)
		}
	}
	p.log.Info().Str("user_id", userID).Str("consent", string(consent)).Msg("consent updated")
	return nil
}

func (p *privacyUC) SetMode(ctx context.Context, userID string, mode model.PrivacyMode) error {
	if _, ok := model.ParsePrivacyMode(string(mode)); !ok {
		return fmt.Errorf("%w: mode %q", domain.ErrInvalidArgument, mode)
	}
	pref, err := p.Get(ctx, userID)
	if err != nil {
		pref = model.DefaultPreference(userID)
	}
	pref.Mode = mode
	pref.UpdatedAt = time.Now()
	if err := p.prefs.Save(ctx, pref); err != nil {
		return fmt.Errorf("save mode: %w", err)
	}
	return nil
}

func (p *privacyUC) ClearCache(ctx context.Context, userID string) error {
	return p.cache.Evict(ctx, userID)
}
