package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/domain/ports/repository"
	"telegram-ai-relay/internal/infra/metrics"
)

// SweepWorker periodically purges expired context cache entries. Expiry is
// also enforced lazily on Get; the sweep just keeps idle users' ciphertext
// from lingering in memory for longer than the TTL.
type SweepWorker struct {
	interval time.Duration
	cache    repository.ContextCache
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, cache repository.ContextCache, logger *zerolog.Logger) *SweepWorker {
	sweepLog := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval: interval,
		cache:    cache,
		log:      &sweepLog,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting cache sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping cache sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.cache.Sweep(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("sweep error")
			}
			if n > 0 {
				metrics.AddCacheSwept(n)
				w.log.Info().Int("count", n).Msg("expired cache entries removed")
			}
		}
	}
}
