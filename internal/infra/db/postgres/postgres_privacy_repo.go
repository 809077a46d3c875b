package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-ai-relay/internal/domain"
	"telegram-ai-relay/internal/domain/model"
	"telegram-ai-relay/internal/domain/ports/repository"
)

var _ repository.PrivacyRepository = (*PostgresPrivacyRepo)(nil)

// PostgresPrivacyRepo persists the per-user privacy preference document.
// Schema:
//
//	CREATE TABLE IF NOT EXISTS user_privacy (
//	    user_id    TEXT PRIMARY KEY,
//	    consent    TEXT NOT NULL,
//	    mode       TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
// It holds metadata only; message text never reaches this table.
type PostgresPrivacyRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPrivacyRepo(pool *pgxpool.Pool) *PostgresPrivacyRepo {
	return &PostgresPrivacyRepo{pool: pool}
}

func (r *PostgresPrivacyRepo) Find(ctx context.Context, userID string) (*model.PrivacyPreference, error) {
	const q = `
SELECT user_id, consent, mode, updated_at
  FROM user_privacy WHERE user_id=$1;`
	var p model.PrivacyPreference
	var consent, mode string
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &consent, &mode, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find preference: %v", domain.ErrStorageUnavailable, err)
	}
	p.Consent, _ = model.ParseConsent(consent)
	p.Mode, _ = model.ParsePrivacyMode(mode)
	return &p, nil
}

func (r *PostgresPrivacyRepo) Save(ctx context.Context, pref *model.PrivacyPreference) error {
	const q = `
INSERT INTO user_privacy (user_id, consent, mode, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id) DO UPDATE SET
  consent=$2, mode=$3, updated_at=$4;`
	_, err := r.pool.Exec(ctx, q, pref.UserID, string(pref.Consent), string(pref.Mode), pref.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return fmt.Errorf("%w: save preference (%s): %v", domain.ErrStorageUnavailable, pgErr.Code, err)
		}
		return fmt.Errorf("%w: save preference: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *PostgresPrivacyRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_privacy;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count preferences: %w", err)
	}
	return n, nil
}
