package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateActionToken inserts a single-use token row (hash only).
func (r *repository) CreateActionToken(ctx context.Context, t *ActionToken) error {
	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id.String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}

	query, args, err := r.psql.Insert("action_tokens").
		Columns("id", "user_id", "purpose", "token_hash", "expires_at", "consumed_at", "created_at").
		Values(t.ID, t.UserID, string(t.Purpose), t.TokenHash, t.ExpiresAt, t.ConsumedAt, t.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// ConsumeActionToken atomically marks the matching token consumed and
// returns its owner. The single conditional UPDATE closes the double-spend
// race: of N concurrent presentations of the same token exactly one gets
// the row back. A miss (absent, expired, or already consumed) is always
// ErrNotFound, so callers cannot tell the cases apart.
func (r *repository) ConsumeActionToken(ctx context.Context, tokenHash string, purpose TokenPurpose) (string, error) {
	now := r.now()
	query, args, err := r.psql.Update("action_tokens").
		Set("consumed_at", now).
		Where(squirrel.Eq{"token_hash": tokenHash, "purpose": string(purpose)}).
		Where("consumed_at IS NULL").
		Where(squirrel.Gt{"expires_at": now}).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return "", err
	}

	var userID string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound.WithCause(err)
		}
		return "", err
	}
	return userID, nil
}

// DeleteExpiredActionTokens garbage-collects tokens past their expiry. A
// grace window keeps just-expired rows around briefly for debugging.
func (r *repository) DeleteExpiredActionTokens(ctx context.Context) error {
	query, args, err := r.psql.Delete("action_tokens").
		Where(squirrel.Lt{"expires_at": r.now().Add(-24 * time.Hour)}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
