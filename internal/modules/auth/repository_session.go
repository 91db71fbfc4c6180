package auth

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

var sessionColumns = []string{
	"id", "user_id", "token_hash", "issued_at", "expires_at", "revoked",
}

// CreateRefreshSession inserts a new refresh session row.
func (r *repository) CreateRefreshSession(ctx context.Context, sess *RefreshSession) error {
	if sess.IssuedAt.IsZero() {
		sess.IssuedAt = r.now()
	}

	query, args, err := r.psql.Insert("refresh_sessions").
		Columns(sessionColumns...).
		Values(sess.ID, sess.UserID, sess.TokenHash, sess.IssuedAt, sess.ExpiresAt, sess.Revoked).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindRefreshSessionByHash resolves a presented refresh token (by its hash)
// to the session it created. Returns ErrNotFound when no row matches; the
// revoked/expired checks belong to the caller so that verification stays
// side-effect-free.
func (r *repository) FindRefreshSessionByHash(ctx context.Context, tokenHash string) (*RefreshSession, error) {
	query, args, err := r.psql.Select(sessionColumns...).
		From("refresh_sessions").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var sess RefreshSession
	if err := pgxscan.Get(ctx, r.db, &sess, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &sess, nil
}

// RevokeRefreshSession revokes a session only if it is still active. Under
// concurrent rotation attempts on the same token exactly one caller gets a
// row; the rest observe ErrSessionRevoked, which the service treats as a
// replay signal.
func (r *repository) RevokeRefreshSession(ctx context.Context, id string) error {
	query, args, err := r.psql.Update("refresh_sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"id": id, "revoked": false}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrSessionRevoked
	}
	return nil
}

// RevokeRefreshSessionByHash revokes whatever session the hash resolves to.
// Used by logout; idempotent by design.
func (r *repository) RevokeRefreshSessionByHash(ctx context.Context, tokenHash string) error {
	query, args, err := r.psql.Update("refresh_sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// RevokeAllRefreshSessions revokes every active session for a user. Used on
// password change/reset and on detected refresh-token replay.
func (r *repository) RevokeAllRefreshSessions(ctx context.Context, userID string) error {
	query, args, err := r.psql.Update("refresh_sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"user_id": userID, "revoked": false}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// DeleteExpiredRefreshSessions garbage-collects rows past their expiry.
func (r *repository) DeleteExpiredRefreshSessions(ctx context.Context) error {
	query, args, err := r.psql.Delete("refresh_sessions").
		Where(squirrel.Lt{"expires_at": r.now()}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
