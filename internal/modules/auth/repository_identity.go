package auth

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// FindExternalIdentity resolves a (provider, subject) pair to its linked
// local user. Returns ErrNotFound for a previously unseen identity.
func (r *repository) FindExternalIdentity(ctx context.Context, provider, subject string) (*ExternalIdentity, error) {
	query, args, err := r.psql.Select("provider", "subject", "user_id", "created_at").
		From("external_identities").
		Where(squirrel.Eq{"provider": provider, "subject": subject}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ident ExternalIdentity
	if err := pgxscan.Get(ctx, r.db, &ident, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &ident, nil
}

// CreateExternalIdentity links a provider identity to a local user. The
// (provider, subject) primary key guarantees the pair maps to at most one user.
func (r *repository) CreateExternalIdentity(ctx context.Context, ident *ExternalIdentity) error {
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = r.now()
	}

	query, args, err := r.psql.Insert("external_identities").
		Columns("provider", "subject", "user_id", "created_at").
		Values(ident.Provider, ident.Subject, ident.UserID, ident.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
