package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id", "email", "password_hash", "display_name", "role",
	"email_verified", "created_at", "updated_at",
}

// CreateUser inserts a new user record. Email uniqueness is enforced by the
// unique index on lower(email), not by a prior existence check; a duplicate
// surfaces as ErrEmailExists from the constraint violation.
func (r *repository) CreateUser(ctx context.Context, user *User) error {
	now := r.now()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.PasswordHash, user.DisplayName, string(user.Role),
			user.EmailVerified, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailExists.WithCause(err)
		}
		return err
	}
	return nil
}

// FindUserByEmail retrieves a user by email (case-insensitive).
// It returns ErrNotFound if no user is found.
func (r *repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"email": strings.ToLower(email)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByID retrieves a user by ID. It returns ErrNotFound if no user is found.
func (r *repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile persists mutable profile fields.
func (r *repository) UpdateUserProfile(ctx context.Context, user *User) error {
	user.UpdatedAt = r.now()

	query, args, err := r.psql.Update("users").
		Set("display_name", user.DisplayName).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPassword sets a new password hash. Revoking the user's refresh
// sessions is a separate, explicit step owned by the service.
func (r *repository) UpdateUserPassword(ctx context.Context, userID string, newPasswordHash string) error {
	query, args, err := r.psql.Update("users").
		Set("password_hash", newPasswordHash).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEmailVerified marks the user's email as verified.
func (r *repository) SetEmailVerified(ctx context.Context, userID string) error {
	query, args, err := r.psql.Update("users").
		Set("email_verified", true).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
