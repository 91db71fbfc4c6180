package auth

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/ideahub/ideahub-api/internal/database"
)

// Repository defines the database operations for the auth module. The
// service layer is independent of the database implementation, and every
// cascade (e.g. revoking sessions on password change) is an explicit,
// named call; nothing here has hidden side effects.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUserProfile(ctx context.Context, user *User) error
	UpdateUserPassword(ctx context.Context, userID string, newPasswordHash string) error
	SetEmailVerified(ctx context.Context, userID string) error

	// Refresh sessions
	CreateRefreshSession(ctx context.Context, sess *RefreshSession) error
	FindRefreshSessionByHash(ctx context.Context, tokenHash string) (*RefreshSession, error)
	// RevokeRefreshSession is the rotation primitive: it revokes the session
	// only if it is not already revoked, and reports ErrSessionRevoked when
	// another caller won the race.
	RevokeRefreshSession(ctx context.Context, id string) error
	// RevokeRefreshSessionByHash is single-session logout; revoking an
	// unknown or already-revoked session is not an error.
	RevokeRefreshSessionByHash(ctx context.Context, tokenHash string) error
	RevokeAllRefreshSessions(ctx context.Context, userID string) error
	DeleteExpiredRefreshSessions(ctx context.Context) error

	// Action tokens (email verification, password reset)
	CreateActionToken(ctx context.Context, t *ActionToken) error
	// ConsumeActionToken marks the matching unconsumed, unexpired token as
	// consumed and returns its owner, all in one conditional update. Any
	// miss (absent, expired, already consumed) is ErrNotFound.
	ConsumeActionToken(ctx context.Context, tokenHash string, purpose TokenPurpose) (userID string, err error)
	DeleteExpiredActionTokens(ctx context.Context) error

	// External identities (OAuth)
	FindExternalIdentity(ctx context.Context, provider, subject string) (*ExternalIdentity, error)
	CreateExternalIdentity(ctx context.Context, ident *ExternalIdentity) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
	now  func() time.Time
}

// NewRepository creates a new auth repository with the given database handle.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:  time.Now,
	}
}
