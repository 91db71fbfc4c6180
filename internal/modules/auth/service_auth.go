package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ideahub/ideahub-api/internal/auth/token"
)

// Signup registers a new account with email/password credentials. The
// account is committed before the verification email is attempted, so a mail
// outage never loses a signup; the user can request another email later.
func (s *service) Signup(ctx context.Context, email, password, displayName string) (*User, error) {
	hashed, err := hashPassword(password)
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	now := s.now()
	user := &User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Email:        normalizeEmail(email),
		PasswordHash: &hashed,
		DisplayName:  displayName,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, ErrInternal.WithCause(err)
	}
	s.log.Info("user registered", "user_id", user.ID)

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		s.log.Error("could not send verification email after signup", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// Login validates email/password credentials and opens a new session. The
// failure message never distinguishes an unknown email from a wrong
// password, and both paths cost one bcrypt comparison.
func (s *service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			checkPassword(dummyPasswordHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, ErrInternal.WithCause(err)
	}

	if user.PasswordHash == nil {
		// OAuth-only account; still burn a comparison.
		checkPassword(dummyPasswordHash, password)
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates a refresh session: the presented token is revoked and a
// brand-new pair is issued. Presenting an already-revoked token is treated
// as replay and revokes every session the user has.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	sess, err := s.repo.FindRefreshSessionByHash(ctx, token.Hash(refreshToken))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, ErrInternal.WithCause(err)
	}

	if sess.Revoked {
		return nil, s.handleRefreshReplay(ctx, sess)
	}
	if !sess.ExpiresAt.After(s.now()) {
		return nil, ErrTokenInvalid
	}

	// Conditional revoke: of N concurrent redemptions of the same token,
	// exactly one passes. The losers see the session already revoked, which
	// is indistinguishable from replay and handled the same way.
	if err := s.repo.RevokeRefreshSession(ctx, sess.ID); err != nil {
		if errors.Is(err, ErrSessionRevoked) {
			return nil, s.handleRefreshReplay(ctx, sess)
		}
		return nil, ErrInternal.WithCause(err)
	}

	user, err := s.repo.FindUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, ErrInternal.WithCause(err)
	}

	return s.issueTokens(ctx, user)
}

// handleRefreshReplay is the containment response to a revoked refresh token
// being presented again: someone (the legitimate client or a thief) holds a
// stale token, so every session for the user is closed.
func (s *service) handleRefreshReplay(ctx context.Context, sess *RefreshSession) error {
	s.log.Warn("revoked refresh token replayed, revoking all sessions", "user_id", sess.UserID, "session_id", sess.ID)
	if err := s.repo.RevokeAllRefreshSessions(ctx, sess.UserID); err != nil {
		s.log.Error("could not revoke sessions after replay", "user_id", sess.UserID, "error", err)
	}
	return ErrTokenInvalid
}

// Logout revokes the session belonging to the presented refresh token. It is
// idempotent: unknown, expired, and already-revoked tokens all succeed, so a
// client can always log out safely.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.RevokeRefreshSessionByHash(ctx, token.Hash(refreshToken)); err != nil {
		return ErrInternal.WithCause(err)
	}
	return nil
}
