package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ideahub/ideahub-api/internal/auth/token"
)

// dummyPasswordHash is a valid bcrypt hash of a throwaway value. Login
// compares against it when the account does not exist or has no password, so
// both outcomes cost one bcrypt comparison and the response time does not
// reveal whether the email is registered.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issueTokens signs a fresh access token and creates a new refresh session
// for the user. Only the hash of the refresh token is stored; the plaintext
// exists solely in the returned pair.
func (s *service) issueTokens(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(user.ID, string(user.Role))
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	refresh, err := token.NewOpaque()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	now := s.now()
	sess := &RefreshSession{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    user.ID,
		TokenHash: token.Hash(refresh),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.Auth.RefreshTTL()),
	}
	if err := s.repo.CreateRefreshSession(ctx, sess); err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// issueActionToken creates a single-use token for the given purpose and
// returns its plaintext, which the caller embeds in an email link.
func (s *service) issueActionToken(ctx context.Context, userID string, purpose TokenPurpose) (string, error) {
	plaintext, err := token.NewOpaque()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}

	ttl := s.cfg.Auth.VerifyTTL()
	if purpose == PurposePasswordReset {
		ttl = s.cfg.Auth.ResetTTL()
	}

	now := s.now()
	t := &ActionToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: token.Hash(plaintext),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.repo.CreateActionToken(ctx, t); err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return plaintext, nil
}
