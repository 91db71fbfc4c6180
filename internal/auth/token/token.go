// Package token issues and verifies the credentials used by the auth module:
// short-lived signed access tokens and opaque values for refresh sessions
// and single-use action tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure reasons for access tokens. Callers are expected to
// collapse these into a single client-facing message; the distinction exists
// for logging and tests.
var (
	ErrMalformed = errors.New("token malformed")
	ErrSignature = errors.New("token signature invalid")
	ErrExpired   = errors.New("token expired")
)

// Claims is the identity resolved from a valid access token.
type Claims struct {
	UserID string
	Role   string
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Config holds the signing material and access-token lifetime.
type Config struct {
	// SigningKey is the active key used to sign new tokens.
	SigningKey []byte
	// VerifyKeys are the keys accepted during verification, active key
	// first. Keeping retired keys here lets the signing key rotate without
	// instantly invalidating every outstanding access token.
	VerifyKeys [][]byte
	// AccessTTL is how long issued access tokens stay valid.
	AccessTTL time.Duration
}

// Manager signs and verifies access tokens. Verification is a pure
// cryptographic check with no shared mutable state, so a single Manager is
// safe for unlimited concurrent use.
type Manager struct {
	cfg Config
}

// NewManager creates a token manager from the given config. The active
// signing key is always accepted for verification even if VerifyKeys is
// empty.
func NewManager(cfg Config) *Manager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if len(cfg.VerifyKeys) == 0 {
		cfg.VerifyKeys = [][]byte{cfg.SigningKey}
	}
	return &Manager{cfg: cfg}
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// IssueAccess creates a signed access token for the given user. The token
// is self-contained: subject, role, issued-at, expiry and a unique jti.
func (m *Manager) IssueAccess(userID, role string) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTTL)),
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccess parses and validates an access token and returns the claims
// it carries. It fails with ErrMalformed, ErrSignature, or ErrExpired and
// never touches the database.
func (m *Manager) VerifyAccess(tokenString string) (*Claims, error) {
	var lastErr error
	for _, key := range m.cfg.VerifyKeys {
		claims := &accessClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err == nil {
			return &Claims{UserID: claims.Subject, Role: claims.Role}, nil
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			// Try the next verify key.
			lastErr = ErrSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, ErrMalformed
		}
	}
	if lastErr == nil {
		lastErr = ErrSignature
	}
	return nil, lastErr
}

// NewOpaque creates a random, URL-safe opaque token value. Used for refresh
// sessions, action tokens, and OAuth anti-forgery states.
func NewOpaque() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash returns the SHA-256 hash of a token value, base64url encoded. Only
// hashes are persisted; presenting the plaintext later resolves by hash to
// exactly one stored record.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
