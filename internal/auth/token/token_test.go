package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyAccess(t *testing.T) {
	m := NewManager(Config{SigningKey: []byte("test-secret"), AccessTTL: time.Minute})

	signed, err := m.IssueAccess("user-1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := m.VerifyAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyAccess_Expired(t *testing.T) {
	// Bypass the constructor so the TTL is genuinely negative and the token
	// is born expired.
	m := &Manager{cfg: Config{
		SigningKey: []byte("test-secret"),
		VerifyKeys: [][]byte{[]byte("test-secret")},
		AccessTTL:  -time.Minute,
	}}

	signed, err := m.IssueAccess("user-1", "user")
	require.NoError(t, err)

	_, err = m.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyAccess_WrongKey(t *testing.T) {
	issuer := NewManager(Config{SigningKey: []byte("key-a"), AccessTTL: time.Minute})
	verifier := NewManager(Config{SigningKey: []byte("key-b"), AccessTTL: time.Minute})

	signed, err := issuer.IssueAccess("user-1", "user")
	require.NoError(t, err)

	_, err = verifier.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestVerifyAccess_Malformed(t *testing.T) {
	m := NewManager(Config{SigningKey: []byte("test-secret"), AccessTTL: time.Minute})

	_, err := m.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyAccess_RetiredKeyStillAccepted(t *testing.T) {
	old := NewManager(Config{SigningKey: []byte("old-key"), AccessTTL: time.Minute})
	signed, err := old.IssueAccess("user-1", "user")
	require.NoError(t, err)

	// After rotation the new manager signs with the new key but keeps the
	// old one in its verify list.
	rotated := NewManager(Config{
		SigningKey: []byte("new-key"),
		VerifyKeys: [][]byte{[]byte("new-key"), []byte("old-key")},
		AccessTTL:  time.Minute,
	})

	claims, err := rotated.VerifyAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestNewOpaqueAndHash(t *testing.T) {
	a, err := NewOpaque()
	require.NoError(t, err)
	b, err := NewOpaque()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, Hash(a), Hash(a))
	assert.NotEqual(t, Hash(a), Hash(b))
	assert.NotContains(t, Hash(a), a)
}
