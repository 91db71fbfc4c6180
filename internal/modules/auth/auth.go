package auth

import (
	"time"
)

// Role enumerates the account roles carried in access-token claims.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the identity record for an account. PasswordHash is nil for
// accounts that only ever signed in through an OAuth provider.
type User struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	PasswordHash  *string   `db:"password_hash"`
	DisplayName   string    `db:"display_name"`
	Role          Role      `db:"role"`
	EmailVerified bool      `db:"email_verified"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// RefreshSession is one issued refresh token. Only the SHA-256 hash of the
// opaque token value is stored. A session is redeemable while it is neither
// revoked nor expired; redemption rotates it (the row is revoked and a new
// one inserted).
type RefreshSession struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
}

// TokenPurpose is the reason an action token was issued.
type TokenPurpose string

const (
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// ActionToken is a single-use opaque token for email verification or
// password reset. The plaintext is only ever handed to the email sender;
// the row stores its hash. Consumption is an atomic conditional update, so
// a token can be redeemed at most once even under concurrent requests.
type ActionToken struct {
	ID         string       `db:"id"`
	UserID     string       `db:"user_id"`
	Purpose    TokenPurpose `db:"purpose"`
	TokenHash  string       `db:"token_hash"`
	ExpiresAt  time.Time    `db:"expires_at"`
	ConsumedAt *time.Time   `db:"consumed_at"`
	CreatedAt  time.Time    `db:"created_at"`
}

// ExternalIdentity links a (provider, subject) pair from an OAuth provider
// to a local user. The pair resolves to at most one user.
type ExternalIdentity struct {
	Provider  string    `db:"provider"`
	Subject   string    `db:"subject"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// OAuthState is the transient anti-forgery state stored while a login
// round-trips through the provider. It lives in the cache with a short TTL
// and is consumed exactly once on callback.
type OAuthState struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

// TokenPair is what login, refresh, and the OAuth callback hand back to the
// client: a signed access token plus the plaintext of a freshly created
// refresh session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access-token lifetime in seconds
}
