package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.svc.Signup(context.Background(), "Alice@Example.com", "s3cretpass", "Alice")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email, "email should be normalized")
	assert.Equal(t, RoleUser, user.Role)
	assert.False(t, user.EmailVerified)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "s3cretpass", *user.PasswordHash, "password must be stored hashed")

	require.Equal(t, 1, env.notifier.count(), "signup should send a verification email")
	assert.Equal(t, "alice@example.com", env.notifier.last().Recipient)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signupUser(t, "alice@example.com", "s3cretpass")

	_, err := env.svc.Signup(context.Background(), "ALICE@example.com", "otherpass1", "Imposter")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestSignupSucceedsWhenEmailDeliveryFails(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.fail = true

	user, err := env.svc.Signup(context.Background(), "alice@example.com", "s3cretpass", "Alice")
	require.NoError(t, err, "a mail outage must not lose the signup")

	_, err = env.repo.FindUserByID(context.Background(), user.ID)
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	claims, err := env.svc.tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(RoleUser), claims.Role)

	active, _ := env.repo.sessionsFor(user.ID)
	assert.Equal(t, 1, active)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signupUser(t, "alice@example.com", "s3cretpass")

	_, err := env.svc.Login(context.Background(), "alice@example.com", "wrongpass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Login(context.Background(), "nobody@example.com", "whatever12")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look exactly like a wrong password")
}

func TestLoginOAuthOnlyAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	require.NoError(t, err)

	_, err = env.svc.Login(context.Background(), "oauth@example.com", "anypassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "passwordless accounts cannot log in with a password")
}

func TestRefreshRotatesSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	next, err := env.svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken, "rotation must issue a new refresh token")

	active, revoked := env.repo.sessionsFor(user.ID)
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, revoked)

	// The old token is now dead.
	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshConcurrentExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = env.svc.Refresh(context.Background(), pair.RefreshToken)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrTokenInvalid)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent redemption may succeed")

	// The losers look like replay, so containment revoked the user's
	// sessions. Depending on interleaving the winner's fresh session may or
	// may not have been caught by it, but at most one can remain.
	active, _ := env.repo.sessionsFor(user.ID)
	assert.LessOrEqual(t, active, 1)
}

func TestRefreshReplayRevokesEverything(t *testing.T) {
	env := newTestEnv(t)
	user := env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	// A second, unrelated session that should be collateral of the replay.
	other, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	active, _ := env.repo.sessionsFor(user.ID)
	assert.Zero(t, active, "replay must revoke every session the user has")

	_, err = env.svc.Refresh(context.Background(), other.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	// Move the service clock past the session expiry.
	env.svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	user := env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(context.Background(), pair.RefreshToken))

	active, _ := env.repo.sessionsFor(user.ID)
	assert.Zero(t, active)

	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestLogoutIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.signupUser(t, "alice@example.com", "s3cretpass")

	pair, err := env.svc.Login(context.Background(), "alice@example.com", "s3cretpass")
	require.NoError(t, err)

	assert.NoError(t, env.svc.Logout(context.Background(), pair.RefreshToken))
	assert.NoError(t, env.svc.Logout(context.Background(), pair.RefreshToken), "second logout must succeed")
	assert.NoError(t, env.svc.Logout(context.Background(), "unknown-token"), "unknown token must succeed")
}
