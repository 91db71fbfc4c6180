package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustInitiate starts an OAuth flow and returns the state embedded in the
// provider redirect URL.
func mustInitiate(t *testing.T, env *testEnv) string {
	t.Helper()
	redirectURL, err := env.svc.InitiateOAuthLogin(context.Background(), ProviderGoogle)
	require.NoError(t, err)

	_, state, found := strings.Cut(redirectURL, "state=")
	require.True(t, found, "redirect URL should carry the state: %s", redirectURL)
	return state
}

func TestInitiateOAuthLogin(t *testing.T) {
	env := newTestEnv(t)

	state := mustInitiate(t, env)

	stored, err := env.states.ConsumeOAuthState(context.Background(), state)
	require.NoError(t, err, "the state must be stored before redirecting")
	assert.Equal(t, ProviderGoogle, stored.Provider)
	assert.NotEmpty(t, stored.Verifier, "a PKCE verifier must accompany the state")
}

func TestInitiateOAuthLoginUnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.InitiateOAuthLogin(context.Background(), "facebook")
	assert.ErrorIs(t, err, ErrUnsupportedOAuthProvider)
}

func TestOAuthCallbackCreatesAccount(t *testing.T) {
	env := newTestEnv(t)

	pair, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	user, err := env.repo.FindUserByEmail(context.Background(), "oauth@example.com")
	require.NoError(t, err)
	assert.Nil(t, user.PasswordHash, "provider-created accounts have no password")
	assert.True(t, user.EmailVerified, "the provider vouched for the email")
	assert.Equal(t, "OAuth User", user.DisplayName)

	ident, err := env.repo.FindExternalIdentity(context.Background(), ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, ident.UserID)
}

func TestOAuthCallbackLinksExistingAccountByEmail(t *testing.T) {
	env := newTestEnv(t)
	existing := env.signupUser(t, "oauth@example.com", "s3cretpass")

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	require.NoError(t, err)

	ident, err := env.repo.FindExternalIdentity(context.Background(), ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, ident.UserID, "the identity must link to the existing account")

	user, err := env.repo.FindUserByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified, "provider verification carries over")
}

func TestOAuthCallbackExistingIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	require.NoError(t, err)

	// Second login with the same subject but a changed provider email must
	// resolve to the same account, not create another.
	env.provider.identity.Email = "renamed@example.com"
	_, err = env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-2")
	require.NoError(t, err)

	_, err = env.repo.FindUserByEmail(context.Background(), "renamed@example.com")
	assert.ErrorIs(t, err, ErrNotFound, "no second account may be created")
}

func TestOAuthCallbackStateSingleUse(t *testing.T) {
	env := newTestEnv(t)
	state := mustInitiate(t, env)

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, state, "code-1")
	require.NoError(t, err)

	_, err = env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, state, "code-1")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid, "a state works exactly once")
}

func TestOAuthCallbackUnknownState(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, "forged-state", "code-1")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}

func TestOAuthCallbackProviderMismatch(t *testing.T) {
	env := newTestEnv(t)
	state := mustInitiate(t, env)

	_, err := env.svc.HandleOAuthCallback(context.Background(), "facebook", state, "code-1")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid, "a state is bound to the provider it was issued for")
}

func TestOAuthCallbackExchangeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.err = errors.New("upstream says no")

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "bad-code")
	assert.ErrorIs(t, err, ErrOAuthExchangeFailed)
}

func TestOAuthCallbackUnverifiedEmailCannotLinkExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	existing := env.signupUser(t, "oauth@example.com", "s3cretpass")
	env.provider.identity.EmailVerified = false

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	assert.ErrorIs(t, err, ErrOAuthEmailUnverified,
		"an unverified provider email must not take over a local account")

	_, err = env.repo.FindExternalIdentity(context.Background(), ProviderGoogle, "google-sub-1")
	assert.ErrorIs(t, err, ErrNotFound, "no identity link may be created")

	user, err := env.repo.FindUserByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.False(t, user.EmailVerified, "the local account is untouched")
}

func TestOAuthCallbackUnverifiedEmailCreatesUnverifiedAccount(t *testing.T) {
	env := newTestEnv(t)
	env.provider.identity.EmailVerified = false

	pair, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	require.NoError(t, err, "a fresh account involves no takeover and may be created")
	assert.NotEmpty(t, pair.AccessToken)

	user, err := env.repo.FindUserByEmail(context.Background(), "oauth@example.com")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified, "the account starts unverified like a password signup")
}

func TestOAuthCallbackEmailMissing(t *testing.T) {
	env := newTestEnv(t)
	env.provider.identity.Email = ""

	_, err := env.svc.HandleOAuthCallback(context.Background(), ProviderGoogle, mustInitiate(t, env), "code-1")
	assert.ErrorIs(t, err, ErrOAuthEmailMissing)
}
