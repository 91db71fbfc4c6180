package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/ideahub/ideahub-api/internal/auth/token"
)

// ProviderGoogle is the only provider currently wired. The provider factory
// is the single place to extend when more are added.
const ProviderGoogle = "google"

// OAuthIdentity is what a provider asserts about the authenticated person.
type OAuthIdentity struct {
	// Subject is the provider's stable account identifier.
	Subject string
	Email   string
	// EmailVerified reports whether the provider itself verified the email.
	EmailVerified bool
	Name          string
}

// OAuthProvider abstracts one upstream identity provider.
type OAuthProvider interface {
	// AuthCodeURL builds the URL the client is redirected to, carrying the
	// anti-forgery state and a PKCE challenge derived from verifier.
	AuthCodeURL(state, verifier string) string
	// FetchIdentity redeems the authorization code (with the PKCE verifier)
	// and resolves the provider's identity claims.
	FetchIdentity(ctx context.Context, code, verifier string) (*OAuthIdentity, error)
}

func (s *service) defaultProviders(name string) (OAuthProvider, error) {
	switch name {
	case ProviderGoogle:
		return newGoogleProvider(
			s.cfg.Google.ClientID,
			s.cfg.Google.ClientSecret,
			s.cfg.Google.RedirectURL,
		), nil
	default:
		return nil, ErrUnsupportedOAuthProvider
	}
}

// InitiateOAuthLogin starts the provider round-trip: it stores a single-use
// state (with its PKCE verifier) in the cache and returns the provider URL
// to redirect the client to.
func (s *service) InitiateOAuthLogin(ctx context.Context, provider string) (string, error) {
	p, err := s.providers(provider)
	if err != nil {
		return "", err
	}

	state, err := token.NewOpaque()
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	verifier := oauth2.GenerateVerifier()

	if err := s.states.SaveOAuthState(ctx, state, &OAuthState{Provider: provider, Verifier: verifier}, oauthStateTTL); err != nil {
		return "", ErrInternal.WithCause(err)
	}

	return p.AuthCodeURL(state, verifier), nil
}

// HandleOAuthCallback completes the round-trip: the state is consumed (each
// state works exactly once), the code is exchanged, and the provider
// identity is resolved to a local account, creating or linking one as
// needed. On success it opens a session like a password login would.
func (s *service) HandleOAuthCallback(ctx context.Context, provider, state, code string) (*TokenPair, error) {
	st, err := s.states.ConsumeOAuthState(ctx, state)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrOAuthStateInvalid
		}
		return nil, ErrInternal.WithCause(err)
	}
	if st.Provider != provider {
		return nil, ErrOAuthStateInvalid
	}

	p, err := s.providers(provider)
	if err != nil {
		return nil, err
	}

	identity, err := p.FetchIdentity(ctx, code, st.Verifier)
	if err != nil {
		s.log.Warn("oauth identity fetch failed", "provider", provider, "error", err)
		return nil, ErrOAuthExchangeFailed.WithCause(err)
	}

	user, err := s.resolveOAuthUser(ctx, provider, identity)
	if err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in via oauth", "user_id", user.ID, "provider", provider)
	return pair, nil
}

// resolveOAuthUser maps a provider identity to a local user:
//  1. a previously linked (provider, subject) pair wins outright;
//  2. otherwise an existing account with the asserted email is linked;
//  3. otherwise a new passwordless account is created and linked.
func (s *service) resolveOAuthUser(ctx context.Context, provider string, identity *OAuthIdentity) (*User, error) {
	ident, err := s.repo.FindExternalIdentity(ctx, provider, identity.Subject)
	if err == nil {
		user, err := s.repo.FindUserByID(ctx, ident.UserID)
		if err != nil {
			return nil, ErrInternal.WithCause(err)
		}
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, ErrInternal.WithCause(err)
	}

	if identity.Email == "" {
		return nil, ErrOAuthEmailMissing
	}
	email := normalizeEmail(identity.Email)

	user, err := s.repo.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account: link it, but only if the provider actually
		// verified the email. An unverified assertion is not proof of
		// ownership of the local account.
		if !identity.EmailVerified {
			return nil, ErrOAuthEmailUnverified
		}
		if !user.EmailVerified {
			if err := s.repo.SetEmailVerified(ctx, user.ID); err != nil {
				return nil, ErrInternal.WithCause(err)
			}
			user.EmailVerified = true
		}
	case errors.Is(err, ErrNotFound):
		user, err = s.createOAuthUser(ctx, email, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrInternal.WithCause(err)
	}

	if err := s.repo.CreateExternalIdentity(ctx, &ExternalIdentity{
		Provider:  provider,
		Subject:   identity.Subject,
		UserID:    user.ID,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	s.log.Info("external identity linked", "user_id", user.ID, "provider", provider)
	return user, nil
}

func (s *service) createOAuthUser(ctx context.Context, email string, identity *OAuthIdentity) (*User, error) {
	displayName := identity.Name
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	now := s.now()
	user := &User{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Email:         email,
		PasswordHash:  nil, // provider-only account until a reset sets one
		DisplayName:   displayName,
		Role:          RoleUser,
		EmailVerified: identity.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			// Lost a signup race; the account exists now. Same linking gate as
			// the direct email match.
			if !identity.EmailVerified {
				return nil, ErrOAuthEmailUnverified
			}
			return s.repo.FindUserByEmail(ctx, email)
		}
		return nil, ErrInternal.WithCause(err)
	}
	s.log.Info("user registered via oauth", "user_id", user.ID)
	return user, nil
}

// --- Google ---

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type googleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpTimeout time.Duration
}

func newGoogleProvider(clientID, clientSecret, redirectURL string) *googleProvider {
	return &googleProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: googleUserInfoURL,
		httpTimeout: 10 * time.Second,
	}
}

func (p *googleProvider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (p *googleProvider) FetchIdentity(ctx context.Context, code, verifier string) (*OAuthIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.httpTimeout)
	defer cancel()

	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	resp, err := p.oauth.Client(ctx, tok).Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("userinfo missing subject")
	}

	return &OAuthIdentity{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}
