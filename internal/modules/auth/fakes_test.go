package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ideahub/ideahub-api/internal/auth/token"
	"github.com/ideahub/ideahub-api/internal/config"
	"github.com/ideahub/ideahub-api/internal/notification"
	"github.com/ideahub/ideahub-api/internal/notification/templates"
)

// fakeRepo is an in-memory Repository with the same conditional-update
// semantics as the SQL implementation, so the race-sensitive paths (refresh
// rotation, token consumption) behave identically under test.
type fakeRepo struct {
	mu         sync.Mutex
	users      map[string]*User
	sessions   map[string]*RefreshSession
	tokens     map[string]*ActionToken
	identities map[string]*ExternalIdentity // keyed provider + "|" + subject
	now        func() time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[string]*User),
		sessions:   make(map[string]*RefreshSession),
		tokens:     make(map[string]*ActionToken),
		identities: make(map[string]*ExternalIdentity),
		now:        time.Now,
	}
}

func (r *fakeRepo) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailExists
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeRepo) FindUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindUserByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) UpdateUserProfile(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	u.DisplayName = user.DisplayName
	u.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *fakeRepo) UpdateUserPassword(_ context.Context, userID, newPasswordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = &newPasswordHash
	return nil
}

func (r *fakeRepo) SetEmailVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

func (r *fakeRepo) CreateRefreshSession(_ context.Context, sess *RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sess
	r.sessions[sess.ID] = &cp
	return nil
}

func (r *fakeRepo) FindRefreshSessionByHash(_ context.Context, tokenHash string) (*RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) RevokeRefreshSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Revoked {
		return ErrSessionRevoked
	}
	s.Revoked = true
	return nil
}

func (r *fakeRepo) RevokeRefreshSessionByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			s.Revoked = true
		}
	}
	return nil
}

func (r *fakeRepo) RevokeAllRefreshSessions(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			s.Revoked = true
		}
	}
	return nil
}

func (r *fakeRepo) DeleteExpiredRefreshSessions(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(r.now()) {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeRepo) CreateActionToken(_ context.Context, t *ActionToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.tokens[cp.ID] = &cp
	return nil
}

func (r *fakeRepo) ConsumeActionToken(_ context.Context, tokenHash string, purpose TokenPurpose) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && t.Purpose == purpose && t.ConsumedAt == nil && t.ExpiresAt.After(r.now()) {
			now := r.now()
			t.ConsumedAt = &now
			return t.UserID, nil
		}
	}
	return "", ErrNotFound
}

func (r *fakeRepo) DeleteExpiredActionTokens(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(r.now()) {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *fakeRepo) FindExternalIdentity(_ context.Context, provider, subject string) (*ExternalIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.identities[provider+"|"+subject]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ident
	return &cp, nil
}

func (r *fakeRepo) CreateExternalIdentity(_ context.Context, ident *ExternalIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ident
	r.identities[ident.Provider+"|"+ident.Subject] = &cp
	return nil
}

// sessionsFor counts sessions for a user, split by revoked state.
func (r *fakeRepo) sessionsFor(userID string) (active, revoked int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if s.Revoked {
			revoked++
		} else {
			active++
		}
	}
	return active, revoked
}

// fakeStateStore is an in-memory StateStore.
type fakeStateStore struct {
	mu        sync.Mutex
	states    map[string]*OAuthState
	cooldowns map[string]time.Time
	now       func() time.Time
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{
		states:    make(map[string]*OAuthState),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (s *fakeStateStore) SaveOAuthState(_ context.Context, state string, st *OAuthState, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.states[state] = &cp
	return nil
}

func (s *fakeStateStore) ConsumeOAuthState(_ context.Context, state string) (*OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[state]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.states, state)
	return st, nil
}

func (s *fakeStateStore) ReserveCooldown(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.cooldowns[key]; ok && until.After(s.now()) {
		return false, nil
	}
	s.cooldowns[key] = s.now().Add(ttl)
	return true, nil
}

func (s *fakeStateStore) ReleaseCooldown(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cooldowns, key)
	return nil
}

// fakeNotifier records every notification instead of sending it.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification.Notification
	fail bool
}

func (n *fakeNotifier) Send(_ context.Context, msg notification.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return io.ErrClosedPipe
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last() notification.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

// fakeProvider is a canned OAuthProvider.
type fakeProvider struct {
	identity *OAuthIdentity
	err      error
}

func (p *fakeProvider) AuthCodeURL(state, _ string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *fakeProvider) FetchIdentity(_ context.Context, _, _ string) (*OAuthIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	cp := *p.identity
	return &cp, nil
}

// testEnv bundles the service with its fakes.
type testEnv struct {
	svc      *service
	repo     *fakeRepo
	states   *fakeStateStore
	notifier *fakeNotifier
	provider *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepo()
	states := newFakeStateStore()
	notifier := &fakeNotifier{}
	provider := &fakeProvider{identity: &OAuthIdentity{
		Subject:       "google-sub-1",
		Email:         "oauth@example.com",
		EmailVerified: true,
		Name:          "OAuth User",
	}}

	cfg := &config.Config{}
	cfg.Server.PublicURL = "http://localhost:8080"
	cfg.Auth.JWTSecret = "test-signing-secret"
	cfg.SMTP.From = "noreply@ideahub.test"

	tokens := token.NewManager(token.Config{
		SigningKey: []byte(cfg.Auth.JWTSecret),
		AccessTTL:  time.Minute,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(repo, states, tokens, notifier, templates.NewEngine(), logger, cfg).(*service)
	svc.providers = func(name string) (OAuthProvider, error) {
		if name != ProviderGoogle {
			return nil, ErrUnsupportedOAuthProvider
		}
		return provider, nil
	}

	return &testEnv{svc: svc, repo: repo, states: states, notifier: notifier, provider: provider}
}

// signupUser registers an account through the service and returns it.
func (e *testEnv) signupUser(t *testing.T, email, password string) *User {
	t.Helper()
	user, err := e.svc.Signup(context.Background(), email, password, "Test User")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	return user
}
