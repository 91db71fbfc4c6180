package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/ideahub/ideahub-api/internal/auth/token"
	"github.com/ideahub/ideahub-api/internal/config"
	"github.com/ideahub/ideahub-api/internal/notification"
	"github.com/ideahub/ideahub-api/internal/notification/templates"
)

const (
	// oauthStateTTL bounds how long a login round-trip through a provider
	// may take before the state expires.
	oauthStateTTL = 10 * time.Minute

	// resendCooldown is the minimum gap between two verification or reset
	// emails for the same account.
	resendCooldown = 5 * time.Minute
)

// Service defines the business logic for accounts, sessions, and tokens.
type Service interface {
	// Credentials
	Signup(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)

	// Refresh sessions
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error

	// OAuth
	InitiateOAuthLogin(ctx context.Context, provider string) (redirectURL string, err error)
	HandleOAuthCallback(ctx context.Context, provider, state, code string) (*TokenPair, error)

	// Password reset
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	// Email verification
	RequestEmailVerification(ctx context.Context, userID string) error
	ConfirmEmailVerification(ctx context.Context, verifyToken string) error

	// Profile
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID, displayName string) (*User, error)
}

// service is the concrete implementation of the auth Service.
type service struct {
	repo     Repository
	states   StateStore
	tokens   *token.Manager
	notifier notification.Service
	tmpl     *templates.Engine
	log      *slog.Logger
	cfg      *config.Config

	// providers resolves an OAuth provider by name. Swappable in tests.
	providers func(name string) (OAuthProvider, error)

	now func() time.Time
}

// NewService creates a new auth service with all its dependencies.
func NewService(
	repo Repository,
	states StateStore,
	tokens *token.Manager,
	notifier notification.Service,
	tmpl *templates.Engine,
	log *slog.Logger,
	cfg *config.Config,
) Service {
	s := &service{
		repo:     repo,
		states:   states,
		tokens:   tokens,
		notifier: notifier,
		tmpl:     tmpl,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
	s.providers = s.defaultProviders
	return s
}
