package auth

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Handler holds the dependencies for the auth module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the auth module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the auth module. requireAuth is the
// bearer-token middleware applied to the operations that need an
// authenticated caller.
func (h *Handler) RegisterRoutes(api huma.API, requireAuth func(ctx huma.Context, next func(huma.Context))) {
	bearer := []map[string][]string{{"bearer": {}}}

	// --- Credential Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "auth-signup",
		Method:        http.MethodPost,
		Path:          "/auth/signup",
		Summary:       "Register a new account",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.SignupHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
		Tags:        []string{"auth"},
	}, h.LoginHandler)

	// --- Session Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-refresh",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Rotate a refresh token",
		Tags:        []string{"auth"},
	}, h.RefreshHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-logout",
		Method:        http.MethodPost,
		Path:          "/auth/logout",
		Summary:       "Revoke a refresh session",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusNoContent,
	}, h.LogoutHandler)

	// --- OAuth Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-oauth-initiate",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/{provider}",
		Summary:     "Initiate an OAuth login",
		Tags:        []string{"auth"},
	}, h.OAuthLoginHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-oauth-callback",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/{provider}/callback",
		Summary:     "Handle an OAuth provider callback",
		Tags:        []string{"auth"},
	}, h.OAuthCallbackHandler)

	// --- Password Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "auth-password-forgot",
		Method:        http.MethodPost,
		Path:          "/auth/password/forgot",
		Summary:       "Request a password reset email",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusAccepted,
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-password-reset",
		Method:        http.MethodPost,
		Path:          "/auth/password/reset",
		Summary:       "Reset password with a token",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusNoContent,
	}, h.ResetPasswordHandler)

	// --- Verification Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "auth-verification-request",
		Method:        http.MethodPost,
		Path:          "/auth/verification/request",
		Summary:       "Request a verification email",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusAccepted,
		Security:      bearer,
		Middlewares:   huma.Middlewares{requireAuth},
	}, h.RequestVerificationHandler)

	huma.Register(api, huma.Operation{
		OperationID:   "auth-verification-confirm",
		Method:        http.MethodPost,
		Path:          "/auth/verification/confirm",
		Summary:       "Confirm an email address",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusNoContent,
	}, h.ConfirmVerificationHandler)

	// --- Profile Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Get the current user's profile",
		Tags:        []string{"me"},
		Security:    bearer,
		Middlewares: huma.Middlewares{requireAuth},
	}, h.GetProfileHandler)

	huma.Register(api, huma.Operation{
		OperationID: "update-me",
		Method:      http.MethodPatch,
		Path:        "/me",
		Summary:     "Update the current user's profile",
		Tags:        []string{"me"},
		Security:    bearer,
		Middlewares: huma.Middlewares{requireAuth},
	}, h.UpdateProfileHandler)
}
