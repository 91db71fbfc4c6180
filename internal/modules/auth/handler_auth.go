package auth

import (
	"context"
	"time"

	"github.com/ideahub/ideahub-api/internal/httpx"
	"github.com/ideahub/ideahub-api/internal/validation"
)

// --- DTOs ---

// SignupRequest defines the structure for the account registration body.
type SignupRequest struct {
	Body struct {
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=8,max=128"`
		DisplayName string `json:"displayName" validate:"required,min=2,max=64"`
	}
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	Body UserBody
}

type UserBody struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LoginRequest defines the structure for the login body.
type LoginRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
}

// TokenPairResponse carries a fresh access/refresh token pair.
type TokenPairResponse struct {
	Body TokenPairBody
}

type TokenPairBody struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshRequest carries the refresh token being rotated.
type RefreshRequest struct {
	Body struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
}

// LogoutRequest carries the refresh token whose session is being closed.
type LogoutRequest struct {
	Body struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
}

type LogoutResponse struct{}

// --- Mappers ---

func toUserResponse(user *User) *UserResponse {
	return &UserResponse{Body: UserBody{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		Role:          string(user.Role),
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}}
}

func toTokenPairResponse(pair *TokenPair) *TokenPairResponse {
	return &TokenPairResponse{Body: TokenPairBody{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}}
}

// --- Handlers ---

// SignupHandler handles account registration.
func (h *Handler) SignupHandler(ctx context.Context, input *SignupRequest) (*UserResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	user, err := h.service.Signup(ctx, input.Body.Email, input.Body.Password, input.Body.DisplayName)
	if err != nil {
		h.logger.Warn("signup failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toUserResponse(user), nil
}

// LoginHandler handles email/password login.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*TokenPairResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	pair, err := h.service.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		h.logger.Warn("login attempt failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toTokenPairResponse(pair), nil
}

// RefreshHandler rotates a refresh token for a new pair.
func (h *Handler) RefreshHandler(ctx context.Context, input *RefreshRequest) (*TokenPairResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	pair, err := h.service.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		h.logger.Warn("refresh failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toTokenPairResponse(pair), nil
}

// LogoutHandler closes the session behind a refresh token. Always succeeds
// for well-formed requests.
func (h *Handler) LogoutHandler(ctx context.Context, input *LogoutRequest) (*LogoutResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.Logout(ctx, input.Body.RefreshToken); err != nil {
		h.logger.Error("logout failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &LogoutResponse{}, nil
}
