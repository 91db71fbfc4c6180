package auth

import (
	"context"

	"github.com/ideahub/ideahub-api/internal/httpx"
)

// --- DTOs ---

// OAuthLoginRequest names the provider being requested from the URL path.
type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

// OAuthLoginResponse hands the provider's authorization URL to the client,
// which performs the actual redirect.
type OAuthLoginResponse struct {
	Body struct {
		RedirectURL string `json:"redirectUrl"`
	}
}

// OAuthCallbackRequest defines the query parameters sent by the provider.
type OAuthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
	// Error is set by the provider when the user denied consent.
	Error string `query:"error"`
}

// --- Handlers ---

// OAuthLoginHandler starts an OAuth flow and returns the authorization URL.
func (h *Handler) OAuthLoginHandler(ctx context.Context, input *OAuthLoginRequest) (*OAuthLoginResponse, error) {
	h.logger.Info("initiating oauth login", "provider", input.Provider)

	redirectURL, err := h.service.InitiateOAuthLogin(ctx, input.Provider)
	if err != nil {
		h.logger.Warn("failed to initiate oauth login", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthLoginResponse{}
	resp.Body.RedirectURL = redirectURL
	return resp, nil
}

// OAuthCallbackHandler completes an OAuth flow and returns a token pair.
func (h *Handler) OAuthCallbackHandler(ctx context.Context, input *OAuthCallbackRequest) (*TokenPairResponse, error) {
	h.logger.Info("handling oauth callback", "provider", input.Provider)

	if input.Error != "" {
		h.logger.Warn("oauth provider returned an error", "provider", input.Provider, "error", input.Error)
		return nil, httpx.ToProblem(ctx, ErrOAuthExchangeFailed)
	}

	pair, err := h.service.HandleOAuthCallback(ctx, input.Provider, input.State, input.Code)
	if err != nil {
		h.logger.Warn("oauth callback processing failed", "provider", input.Provider, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toTokenPairResponse(pair), nil
}
