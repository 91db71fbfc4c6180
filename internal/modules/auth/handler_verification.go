package auth

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ideahub/ideahub-api/internal/contextx"
	"github.com/ideahub/ideahub-api/internal/httpx"
	"github.com/ideahub/ideahub-api/internal/validation"
)

// --- DTOs ---

type RequestVerificationRequest struct{}

type RequestVerificationResponse struct{}

type ConfirmVerificationRequest struct {
	Body struct {
		Token string `json:"token" validate:"required"`
	}
}

type ConfirmVerificationResponse struct{}

// --- Handlers ---

// RequestVerificationHandler sends a fresh verification email to the
// authenticated user. The cooldown is enforced in the service layer.
func (h *Handler) RequestVerificationHandler(ctx context.Context, _ *RequestVerificationRequest) (*RequestVerificationResponse, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for verification request")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	if err := h.service.RequestEmailVerification(ctx, userID); err != nil {
		h.logger.Warn("verification email request failed", "user_id", userID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &RequestVerificationResponse{}, nil
}

// ConfirmVerificationHandler redeems a verification token.
func (h *Handler) ConfirmVerificationHandler(ctx context.Context, input *ConfirmVerificationRequest) (*ConfirmVerificationResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ConfirmEmailVerification(ctx, input.Body.Token); err != nil {
		h.logger.Warn("email verification failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &ConfirmVerificationResponse{}, nil
}
