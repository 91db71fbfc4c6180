package auth

import (
	"context"

	"github.com/ideahub/ideahub-api/internal/httpx"
	"github.com/ideahub/ideahub-api/internal/validation"
)

// --- DTOs ---

type ForgotPasswordRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

type ForgotPasswordResponse struct{}

type ResetPasswordRequest struct {
	Body struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
	}
}

type ResetPasswordResponse struct{}

// --- Handlers ---

// ForgotPasswordHandler requests a reset email. It responds 202 whether the
// email is registered, unknown, or inside the resend cooldown; the response
// never discloses which.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		h.logger.Warn("password reset request failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &ForgotPasswordResponse{}, nil
}

// ResetPasswordHandler redeems a reset token and sets the new password.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResetPassword(ctx, input.Body.Token, input.Body.NewPassword); err != nil {
		h.logger.Warn("password reset failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return &ResetPasswordResponse{}, nil
}
