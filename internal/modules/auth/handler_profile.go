package auth

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ideahub/ideahub-api/internal/contextx"
	"github.com/ideahub/ideahub-api/internal/httpx"
	"github.com/ideahub/ideahub-api/internal/validation"
)

// --- DTOs ---

// UpdateProfileRequest defines the fields that can be changed on a profile.
type UpdateProfileRequest struct {
	Body struct {
		DisplayName string `json:"displayName" validate:"required,min=2,max=64"`
	}
}

// --- Handlers ---

// GetProfileHandler returns the authenticated user's profile. The auth
// middleware has already placed the user ID on the context.
func (h *Handler) GetProfileHandler(ctx context.Context, _ *struct{}) (*UserResponse, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for get profile")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	user, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.logger.Error("failed to get profile", "user_id", userID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toUserResponse(user), nil
}

// UpdateProfileHandler updates the authenticated user's profile.
func (h *Handler) UpdateProfileHandler(ctx context.Context, input *UpdateProfileRequest) (*UserResponse, error) {
	userID, ok := ctx.Value(contextx.UserIDKey).(string)
	if !ok || userID == "" {
		h.logger.Error("user ID not found in context for update profile")
		return nil, huma.Error401Unauthorized("invalid authentication context")
	}

	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	user, err := h.service.UpdateProfile(ctx, userID, input.Body.DisplayName)
	if err != nil {
		h.logger.Error("failed to update profile", "user_id", userID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("profile updated", "user_id", userID)
	return toUserResponse(user), nil
}
