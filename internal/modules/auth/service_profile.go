package auth

import (
	"context"
	"errors"
)

// GetProfile returns the account record for the authenticated user.
func (s *service) GetProfile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}
	return user, nil
}

// UpdateProfile changes the user's display name and returns the updated
// record.
func (s *service) UpdateProfile(ctx context.Context, userID, displayName string) (*User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal.WithCause(err)
	}

	user.DisplayName = displayName
	user.UpdatedAt = s.now()
	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	return user, nil
}
