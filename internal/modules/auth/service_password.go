package auth

import (
	"context"
	"errors"

	"github.com/ideahub/ideahub-api/internal/auth/token"
	"github.com/ideahub/ideahub-api/internal/notification"
	"github.com/ideahub/ideahub-api/internal/notification/templates"
)

// RequestPasswordReset issues a single-use reset token and emails it. This
// is an unauthenticated endpoint, so every accepted outcome looks the same:
// unknown emails succeed silently, and a repeat request inside the cooldown
// window also succeeds silently without sending. Only a genuine server
// failure is surfaced.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info("password reset requested for unknown email")
			return nil
		}
		return ErrInternal.WithCause(err)
	}

	cooldownKey := "reset:" + user.ID
	ok, err := s.states.ReserveCooldown(ctx, cooldownKey, resendCooldown)
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if !ok {
		// A distinct response here would reveal that the email is registered,
		// since only registered emails can ever be inside the window.
		s.log.Info("password reset re-requested inside cooldown, skipping send", "user_id", user.ID)
		return nil
	}

	plaintext, err := s.issueActionToken(ctx, user.ID, PurposePasswordReset)
	if err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		return err
	}

	err = notification.SendTemplate(ctx, s.notifier, s.tmpl, templates.PasswordReset, user.Email, templates.PasswordResetData{
		DisplayName:  user.DisplayName,
		ResetURL:     s.cfg.Server.PublicURL + "/auth/password/reset?token=" + plaintext,
		SupportEmail: s.cfg.SMTP.From,
	})
	if err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		return ErrInternal.WithCause(err)
	}
	s.log.Info("password reset email sent", "user_id", user.ID)
	return nil
}

// releaseCooldown frees a cooldown reservation whose guarded send failed, so
// the user can retry immediately. Best effort: if the release itself fails
// the window simply runs out on its own.
func (s *service) releaseCooldown(ctx context.Context, key string) {
	if err := s.states.ReleaseCooldown(ctx, key); err != nil {
		s.log.Error("could not release cooldown", "key", key, "error", err)
	}
}

// ResetPassword redeems a reset token and installs the new password. The
// token is consumed atomically, so two racing resets with the same token
// cannot both succeed, and every refresh session is revoked afterwards.
func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	userID, err := s.repo.ConsumeActionToken(ctx, token.Hash(resetToken), PurposePasswordReset)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenInvalid
		}
		return ErrInternal.WithCause(err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenInvalid
		}
		return ErrInternal.WithCause(err)
	}

	// A reset implies the old credential may be compromised; force every
	// device to log in again with the new password.
	if err := s.repo.RevokeAllRefreshSessions(ctx, userID); err != nil {
		return ErrInternal.WithCause(err)
	}

	s.log.Info("password reset completed", "user_id", userID)
	return nil
}
