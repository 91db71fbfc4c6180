package auth

import (
	"context"
	"errors"

	"github.com/ideahub/ideahub-api/internal/auth/token"
	"github.com/ideahub/ideahub-api/internal/notification"
	"github.com/ideahub/ideahub-api/internal/notification/templates"
)

// RequestEmailVerification sends a fresh verification email to the
// authenticated user. Already-verified accounts succeed without sending
// anything; repeat requests inside the cooldown window are rejected.
func (s *service) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal.WithCause(err)
	}
	if user.EmailVerified {
		return nil
	}

	cooldownKey := "verify:" + user.ID
	ok, err := s.states.ReserveCooldown(ctx, cooldownKey, resendCooldown)
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	if !ok {
		// Unlike the reset flow this caller is authenticated, so a 429 leaks
		// nothing.
		return ErrResendTooSoon
	}

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		return err
	}
	return nil
}

// sendVerificationEmail issues a verification token and emails its link.
// Also used right after signup, where a failure is logged but not fatal.
func (s *service) sendVerificationEmail(ctx context.Context, user *User) error {
	plaintext, err := s.issueActionToken(ctx, user.ID, PurposeEmailVerify)
	if err != nil {
		return err
	}

	err = notification.SendTemplate(ctx, s.notifier, s.tmpl, templates.VerifyEmail, user.Email, templates.VerifyEmailData{
		DisplayName:  user.DisplayName,
		VerifyURL:    s.cfg.Server.PublicURL + "/auth/verify?token=" + plaintext,
		SupportEmail: s.cfg.SMTP.From,
	})
	if err != nil {
		return ErrInternal.WithCause(err)
	}
	s.log.Info("verification email sent", "user_id", user.ID)
	return nil
}

// ConfirmEmailVerification redeems a verification token and marks the
// owner's email as verified. Consumption is atomic: the token works exactly
// once, and expiry, reuse, and garbage all fail the same way.
func (s *service) ConfirmEmailVerification(ctx context.Context, verifyToken string) error {
	userID, err := s.repo.ConsumeActionToken(ctx, token.Hash(verifyToken), PurposeEmailVerify)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenInvalid
		}
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.SetEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenInvalid
		}
		return ErrInternal.WithCause(err)
	}

	s.log.Info("email verified", "user_id", userID)
	return nil
}
