package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/marketplace-api/shared/auth"
	"github.com/vasapolrittideah/marketplace-api/shared/mailer"
	"github.com/vasapolrittideah/marketplace-api/shared/security"
)

// ForgotPassword mails a reset link to the account. The token itself is never returned.
func (u *accountUsecase) ForgotPassword(ctx context.Context, email string) error {
	user, err := u.getUser(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	token, _, err := u.tokens.Issue(user.Email, auth.PurposeReset, u.cfg.Token.ResetTTL)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset_password/%s", strings.TrimRight(u.cfg.AppBaseURL, "/"), token)
	htmlBody := fmt.Sprintf(`
		<p>Hi,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, please click the link below to create a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s for your security.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Marketplace Team</p>
	`, link, link, u.cfg.Token.ResetTTL)

	textBody := fmt.Sprintf(
		"Hi,\n\nWe received a request to reset the password for your account. Create a new password here:\n%s\n\n"+
			"This link will expire in %s. If you did not request a password reset, you can safely ignore this email.\n",
		link, u.cfg.Token.ResetTTL,
	)

	if err := u.notifier.Send(mailer.Email{
		To:       []string{user.Email},
		Subject:  "Password Reset Request",
		Body:     textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		u.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send password reset email")
	}

	return nil
}

// ResetPassword replaces the password hash. The confirmed flag is left untouched.
func (u *accountUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := u.tokens.Verify(token, auth.PurposeReset)
	if err != nil {
		return err
	}

	user, err := u.getUser(ctx, claims.Subject)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.Email, repository.UpdateUserParams{PasswordHash: &passwordHash}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	return nil
}
