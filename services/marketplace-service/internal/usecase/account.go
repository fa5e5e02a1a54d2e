package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/marketplace-api/shared/auth"
	"github.com/vasapolrittideah/marketplace-api/shared/mailer"
	"github.com/vasapolrittideah/marketplace-api/shared/security"
)

// AccountUsecase drives an account from signup through confirmation, login and password reset.
type AccountUsecase interface {
	Signup(ctx context.Context, params SignupParams) (*model.User, error)
	// ConfirmEmail reports alreadyConfirmed when the account had been confirmed before this call.
	ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error)
	Login(ctx context.Context, params LoginParams) (*Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	// Authenticate verifies a session token and returns the account email it was issued to.
	Authenticate(ctx context.Context, token string) (string, error)
}

type SignupParams struct {
	Username string
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

// Session is a bearer token handed out by Login.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Notifier delivers account emails.
type Notifier interface {
	Send(email mailer.Email) error
}

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email address has not been confirmed")
	ErrAccountNotFound    = errors.New("account not found")
)

type accountUsecase struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
	notifier Notifier
	logger   *zerolog.Logger
	cfg      *config.Config
}

func NewAccountUsecase(
	userRepo repository.UserRepository,
	tokens *auth.TokenService,
	notifier Notifier,
	logger *zerolog.Logger,
	cfg *config.Config,
) AccountUsecase {
	return &accountUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

func (u *accountUsecase) Signup(ctx context.Context, params SignupParams) (*model.User, error) {
	email := normalizeEmail(params.Email)

	_, err := u.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrAccountExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	token, _, err := u.tokens.Issue(email, auth.PurposeConfirm, u.cfg.Token.ConfirmTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue confirmation token: %w", err)
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Username:     strings.TrimSpace(params.Username),
		Email:        email,
		PasswordHash: passwordHash,
		ConfirmToken: token,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, err
	}

	link := fmt.Sprintf("%s/confirm_email/%s", strings.TrimRight(u.cfg.AppBaseURL, "/"), token)
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Thanks for signing up. Please confirm your email address by clicking the link below:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>

		<p>Thank you,</p>
		<p>Marketplace Team</p>
	`, html.EscapeString(user.Username), link, link, u.cfg.Token.ConfirmTTL)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nThanks for signing up. Confirm your email address here:\n%s\n\nThis link will expire in %s.\n",
		user.Username, link, u.cfg.Token.ConfirmTTL,
	)

	if err := u.notifier.Send(mailer.Email{
		To:       []string{user.Email},
		Subject:  "Confirm your email",
		Body:     textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		u.logger.Warn().Err(err).Str("email", user.Email).Msg("failed to send confirmation email")
	}

	return user, nil
}

func (u *accountUsecase) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	claims, err := u.tokens.Verify(token, auth.PurposeConfirm)
	if err != nil {
		return false, err
	}

	user, err := u.getUser(ctx, claims.Subject)
	if err != nil {
		return false, err
	}

	if user.Confirmed {
		return true, nil
	}

	confirmed := true
	if _, err := u.userRepo.UpdateUser(ctx, user.Email, repository.UpdateUserParams{Confirmed: &confirmed}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrAccountNotFound
		}
		return false, err
	}

	return false, nil
}

func (u *accountUsecase) Login(ctx context.Context, params LoginParams) (*Session, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	token, expiresAt, err := u.tokens.Issue(user.Email, auth.PurposeSession, u.cfg.Token.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (u *accountUsecase) Authenticate(_ context.Context, token string) (string, error) {
	claims, err := u.tokens.Verify(token, auth.PurposeSession)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (u *accountUsecase) getUser(ctx context.Context, email string) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
