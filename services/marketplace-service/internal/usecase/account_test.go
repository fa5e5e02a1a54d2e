package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/marketplace-api/services/marketplace-service/internal/repository/memory"
	"github.com/vasapolrittideah/marketplace-api/shared/auth"
	"github.com/vasapolrittideah/marketplace-api/shared/mailer"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(email mailer.Email) error {
	args := m.Called(email)
	return args.Error(0)
}

func emailTo(to, subject string) any {
	return mock.MatchedBy(func(e mailer.Email) bool {
		return len(e.To) == 1 && e.To[0] == to && e.Subject == subject
	})
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type accountFixture struct {
	usecase  AccountUsecase
	store    *memory.Store
	notifier *mockNotifier
	clock    *testClock
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	cfg := &config.Config{
		AppBaseURL: "http://app.test",
		Token: config.TokenConfig{
			Secret:     "test-secret",
			Issuer:     "marketplace-api",
			SessionTTL: 60 * time.Minute,
			ConfirmTTL: 60 * time.Minute,
			ResetTTL:   30 * time.Minute,
		},
	}

	clock := &testClock{now: time.Now().UTC()}
	tokens, err := auth.NewTokenService(cfg.Token.Secret, cfg.Token.Issuer, auth.WithClock(clock.Now))
	require.NoError(t, err)

	logger := zerolog.Nop()
	store := memory.NewStore()
	notifier := &mockNotifier{}

	return &accountFixture{
		usecase:  NewAccountUsecase(store, tokens, notifier, &logger, cfg),
		store:    store,
		notifier: notifier,
		clock:    clock,
	}
}

var linkPattern = regexp.MustCompile(`http://app\.test/(confirm_email|reset_password)/([A-Za-z0-9_\-.]+)`)

// lastToken returns the token from the most recent email linking to route.
func (f *accountFixture) lastToken(t *testing.T, route string) string {
	t.Helper()

	for i := len(f.notifier.Calls) - 1; i >= 0; i-- {
		body := f.notifier.Calls[i].Arguments.Get(0).(mailer.Email).HTMLBody
		for _, m := range linkPattern.FindAllStringSubmatch(body, -1) {
			if m[1] == route {
				return m[2]
			}
		}
	}

	t.Fatalf("no %s link was mailed", route)
	return ""
}

func (f *accountFixture) signup(t *testing.T, username, email, password string) string {
	t.Helper()

	_, err := f.usecase.Signup(context.Background(), SignupParams{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return f.lastToken(t, "confirm_email")
}

func TestAccount_SignupConfirmLogin(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", emailTo("a@x.com", "Confirm your email")).Return(nil).Once()
	ctx := context.Background()

	user, err := f.usecase.Signup(ctx, SignupParams{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.False(t, user.Confirmed)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	token := f.lastToken(t, "confirm_email")

	stored, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, token, stored.ConfirmToken)

	already, err := f.usecase.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)

	session, err := f.usecase.Login(ctx, LoginParams{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, f.clock.now.Add(60*time.Minute), session.ExpiresAt, time.Second)

	subject, err := f.usecase.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)

	_, err = f.usecase.Login(ctx, LoginParams{Email: "a@x.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	f.notifier.AssertExpectations(t)
}

func TestAccount_LoginBeforeConfirmation(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	f.signup(t, "alice", "a@x.com", "pw1")

	_, err := f.usecase.Login(ctx, LoginParams{Email: "a@x.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrEmailNotConfirmed)

	_, err = f.usecase.Login(ctx, LoginParams{Email: "a@x.com", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.usecase.Login(ctx, LoginParams{Email: "ghost@x.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccount_ConfirmEmailIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	token := f.signup(t, "alice", "a@x.com", "pw1")

	already, err := f.usecase.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)

	before, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	already, err = f.usecase.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, already)

	after, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAccount_TokenPurposesDoNotCross(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	confirmToken := f.signup(t, "alice", "a@x.com", "pw1")
	require.NoError(t, f.usecase.ForgotPassword(ctx, "a@x.com"))
	resetToken := f.lastToken(t, "reset_password")

	err := f.usecase.ResetPassword(ctx, confirmToken, "pw2")
	require.ErrorIs(t, err, auth.ErrWrongPurpose)

	_, err = f.usecase.ConfirmEmail(ctx, resetToken)
	require.ErrorIs(t, err, auth.ErrWrongPurpose)

	_, err = f.usecase.Authenticate(ctx, confirmToken)
	require.ErrorIs(t, err, auth.ErrWrongPurpose)

	stored, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, stored.Confirmed)
}

func TestAccount_DuplicateSignup(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	f.signup(t, "alice", "a@x.com", "pw1")
	before, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	_, err = f.usecase.Signup(ctx, SignupParams{Username: "alice2", Email: " A@X.com ", Password: "other"})
	require.ErrorIs(t, err, ErrAccountExists)

	_, err = f.usecase.Signup(ctx, SignupParams{Username: "alice", Email: "b@x.com", Password: "other"})
	require.ErrorIs(t, err, ErrAccountExists)

	after, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = f.store.GetUserByEmail(ctx, "b@x.com")
	require.Error(t, err)

	f.notifier.AssertNumberOfCalls(t, "Send", 1)
}

func TestAccount_ExpiredAndTamperedTokens(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	token := f.signup(t, "alice", "a@x.com", "pw1")

	tampered := tamperSignature(token)
	_, err := f.usecase.ConfirmEmail(ctx, tampered)
	require.ErrorIs(t, err, auth.ErrTokenMalformed)

	_, err = f.usecase.ConfirmEmail(ctx, "not-a-token")
	require.ErrorIs(t, err, auth.ErrTokenMalformed)

	f.clock.now = f.clock.now.Add(61 * time.Minute)
	_, err = f.usecase.ConfirmEmail(ctx, token)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
}

// tamperSignature swaps a character in the middle of the signature segment.
func tamperSignature(token string) string {
	i := strings.LastIndex(token, ".") + (len(token)-strings.LastIndex(token, "."))/2
	replacement := byte('A')
	if token[i] == 'A' {
		replacement = 'B'
	}
	return token[:i] + string(replacement) + token[i+1:]
}

func TestAccount_ForgotAndResetPassword(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	confirmToken := f.signup(t, "alice", "a@x.com", "pw1")
	_, err := f.usecase.ConfirmEmail(ctx, confirmToken)
	require.NoError(t, err)

	require.NoError(t, f.usecase.ForgotPassword(ctx, "a@x.com"))
	f.notifier.AssertCalled(t, "Send", emailTo("a@x.com", "Password Reset Request"))
	resetToken := f.lastToken(t, "reset_password")

	require.NoError(t, f.usecase.ResetPassword(ctx, resetToken, "pw2"))

	_, err = f.usecase.Login(ctx, LoginParams{Email: "a@x.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := f.usecase.Login(ctx, LoginParams{Email: "a@x.com", Password: "pw2"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	stored, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)
}

func TestAccount_ResetTokenExpiresAfterThirtyMinutes(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)
	ctx := context.Background()

	f.signup(t, "alice", "a@x.com", "pw1")
	require.NoError(t, f.usecase.ForgotPassword(ctx, "a@x.com"))
	resetToken := f.lastToken(t, "reset_password")

	f.clock.now = f.clock.now.Add(31 * time.Minute)
	require.ErrorIs(t, f.usecase.ResetPassword(ctx, resetToken, "pw2"), auth.ErrTokenExpired)
}

func TestAccount_ForgotPasswordUnknownEmail(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)

	err := f.usecase.ForgotPassword(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything)
}

func TestAccount_DeliveryFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(errors.New("smtp down"))
	ctx := context.Background()

	user, err := f.usecase.Signup(ctx, SignupParams{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	require.NoError(t, f.usecase.ForgotPassword(ctx, "a@x.com"))
	f.notifier.AssertNumberOfCalls(t, "Send", 2)
}

func TestAccount_SignupEmailEscapesUsername(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	f.notifier.On("Send", mock.Anything).Return(nil)

	_, err := f.usecase.Signup(context.Background(), SignupParams{
		Username: `<a href="//e.vil">x</a>`,
		Email:    "a@x.com",
		Password: "pw1",
	})
	require.NoError(t, err)
	require.Len(t, f.notifier.Calls, 1)

	email := f.notifier.Calls[0].Arguments.Get(0).(mailer.Email)
	assert.Contains(t, email.HTMLBody, "Hi &lt;a href=&#34;//e.vil&#34;&gt;x&lt;/a&gt;,")
	assert.NotContains(t, email.HTMLBody, `<a href="//e.vil">`)
	assert.Contains(t, email.Body, "http://app.test/confirm_email/")
}

func TestAccount_ConfirmForDeletedAccount(t *testing.T) {
	t.Parallel()

	f := newAccountFixture(t)
	ctx := context.Background()

	tokens, err := auth.NewTokenService("test-secret", "marketplace-api", auth.WithClock(f.clock.Now))
	require.NoError(t, err)
	token, _, err := tokens.Issue("ghost@x.com", auth.PurposeConfirm, time.Hour)
	require.NoError(t, err)

	_, err = f.usecase.ConfirmEmail(ctx, token)
	require.ErrorIs(t, err, ErrAccountNotFound)
}
