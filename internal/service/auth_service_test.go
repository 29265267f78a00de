package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"adminauth/internal/apperr"
	"adminauth/internal/config"
	"adminauth/internal/mailqueue"
	"adminauth/internal/models"
	"adminauth/internal/repository"
	"adminauth/internal/security"
)

type fakeTx struct{ calls int }

func (f *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeUsers struct {
	byEmail map[string]models.User
	byID    map[string]models.User

	created      []models.User
	passwords    map[string][]byte
	verifiedAt   map[string]time.Time
	profileEdits int
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{
		byEmail:    make(map[string]models.User),
		byID:       make(map[string]models.User),
		passwords:  make(map[string][]byte),
		verifiedAt: make(map[string]time.Time),
	}
	for _, u := range users {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) EmailExists(_ context.Context, email string, excludeID string) (bool, error) {
	u, ok := f.byEmail[email]
	return ok && u.ID != excludeID, nil
}

func (f *fakeUsers) Create(_ context.Context, user models.User, _ []string) error {
	f.created = append(f.created, user)
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, name string, email string) error {
	f.profileEdits++
	u := f.byID[id]
	delete(f.byEmail, u.Email)
	u.Name, u.Email = name, email
	f.byID[id] = u
	f.byEmail[email] = u
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	f.passwords[id] = passwordHash
	return nil
}

func (f *fakeUsers) SetEmailVerified(_ context.Context, id string, verifiedAt time.Time) error {
	f.verifiedAt[id] = verifiedAt
	return nil
}

type fakeVerifications struct {
	tokens  map[string]models.EmailVerification
	deleted []string
}

func newFakeVerifications(tokens ...models.EmailVerification) *fakeVerifications {
	f := &fakeVerifications{tokens: make(map[string]models.EmailVerification)}
	for _, tok := range tokens {
		f.tokens[tok.Token] = tok
	}
	return f
}

func (f *fakeVerifications) Create(_ context.Context, token models.EmailVerification) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeVerifications) FindByToken(_ context.Context, token string) (models.EmailVerification, error) {
	tok, ok := f.tokens[token]
	if !ok {
		return models.EmailVerification{}, repository.ErrTokenNotFound
	}
	return tok, nil
}

func (f *fakeVerifications) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	for key, tok := range f.tokens {
		if tok.ID == id {
			delete(f.tokens, key)
		}
	}
	return nil
}

type fakeResets struct {
	tokens       map[string]models.PasswordResetToken
	purgedUsers  []string
	createdCount int
}

func newFakeResets(tokens ...models.PasswordResetToken) *fakeResets {
	f := &fakeResets{tokens: make(map[string]models.PasswordResetToken)}
	for _, tok := range tokens {
		f.tokens[tok.Token] = tok
	}
	return f
}

func (f *fakeResets) Create(_ context.Context, token models.PasswordResetToken) error {
	f.createdCount++
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeResets) FindByToken(_ context.Context, token string) (models.PasswordResetToken, error) {
	tok, ok := f.tokens[token]
	if !ok {
		return models.PasswordResetToken{}, repository.ErrTokenNotFound
	}
	return tok, nil
}

func (f *fakeResets) DeleteByUser(_ context.Context, userID string) error {
	f.purgedUsers = append(f.purgedUsers, userID)
	for key, tok := range f.tokens {
		if tok.UserID == userID {
			delete(f.tokens, key)
		}
	}
	return nil
}

type fakeResolver struct {
	infos map[string]*models.UserInformation
}

func (f *fakeResolver) Resolve(_ context.Context, userID string) (*models.UserInformation, error) {
	info, ok := f.infos[userID]
	if !ok {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return info, nil
}

type fakeSnapshots struct {
	put         []string
	invalidated []string
}

func (f *fakeSnapshots) Put(_ context.Context, info *models.UserInformation) error {
	f.put = append(f.put, info.ID)
	return nil
}

func (f *fakeSnapshots) Invalidate(_ context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func (f *fakeSnapshots) InvalidateMany(_ context.Context, userIDs []string) error {
	f.invalidated = append(f.invalidated, userIDs...)
	return nil
}

type fakeMail struct {
	sent []mailqueue.Message
}

func (f *fakeMail) Enqueue(_ context.Context, msg mailqueue.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type authFixture struct {
	svc           *AuthService
	tx            *fakeTx
	users         *fakeUsers
	verifications *fakeVerifications
	resets        *fakeResets
	snapshots     *fakeSnapshots
	mail          *fakeMail
}

func newAuthFixture(t *testing.T, users ...models.User) *authFixture {
	t.Helper()

	f := &authFixture{
		tx:            &fakeTx{},
		users:         newFakeUsers(users...),
		verifications: newFakeVerifications(),
		resets:        newFakeResets(),
		snapshots:     &fakeSnapshots{},
		mail:          &fakeMail{},
	}

	resolver := &fakeResolver{infos: make(map[string]*models.UserInformation)}
	for _, u := range users {
		resolver.infos[u.ID] = &models.UserInformation{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Roles: []string{"member"},
		}
	}

	cfg := &config.AppConfig{
		ClientURL: "https://app.example.com",
		Security: config.SecurityConfig{
			VerificationTokenTTL: time.Hour,
		},
	}

	f.svc = NewAuthService(f.tx, f.users, f.verifications, f.resets, resolver, f.snapshots, f.mail, cfg, zerolog.Nop())
	return f
}

func activeUser(t *testing.T, password string) models.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	verified := time.Now().Add(-time.Hour)
	return models.User{
		ID:              "user-1",
		Name:            "Jordan",
		Email:           "jordan@example.com",
		PasswordHash:    hash,
		Status:          models.UserStatusActive,
		EmailVerifiedAt: &verified,
	}
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t, activeUser(t, "hunter22hunter22"))

	info, err := f.svc.Login(context.Background(), "jordan@example.com", "hunter22hunter22")
	require.NoError(t, err)
	require.Equal(t, "user-1", info.ID)

	// successful login warms the snapshot cache
	require.Equal(t, []string{"user-1"}, f.snapshots.put)
}

// Unknown email and wrong password must produce identical errors so the
// login endpoint cannot be used to enumerate accounts.
func TestLogin_EnumerationSafe(t *testing.T) {
	f := newAuthFixture(t, activeUser(t, "hunter22hunter22"))

	_, unknownErr := f.svc.Login(context.Background(), "nobody@example.com", "whatever")
	_, wrongErr := f.svc.Login(context.Background(), "jordan@example.com", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	require.Equal(t, apperr.From(unknownErr), apperr.From(wrongErr))
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	user := activeUser(t, "hunter22hunter22")
	user.EmailVerifiedAt = nil
	f := newAuthFixture(t, user)

	_, err := f.svc.Login(context.Background(), user.Email, "hunter22hunter22")
	require.Error(t, err)

	appErr := apperr.From(err)
	require.Equal(t, apperr.KindValidation, appErr.Kind)
	require.Equal(t, "Email not verified", appErr.Fields[0].Message)
}

func TestLogin_InactiveAccount(t *testing.T) {
	for _, status := range []models.UserStatus{
		models.UserStatusInactive,
		models.UserStatusSuspended,
		models.UserStatusBlocked,
	} {
		user := activeUser(t, "hunter22hunter22")
		user.Status = status
		f := newAuthFixture(t, user)

		_, err := f.svc.Login(context.Background(), user.Email, "hunter22hunter22")
		require.Error(t, err, "status %s", status)
		require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	}
}

// The verified gate runs before the password check, so a wrong password on
// an unverified account reports unverified, not bad credentials.
func TestLogin_GateOrder(t *testing.T) {
	user := activeUser(t, "hunter22hunter22")
	user.EmailVerifiedAt = nil
	f := newAuthFixture(t, user)

	_, err := f.svc.Login(context.Background(), user.Email, "wrong-password")
	require.Error(t, err)
	require.Equal(t, "Email not verified", apperr.From(err).Fields[0].Message)
}

func TestRegister_CreatesUserTokenAndEmail(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "a-long-password",
	})
	require.NoError(t, err)

	require.Len(t, f.users.created, 1)
	require.Equal(t, "sam@example.com", f.users.created[0].Email)
	require.Nil(t, f.users.created[0].EmailVerifiedAt)
	require.True(t, security.VerifyPassword("a-long-password", f.users.created[0].PasswordHash))

	require.Len(t, f.verifications.tokens, 1)
	require.Len(t, f.mail.sent, 1)
	require.Equal(t, "auth/email-verification", f.mail.sent[0].Template)
	require.Contains(t, f.mail.sent[0].Variables["verification_url"], "https://app.example.com/auth/verify-email?token=")

	require.Equal(t, 1, f.tx.calls)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, activeUser(t, "hunter22hunter22"))

	err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Imposter",
		Email:    "jordan@example.com",
		Password: "a-long-password",
	})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	require.Empty(t, f.users.created)
	require.Empty(t, f.mail.sent)
}

func TestResendVerification_UnverifiedUser(t *testing.T) {
	user := activeUser(t, "hunter22hunter22")
	user.EmailVerifiedAt = nil
	f := newAuthFixture(t, user)

	require.NoError(t, f.svc.ResendVerification(context.Background(), user.Email))
	require.Len(t, f.verifications.tokens, 1)
	require.Len(t, f.mail.sent, 1)
}

func TestResendVerification_SilentNoOps(t *testing.T) {
	f := newAuthFixture(t, activeUser(t, "hunter22hunter22"))

	// already verified
	require.NoError(t, f.svc.ResendVerification(context.Background(), "jordan@example.com"))
	// unknown email
	require.NoError(t, f.svc.ResendVerification(context.Background(), "nobody@example.com"))

	require.Empty(t, f.mail.sent)
	require.Empty(t, f.verifications.tokens)
}

func TestResendVerification_TokensAccumulate(t *testing.T) {
	user := activeUser(t, "hunter22hunter22")
	user.EmailVerifiedAt = nil
	f := newAuthFixture(t, user)

	require.NoError(t, f.svc.ResendVerification(context.Background(), user.Email))
	require.NoError(t, f.svc.ResendVerification(context.Background(), user.Email))

	// earlier tokens stay valid until used or expired
	require.Len(t, f.verifications.tokens, 2)
}

func TestVerifyEmail_ConsumesToken(t *testing.T) {
	user := activeUser(t, "hunter22hunter22")
	user.EmailVerifiedAt = nil
	f := newAuthFixture(t, user)
	f.verifications = newFakeVerifications(models.EmailVerification{
		ID:        "ver-1",
		UserID:    user.ID,
		Token:     "tok",
		ExpiredAt: time.Now().Add(time.Hour),
	})
	f.svc.verifications = f.verifications

	require.NoError(t, f.svc.VerifyEmail(context.Background(), "tok"))
	require.Contains(t, f.users.verifiedAt, user.ID)
	require.Equal(t, []string{"ver-1"}, f.verifications.deleted)

	// single use
	err := f.svc.VerifyEmail(context.Background(), "tok")
	require.Error(t, err)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.VerifyEmail(context.Background(), "no-such-token")
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	user := activeUser(t, "hunter22hunter22")
	user.EmailVerifiedAt = nil
	f := newAuthFixture(t, user)
	f.verifications = newFakeVerifications(models.EmailVerification{
		ID:        "ver-1",
		UserID:    user.ID,
		Token:     "tok",
		ExpiredAt: time.Now().Add(-time.Minute),
	})
	f.svc.verifications = f.verifications

	err := f.svc.VerifyEmail(context.Background(), "tok")
	require.Error(t, err)
	require.Empty(t, f.users.verifiedAt)
}

func TestForgotPassword_KnownEmail(t *testing.T) {
	f := newAuthFixture(t, activeUser(t, "hunter22hunter22"))

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "jordan@example.com"))
	require.Equal(t, 1, f.resets.createdCount)
	require.Len(t, f.mail.sent, 1)
	require.Equal(t, "auth/forgot-password", f.mail.sent[0].Template)
	require.Contains(t, f.mail.sent[0].Variables["reset_password_url"], "https://app.example.com/auth/reset-password?token=")
}

func TestForgotPassword_UnknownEmailSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "nobody@example.com"))
	require.Zero(t, f.resets.createdCount)
	require.Empty(t, f.mail.sent)
}

func TestResetPassword_PurgesAllTokens(t *testing.T) {
	user := activeUser(t, "old-password-123")
	f := newAuthFixture(t, user)
	f.resets = newFakeResets(
		models.PasswordResetToken{ID: "r1", UserID: user.ID, Token: "tok-1"},
		models.PasswordResetToken{ID: "r2", UserID: user.ID, Token: "tok-2"},
	)
	f.svc.resets = f.resets

	require.NoError(t, f.svc.ResetPassword(context.Background(), "tok-1", "new-password-123"))

	require.True(t, security.VerifyPassword("new-password-123", f.users.passwords[user.ID]))
	require.Equal(t, []string{user.ID}, f.resets.purgedUsers)
	require.Empty(t, f.resets.tokens)
	require.Equal(t, []string{user.ID}, f.snapshots.invalidated)

	// every sibling token died with the reset
	err := f.svc.ResetPassword(context.Background(), "tok-2", "another-password-1")
	require.Error(t, err)
}

func TestResetPassword_UnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.ResetPassword(context.Background(), "no-such-token", "new-password-123")
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
}
