package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adminauth/internal/apperr"
	"adminauth/internal/config"
	"adminauth/internal/mailqueue"
	"adminauth/internal/models"
	"adminauth/internal/repository"
	"adminauth/internal/security"
)

// TxManager runs a function inside one database transaction.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	EmailExists(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, user models.User, roleIDs []string) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
}

type VerificationStore interface {
	Create(ctx context.Context, token models.EmailVerification) error
	FindByToken(ctx context.Context, token string) (models.EmailVerification, error)
	Delete(ctx context.Context, id string) error
}

type ResetStore interface {
	Create(ctx context.Context, token models.PasswordResetToken) error
	FindByToken(ctx context.Context, token string) (models.PasswordResetToken, error)
	DeleteByUser(ctx context.Context, userID string) error
}

type SnapshotResolver interface {
	Resolve(ctx context.Context, userID string) (*models.UserInformation, error)
}

type SnapshotStore interface {
	Put(ctx context.Context, info *models.UserInformation) error
	Invalidate(ctx context.Context, userID string) error
	InvalidateMany(ctx context.Context, userIDs []string) error
}

type MailEnqueuer interface {
	Enqueue(ctx context.Context, msg mailqueue.Message) error
}

// verificationTokenLength matches the 255-char column budget for the opaque
// single-use tokens.
const verificationTokenLength = 64

// invalidCredentials is shared by the unknown-email and wrong-password login
// branches so the two failure bodies are byte-identical.
func invalidCredentials() error {
	return apperr.Validation("Validation error", apperr.FieldError{
		Field:   "email",
		Message: "Invalid email or password",
	})
}

func invalidResetToken() error {
	return apperr.Validation("Validation error", apperr.FieldError{
		Field:   "token",
		Message: "Invalid or expired password reset token",
	})
}

type AuthService struct {
	db            TxManager
	users         UserStore
	verifications VerificationStore
	resets        ResetStore
	resolver      SnapshotResolver
	snapshots     SnapshotStore
	mail          MailEnqueuer
	cfg           *config.AppConfig
	log           zerolog.Logger
}

func NewAuthService(
	db TxManager,
	users UserStore,
	verifications VerificationStore,
	resets ResetStore,
	resolver SnapshotResolver,
	snapshots SnapshotStore,
	mail MailEnqueuer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		db:            db,
		users:         users,
		verifications: verifications,
		resets:        resets,
		resolver:      resolver,
		snapshots:     snapshots,
		mail:          mail,
		cfg:           cfg,
		log:           log,
	}
}

// Login verifies the credential gates in order: user exists, email verified,
// account active, password matches. Unknown email and wrong password fail
// with the same body; the verified/active gates report their own state.
func (s *AuthService) Login(ctx context.Context, email string, password string) (*models.UserInformation, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if user.EmailVerifiedAt == nil {
		return nil, apperr.Validation("Validation error", apperr.FieldError{
			Field:   "email",
			Message: "Email not verified",
		})
	}

	if user.Status != models.UserStatusActive {
		return nil, apperr.Validation("Validation error", apperr.FieldError{
			Field:   "email",
			Message: "Your account is not active. Please contact administrator.",
		})
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	info, err := s.resolver.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.Put(ctx, info); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("snapshot warm failed")
	}

	return info, nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates the user and its first verification token atomically and
// enqueues the verification email inside the same transaction scope, so an
// enqueue failure rolls the registration back.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	exists, err := s.users.EmailExists(ctx, input.Email, "")
	if err != nil {
		return err
	}
	if exists {
		return apperr.Validation("Email already in use", apperr.FieldError{
			Field:   "email",
			Message: "The provided email is already registered",
		})
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Status:       models.UserStatusActive,
	}

	return s.db.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user, nil); err != nil {
			return err
		}
		return s.issueVerification(ctx, user)
	})
}

func (s *AuthService) issueVerification(ctx context.Context, user models.User) error {
	token := security.RandomToken(verificationTokenLength)

	record := models.EmailVerification{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiredAt: time.Now().Add(s.cfg.Security.VerificationTokenTTL),
	}
	if err := s.verifications.Create(ctx, record); err != nil {
		return err
	}

	return s.mail.Enqueue(ctx, mailqueue.Message{
		Subject:  "Email verification",
		To:       user.Email,
		Template: "auth/email-verification",
		Variables: map[string]string{
			"user_id":          user.ID,
			"user_name":        user.Name,
			"user_email":       user.Email,
			"verification_url": s.cfg.ClientURL + "/auth/verify-email?token=" + token,
		},
	})
}

// ResendVerification is a silent no-op for unknown or already-verified
// emails, so callers cannot probe which addresses are registered. Earlier
// tokens stay valid; several may be outstanding at once.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	if user.EmailVerifiedAt != nil {
		return nil
	}

	return s.db.InTx(ctx, func(ctx context.Context) error {
		return s.issueVerification(ctx, user)
	})
}

// VerifyEmail marks the owning user verified and consumes the token in one
// transaction; a committed verification can never leave the token behind.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	record, err := s.verifications.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return invalidVerificationToken()
		}
		return err
	}

	if time.Now().After(record.ExpiredAt) {
		return invalidVerificationToken()
	}

	return s.db.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.SetEmailVerified(ctx, record.UserID, time.Now()); err != nil {
			return err
		}
		return s.verifications.Delete(ctx, record.ID)
	})
}

func invalidVerificationToken() error {
	return apperr.Validation("Invalid verification token", apperr.FieldError{
		Field:   "token",
		Message: "The provided verification token is invalid",
	})
}

// ForgotPassword is a silent no-op for unknown emails. Repeated calls stack
// additional valid tokens; ResetPassword purges them all on success.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token := security.RandomToken(verificationTokenLength)
	record := models.PasswordResetToken{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Token:  token,
	}

	return s.db.InTx(ctx, func(ctx context.Context) error {
		if err := s.resets.Create(ctx, record); err != nil {
			return err
		}

		return s.mail.Enqueue(ctx, mailqueue.Message{
			Subject:  "Reset Password",
			To:       user.Email,
			Template: "auth/forgot-password",
			Variables: map[string]string{
				"user_id":            user.ID,
				"user_name":          user.Name,
				"user_email":         user.Email,
				"reset_password_url": s.cfg.ClientURL + "/auth/reset-password?token=" + token,
			},
		})
	})
}

// ResetPassword consumes a reset token: the password update and the purge of
// every outstanding reset token for the user commit together.
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	record, err := s.resets.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return invalidResetToken()
		}
		return err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return invalidResetToken()
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
			return err
		}
		return s.resets.DeleteByUser(ctx, user.ID)
	}); err != nil {
		return err
	}

	if err := s.snapshots.Invalidate(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("snapshot invalidate failed")
	}
	return nil
}
