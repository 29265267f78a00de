package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
	"adminauth/internal/repository"
	"adminauth/internal/security"
)

type AdminUserStore interface {
	UserStore
	Update(ctx context.Context, id string, params repository.UpdateUserParams) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, limit int, offset int) ([]models.User, int, error)
	UserInformation(ctx context.Context, id string) (*models.UserInformation, error)
}

type RoleValidator interface {
	CountExisting(ctx context.Context, ids []string) (int, error)
}

type RefreshRevoker interface {
	RevokeRefreshToken(ctx context.Context, userID string) error
}

// UserService is the settings-side user administration: role assignment here
// fully replaces the user's role set on every write.
type UserService struct {
	db        TxManager
	users     AdminUserStore
	roles     RoleValidator
	snapshots SnapshotStore
	tokens    RefreshRevoker
	log       zerolog.Logger
}

func NewUserService(db TxManager, users AdminUserStore, roles RoleValidator, snapshots SnapshotStore, tokens RefreshRevoker, log zerolog.Logger) *UserService {
	return &UserService{db: db, users: users, roles: roles, snapshots: snapshots, tokens: tokens, log: log}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	RoleIDs  []string
	Remark   *string
	Status   models.UserStatus
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) error {
	exists, err := s.users.EmailExists(ctx, input.Email, "")
	if err != nil {
		return err
	}
	if exists {
		return emailExistsError()
	}

	if err := s.validateRoleIDs(ctx, input.RoleIDs); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return err
	}

	status := input.Status
	if status == "" {
		status = models.UserStatusActive
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Status:       status,
		Remark:       input.Remark,
	}

	return s.db.InTx(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user, input.RoleIDs)
	})
}

type UpdateUserInput struct {
	Name    string
	Email   string
	RoleIDs []string
	Remark  *string
	Status  models.UserStatus
}

// Update rewrites the user's fields and role set, then drops the cached
// snapshot so the next authenticated request sees the new authorization.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) error {
	taken, err := s.users.EmailExists(ctx, input.Email, id)
	if err != nil {
		return err
	}
	if taken {
		return emailExistsError()
	}

	if err := s.validateRoleIDs(ctx, input.RoleIDs); err != nil {
		return err
	}

	status := input.Status
	if status == "" {
		status = models.UserStatusActive
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, id, repository.UpdateUserParams{
			Name:    input.Name,
			Email:   input.Email,
			Status:  status,
			Remark:  input.Remark,
			RoleIDs: input.RoleIDs,
		})
	}); err != nil {
		return notFound(err)
	}

	return s.snapshots.Invalidate(ctx, id)
}

type UserDetail struct {
	User  models.User
	Roles []string
}

func (s *UserService) Detail(ctx context.Context, id string) (UserDetail, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetail{}, notFound(err)
	}

	info, err := s.users.UserInformation(ctx, id)
	if err != nil {
		return UserDetail{}, notFound(err)
	}

	return UserDetail{User: user, Roles: info.Roles}, nil
}

func (s *UserService) List(ctx context.Context, limit int, offset int) ([]models.User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// Delete soft-deletes the user, drops the snapshot, and revokes the current
// refresh token so the account cannot mint new access tokens.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.users.SoftDelete(ctx, id)
	}); err != nil {
		return notFound(err)
	}

	if err := s.snapshots.Invalidate(ctx, id); err != nil {
		return err
	}
	return s.tokens.RevokeRefreshToken(ctx, id)
}

// ResetPassword is the administrative unconditional password set.
func (s *UserService) ResetPassword(ctx context.Context, id string, password string) error {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.users.UpdatePassword(ctx, id, passwordHash)
	}); err != nil {
		return notFound(err)
	}

	if err := s.snapshots.Invalidate(ctx, id); err != nil {
		return err
	}
	return s.tokens.RevokeRefreshToken(ctx, id)
}

func (s *UserService) validateRoleIDs(ctx context.Context, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	count, err := s.roles.CountExisting(ctx, roleIDs)
	if err != nil {
		return err
	}
	if count != len(roleIDs) {
		return apperr.Validation("Validation error", apperr.FieldError{
			Field:   "roleIds",
			Message: "One or more roles are invalid",
		})
	}
	return nil
}

func emailExistsError() error {
	return apperr.Validation("Validation error", apperr.FieldError{
		Field:   "email",
		Message: "Email already exists",
	})
}
