package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
	"adminauth/internal/repository"
	"adminauth/internal/security"
)

type ProfileUserStore interface {
	UserStore
	UpdateProfile(ctx context.Context, id string, name string, email string) error
}

// ProfileService covers the authenticated user's self-service operations.
type ProfileService struct {
	users     ProfileUserStore
	resolver  SnapshotResolver
	snapshots SnapshotStore
	log       zerolog.Logger
}

func NewProfileService(users ProfileUserStore, resolver SnapshotResolver, snapshots SnapshotStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{users: users, resolver: resolver, snapshots: snapshots, log: log}
}

// UpdateProfile changes the user's name and email and invalidates the cached
// snapshot in the same operation, then returns a freshly resolved one.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, name string, email string) (*models.UserInformation, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Validation("Validation error", apperr.FieldError{
			Field:   "email",
			Message: "Email already exists",
		})
	}

	if err := s.users.UpdateProfile(ctx, userID, name, email); err != nil {
		return nil, err
	}

	if err := s.snapshots.Invalidate(ctx, userID); err != nil {
		return nil, err
	}

	info, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Put(ctx, info); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("snapshot warm failed")
	}
	return info, nil
}

// UpdatePassword requires the current password before accepting a new one.
func (s *ProfileService) UpdatePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.Unauthorized("User not found")
		}
		return err
	}

	if !security.VerifyPassword(currentPassword, user.PasswordHash) {
		return apperr.Validation("Validation error", apperr.FieldError{
			Field:   "currentPassword",
			Message: "Current password is incorrect",
		})
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	return s.snapshots.Invalidate(ctx, userID)
}
