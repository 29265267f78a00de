package service

import (
	"errors"

	"adminauth/internal/apperr"
	"adminauth/internal/repository"
)

// notFound translates repository sentinels into the NotFound response class;
// anything else passes through untouched.
func notFound(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, repository.ErrRoleNotFound):
		return apperr.NotFound("Role not found")
	case errors.Is(err, repository.ErrPermissionNotFound):
		return apperr.NotFound("Permission not found")
	default:
		return err
	}
}
