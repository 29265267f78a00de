package rbac

import (
	"context"
	"errors"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
	"adminauth/internal/repository"
)

// UserInformationStore is the slice of the user repository the resolver
// needs: the snapshot join query.
type UserInformationStore interface {
	UserInformation(ctx context.Context, id string) (*models.UserInformation, error)
}

// Resolver computes authorization snapshots from the relational model. It
// does not gate on user status; status is checked at login time only.
type Resolver struct {
	users UserInformationStore
}

func NewResolver(users UserInformationStore) *Resolver {
	return &Resolver{users: users}
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (*models.UserInformation, error) {
	info, err := r.users.UserInformation(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.Unauthorized("Unauthorized")
		}
		return nil, err
	}
	return info, nil
}
