package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
)

type RoleStore interface {
	Create(ctx context.Context, role models.Role, permissionIDs []string) error
	Update(ctx context.Context, id string, name string, permissionIDs []string) error
	GetByID(ctx context.Context, id string) (models.Role, []models.Permission, error)
	List(ctx context.Context) ([]models.Role, error)
	Delete(ctx context.Context, id string) error
}

type PermissionValidator interface {
	CountExisting(ctx context.Context, ids []string) (int, error)
}

type RoleMemberLister interface {
	IDsByRole(ctx context.Context, roleIDs []string) ([]string, error)
}

// RoleService manages roles and their permission sets. Every write that can
// change what a role grants invalidates the snapshot of each user holding it.
type RoleService struct {
	db          TxManager
	roles       RoleStore
	permissions PermissionValidator
	members     RoleMemberLister
	snapshots   SnapshotStore
	log         zerolog.Logger
}

func NewRoleService(db TxManager, roles RoleStore, permissions PermissionValidator, members RoleMemberLister, snapshots SnapshotStore, log zerolog.Logger) *RoleService {
	return &RoleService{db: db, roles: roles, permissions: permissions, members: members, snapshots: snapshots, log: log}
}

func (s *RoleService) Create(ctx context.Context, name string, permissionIDs []string) error {
	if err := s.validatePermissionIDs(ctx, permissionIDs); err != nil {
		return err
	}

	role := models.Role{ID: uuid.NewString(), Name: name}
	return s.db.InTx(ctx, func(ctx context.Context) error {
		return s.roles.Create(ctx, role, permissionIDs)
	})
}

func (s *RoleService) Update(ctx context.Context, id string, name string, permissionIDs []string) error {
	if err := s.validatePermissionIDs(ctx, permissionIDs); err != nil {
		return err
	}

	affected, err := s.members.IDsByRole(ctx, []string{id})
	if err != nil {
		return err
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.roles.Update(ctx, id, name, permissionIDs)
	}); err != nil {
		return notFound(err)
	}

	return s.snapshots.InvalidateMany(ctx, affected)
}

func (s *RoleService) Detail(ctx context.Context, id string) (models.Role, []models.Permission, error) {
	role, perms, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return models.Role{}, nil, notFound(err)
	}
	return role, perms, nil
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleService) Delete(ctx context.Context, id string) error {
	affected, err := s.members.IDsByRole(ctx, []string{id})
	if err != nil {
		return err
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.roles.Delete(ctx, id)
	}); err != nil {
		return notFound(err)
	}

	return s.snapshots.InvalidateMany(ctx, affected)
}

func (s *RoleService) validatePermissionIDs(ctx context.Context, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	count, err := s.permissions.CountExisting(ctx, permissionIDs)
	if err != nil {
		return err
	}
	if count != len(permissionIDs) {
		return apperr.Validation("Validation error", apperr.FieldError{
			Field:   "permissionIds",
			Message: "One or more permissions are invalid",
		})
	}
	return nil
}
