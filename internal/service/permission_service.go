package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"adminauth/internal/models"
)

type PermissionStore interface {
	Create(ctx context.Context, perm models.Permission) error
	Update(ctx context.Context, id string, name string, group string) error
	GetByID(ctx context.Context, id string) (models.Permission, error)
	List(ctx context.Context) ([]models.Permission, error)
	Delete(ctx context.Context, id string) error
}

type PermissionMemberLister interface {
	IDsByPermission(ctx context.Context, permissionID string) ([]string, error)
}

type PermissionService struct {
	db        TxManager
	perms     PermissionStore
	members   PermissionMemberLister
	snapshots SnapshotStore
	log       zerolog.Logger
}

func NewPermissionService(db TxManager, perms PermissionStore, members PermissionMemberLister, snapshots SnapshotStore, log zerolog.Logger) *PermissionService {
	return &PermissionService{db: db, perms: perms, members: members, snapshots: snapshots, log: log}
}

func (s *PermissionService) Create(ctx context.Context, name string, group string) error {
	perm := models.Permission{ID: uuid.NewString(), Name: name, Group: group}
	return s.db.InTx(ctx, func(ctx context.Context) error {
		return s.perms.Create(ctx, perm)
	})
}

func (s *PermissionService) Update(ctx context.Context, id string, name string, group string) error {
	affected, err := s.members.IDsByPermission(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.perms.Update(ctx, id, name, group)
	}); err != nil {
		return notFound(err)
	}

	return s.snapshots.InvalidateMany(ctx, affected)
}

func (s *PermissionService) Detail(ctx context.Context, id string) (models.Permission, error) {
	perm, err := s.perms.GetByID(ctx, id)
	if err != nil {
		return models.Permission{}, notFound(err)
	}
	return perm, nil
}

func (s *PermissionService) List(ctx context.Context) ([]models.Permission, error) {
	return s.perms.List(ctx)
}

func (s *PermissionService) Delete(ctx context.Context, id string) error {
	affected, err := s.members.IDsByPermission(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.perms.Delete(ctx, id)
	}); err != nil {
		return notFound(err)
	}

	return s.snapshots.InvalidateMany(ctx, affected)
}
