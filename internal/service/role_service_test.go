package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
)

type fakeRoles struct {
	created []models.Role
	updated []string
	deleted []string
}

func (f *fakeRoles) Create(_ context.Context, role models.Role, _ []string) error {
	f.created = append(f.created, role)
	return nil
}

func (f *fakeRoles) Update(_ context.Context, id string, _ string, _ []string) error {
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeRoles) GetByID(_ context.Context, id string) (models.Role, []models.Permission, error) {
	return models.Role{ID: id, Name: "admin"}, nil, nil
}

func (f *fakeRoles) List(_ context.Context) ([]models.Role, error) {
	return []models.Role{{ID: "role-1", Name: "admin"}}, nil
}

func (f *fakeRoles) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeMembers struct {
	byRole map[string][]string
	byPerm map[string][]string
}

func (f *fakeMembers) IDsByRole(_ context.Context, roleIDs []string) ([]string, error) {
	var ids []string
	for _, roleID := range roleIDs {
		ids = append(ids, f.byRole[roleID]...)
	}
	return ids, nil
}

func (f *fakeMembers) IDsByPermission(_ context.Context, permissionID string) ([]string, error) {
	return f.byPerm[permissionID], nil
}

func newRoleFixture() (*RoleService, *fakeRoles, *fakeSnapshots) {
	roles := &fakeRoles{}
	snapshots := &fakeSnapshots{}
	members := &fakeMembers{byRole: map[string][]string{"role-1": {"u1", "u2"}}}
	perms := &fakeCounter{existing: map[string]bool{"perm-1": true}}

	svc := NewRoleService(&fakeTx{}, roles, perms, members, snapshots, zerolog.Nop())
	return svc, roles, snapshots
}

func TestRoleCreate(t *testing.T) {
	svc, roles, _ := newRoleFixture()

	require.NoError(t, svc.Create(context.Background(), "editor", []string{"perm-1"}))
	require.Len(t, roles.created, 1)
	require.Equal(t, "editor", roles.created[0].Name)
}

func TestRoleCreate_UnknownPermission(t *testing.T) {
	svc, roles, _ := newRoleFixture()

	err := svc.Create(context.Background(), "editor", []string{"ghost"})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	require.Empty(t, roles.created)
}

// Editing a role must drop the snapshot of every user holding it, otherwise
// those users keep their old grants until the TTL runs out.
func TestRoleUpdate_InvalidatesHolders(t *testing.T) {
	svc, roles, snapshots := newRoleFixture()

	require.NoError(t, svc.Update(context.Background(), "role-1", "renamed", []string{"perm-1"}))
	require.Equal(t, []string{"role-1"}, roles.updated)
	require.ElementsMatch(t, []string{"u1", "u2"}, snapshots.invalidated)
}

func TestRoleDelete_InvalidatesHolders(t *testing.T) {
	svc, roles, snapshots := newRoleFixture()

	require.NoError(t, svc.Delete(context.Background(), "role-1"))
	require.Equal(t, []string{"role-1"}, roles.deleted)
	require.ElementsMatch(t, []string{"u1", "u2"}, snapshots.invalidated)
}
