package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
	"adminauth/internal/repository"
	"adminauth/internal/security"
)

type adminFakeUsers struct {
	*fakeUsers

	updates map[string]repository.UpdateUserParams
	deleted []string
}

func newAdminFakeUsers(users ...models.User) *adminFakeUsers {
	return &adminFakeUsers{
		fakeUsers: newFakeUsers(users...),
		updates:   make(map[string]repository.UpdateUserParams),
	}
}

func (f *adminFakeUsers) Update(_ context.Context, id string, params repository.UpdateUserParams) error {
	f.updates[id] = params
	return nil
}

func (f *adminFakeUsers) SoftDelete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

func (f *adminFakeUsers) List(_ context.Context, _ int, _ int) ([]models.User, int, error) {
	var users []models.User
	for _, u := range f.byID {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (f *adminFakeUsers) UserInformation(_ context.Context, id string) (*models.UserInformation, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &models.UserInformation{ID: u.ID, Name: u.Name, Email: u.Email, Roles: []string{"member"}}, nil
}

type fakeCounter struct {
	existing map[string]bool
}

func (f *fakeCounter) CountExisting(_ context.Context, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if f.existing[id] {
			count++
		}
	}
	return count, nil
}

type fakeRevoker struct {
	revoked []string
}

func (f *fakeRevoker) RevokeRefreshToken(_ context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

type userFixture struct {
	svc       *UserService
	users     *adminFakeUsers
	roles     *fakeCounter
	snapshots *fakeSnapshots
	revoker   *fakeRevoker
}

func newUserFixture(t *testing.T, users ...models.User) *userFixture {
	t.Helper()

	f := &userFixture{
		users:     newAdminFakeUsers(users...),
		roles:     &fakeCounter{existing: map[string]bool{"role-1": true, "role-2": true}},
		snapshots: &fakeSnapshots{},
		revoker:   &fakeRevoker{},
	}
	f.svc = NewUserService(&fakeTx{}, f.users, f.roles, f.snapshots, f.revoker, zerolog.Nop())
	return f
}

func TestUserCreate_AssignsRoles(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.Create(context.Background(), CreateUserInput{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "a-long-password",
		RoleIDs:  []string{"role-1"},
	})
	require.NoError(t, err)
	require.Len(t, f.users.created, 1)
	require.Equal(t, models.UserStatusActive, f.users.created[0].Status)
}

func TestUserCreate_RejectsUnknownRole(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.Create(context.Background(), CreateUserInput{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "a-long-password",
		RoleIDs:  []string{"role-1", "ghost-role"},
	})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	require.Empty(t, f.users.created)
}

func TestUserUpdate_ReplacesRolesAndInvalidates(t *testing.T) {
	f := newUserFixture(t, activeUser(t, "hunter22hunter22"))

	err := f.svc.Update(context.Background(), "user-1", UpdateUserInput{
		Name:    "Jordan Updated",
		Email:   "jordan@example.com",
		RoleIDs: []string{"role-2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"role-2"}, f.users.updates["user-1"].RoleIDs)
	require.Equal(t, []string{"user-1"}, f.snapshots.invalidated)
}

func TestUserUpdate_EmailTakenByOther(t *testing.T) {
	other := activeUser(t, "hunter22hunter22")
	other.ID = "user-2"
	other.Email = "taken@example.com"
	f := newUserFixture(t, activeUser(t, "hunter22hunter22"), other)

	err := f.svc.Update(context.Background(), "user-1", UpdateUserInput{
		Name:    "Jordan",
		Email:   "taken@example.com",
		RoleIDs: []string{"role-1"},
	})
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
}

func TestUserDetail_Unknown(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Detail(context.Background(), "ghost")
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.From(err).Kind)
}

func TestUserDelete_InvalidatesAndRevokes(t *testing.T) {
	f := newUserFixture(t, activeUser(t, "hunter22hunter22"))

	require.NoError(t, f.svc.Delete(context.Background(), "user-1"))
	require.Equal(t, []string{"user-1"}, f.users.deleted)
	require.Equal(t, []string{"user-1"}, f.snapshots.invalidated)
	require.Equal(t, []string{"user-1"}, f.revoker.revoked)
}

func TestUserAdminResetPassword(t *testing.T) {
	f := newUserFixture(t, activeUser(t, "old-password-123"))

	require.NoError(t, f.svc.ResetPassword(context.Background(), "user-1", "new-password-123"))
	require.True(t, security.VerifyPassword("new-password-123", f.users.passwords["user-1"]))
	require.Equal(t, []string{"user-1"}, f.snapshots.invalidated)
	require.Equal(t, []string{"user-1"}, f.revoker.revoked)
}
