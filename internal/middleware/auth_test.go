package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"adminauth/internal/cache"
	"adminauth/internal/models"
	"adminauth/internal/rbac"
	"adminauth/internal/repository"
	"adminauth/internal/security"
)

const testSecret = "test-secret"

type stubUserInformationStore struct {
	infos map[string]*models.UserInformation
	calls int
}

func (s *stubUserInformationStore) UserInformation(_ context.Context, id string) (*models.UserInformation, error) {
	s.calls++
	info, ok := s.infos[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return info, nil
}

func newAuthRouter(t *testing.T, store *stubUserInformationStore) (*gin.Engine, *rbac.SnapshotCache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	snapshots := rbac.NewSnapshotCache(cache.New(client, zerolog.Nop()), time.Hour)
	resolver := rbac.NewResolver(store)

	router := gin.New()
	router.GET("/me", Authenticate(testSecret, snapshots, resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentUser(c))
	})
	router.GET("/admin", Authenticate(testSecret, snapshots, resolver), RequireRoles("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, snapshots
}

func doRequest(router *gin.Engine, path string, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	router, _ := newAuthRouter(t, &stubUserInformationStore{})
	rec := doRequest(router, "/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_MalformedToken(t *testing.T) {
	router, _ := newAuthRouter(t, &stubUserInformationStore{})
	rec := doRequest(router, "/me", "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_RejectsRefreshToken(t *testing.T) {
	store := &stubUserInformationStore{infos: map[string]*models.UserInformation{
		"user-1": {ID: "user-1"},
	}}
	router, _ := newAuthRouter(t, store)

	refresh, err := security.GenerateRefreshToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	rec := doRequest(router, "/me", "Bearer "+refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_ResolvesAndCaches(t *testing.T) {
	store := &stubUserInformationStore{infos: map[string]*models.UserInformation{
		"user-1": {ID: "user-1", Name: "Jordan", Roles: []string{"member"}},
	}}
	router, _ := newAuthRouter(t, store)

	access, err := security.GenerateAccessToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	rec := doRequest(router, "/me", "Bearer "+access)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.calls)

	// second request is served from the snapshot cache
	rec = doRequest(router, "/me", "Bearer "+access)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.calls)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	router, _ := newAuthRouter(t, &stubUserInformationStore{})

	access, err := security.GenerateAccessToken(testSecret, "ghost", time.Hour)
	require.NoError(t, err)

	rec := doRequest(router, "/me", "Bearer "+access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles_ForbiddenVsAllowed(t *testing.T) {
	store := &stubUserInformationStore{infos: map[string]*models.UserInformation{
		"member-1": {ID: "member-1", Roles: []string{"member"}},
		"admin-1":  {ID: "admin-1", Roles: []string{"admin"}},
		"super-1":  {ID: "super-1", Roles: []string{models.SuperuserRole}},
	}}
	router, _ := newAuthRouter(t, store)

	for userID, want := range map[string]int{
		"member-1": http.StatusForbidden,
		"admin-1":  http.StatusOK,
		"super-1":  http.StatusOK,
	} {
		access, err := security.GenerateAccessToken(testSecret, userID, time.Hour)
		require.NoError(t, err)

		rec := doRequest(router, "/admin", "Bearer "+access)
		require.Equal(t, want, rec.Code, "user %s", userID)
	}
}

func TestRequireRoles_StaleCacheHonored(t *testing.T) {
	store := &stubUserInformationStore{infos: map[string]*models.UserInformation{
		"user-1": {ID: "user-1", Roles: []string{"member"}},
	}}
	router, snapshots := newAuthRouter(t, store)

	// a cached snapshot wins over the relational state until invalidated
	require.NoError(t, snapshots.Put(context.Background(), &models.UserInformation{
		ID:    "user-1",
		Roles: []string{"admin"},
	}))

	access, err := security.GenerateAccessToken(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	rec := doRequest(router, "/admin", "Bearer "+access)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, snapshots.Invalidate(context.Background(), "user-1"))
	rec = doRequest(router, "/admin", "Bearer "+access)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
