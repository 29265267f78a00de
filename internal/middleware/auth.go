package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adminauth/internal/apperr"
	"adminauth/internal/models"
	"adminauth/internal/rbac"
	"adminauth/internal/security"
)

// UserInformationKey is where Authenticate stores the resolved snapshot in
// the gin context.
const UserInformationKey = "user_information"

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"message": "Unauthorized",
	})
}

// Authenticate verifies the access token and attaches the user's
// authorization snapshot: cache first, on miss resolved from the relational
// store and cached with the configured TTL.
func Authenticate(secret string, snapshots *rbac.SnapshotCache, resolver *rbac.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseToken(tokenStr, secret)
		if err != nil {
			unauthorized(c)
			return
		}

		// A refresh token is not an access credential.
		if claims.IsRefresh() {
			unauthorized(c)
			return
		}

		ctx := c.Request.Context()

		info, ok := snapshots.Get(ctx, claims.UserID)
		if !ok {
			info, err = resolver.Resolve(ctx, claims.UserID)
			if err != nil {
				unauthorized(c)
				return
			}
			_ = snapshots.Put(ctx, info)
		}

		c.Set(UserInformationKey, info)
		c.Next()
	}
}

// CurrentUser returns the snapshot Authenticate stored, or nil when the
// request never passed authentication.
func CurrentUser(c *gin.Context) *models.UserInformation {
	val, exists := c.Get(UserInformationKey)
	if !exists {
		return nil
	}
	info, ok := val.(*models.UserInformation)
	if !ok {
		return nil
	}
	return info
}

// RequireRoles gates a route on the rbac role predicate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rbac.RequireRoles(CurrentUser(c), roles...); err != nil {
			abortWithAuthError(c, err)
			return
		}
		c.Next()
	}
}

// RequirePermissions gates a route on the rbac permission predicate.
func RequirePermissions(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := rbac.RequirePermissions(CurrentUser(c), permissions...); err != nil {
			abortWithAuthError(c, err)
			return
		}
		c.Next()
	}
}

func abortWithAuthError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), gin.H{
		"status":  "error",
		"message": appErr.Message,
	})
}
