package rbac

import (
	"adminauth/internal/apperr"
	"adminauth/internal/models"
)

// RequireRoles allows the request when the snapshot holds the superuser role
// or at least one of the required roles. A nil snapshot means the caller was
// never authenticated and is rejected as Unauthorized, not Forbidden.
// The superuser check runs first so incomplete permission data can never
// lock the superuser out.
func RequireRoles(info *models.UserInformation, roles ...string) error {
	if info == nil {
		return apperr.Unauthorized("Unauthorized")
	}

	if info.HasRole(models.SuperuserRole) {
		return nil
	}

	for _, role := range roles {
		if info.HasRole(role) {
			return nil
		}
	}
	return apperr.Forbidden("Access denied. Required role(s) missing.")
}

// RequirePermissions is the permission-name counterpart of RequireRoles,
// matched against the flattened set across all of the snapshot's roles.
func RequirePermissions(info *models.UserInformation, permissions ...string) error {
	if info == nil {
		return apperr.Unauthorized("Unauthorized")
	}

	if info.HasRole(models.SuperuserRole) {
		return nil
	}

	held := make(map[string]struct{})
	for _, name := range info.PermissionNames() {
		held[name] = struct{}{}
	}

	for _, permission := range permissions {
		if _, ok := held[permission]; ok {
			return nil
		}
	}
	return apperr.Forbidden("Access denied. Required permission(s) missing.")
}
