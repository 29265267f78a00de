package models

import "time"

// SuperuserRole grants an unconditional pass on every authorization check.
const SuperuserRole = "superuser"

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Permission struct {
	ID        string
	Name      string
	Group     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RolePermissions keeps a role's permission names grouped by role rather than
// flattened, so the caller can still show which role contributed what.
type RolePermissions struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// UserInformation is the materialized authorization snapshot for one user:
// a pure function of the user row, its assigned roles, and each role's
// permissions at the time it was built. Cached copies are advisory; every
// mutation of the inputs must invalidate them.
type UserInformation struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Roles       []string          `json:"roles"`
	Permissions []RolePermissions `json:"permissions"`
}

func (u *UserInformation) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// PermissionNames flattens the per-role permission groups into one set.
func (u *UserInformation) PermissionNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, group := range u.Permissions {
		for _, name := range group.Permissions {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
