package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"adminauth/internal/models"
)

var ErrRoleNotFound = errors.New("role not found")

type RoleRepository struct {
	db *DB
}

func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role models.Role, permissionIDs []string) error {
	const query = `
		INSERT INTO roles (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	if _, err := r.db.querier(ctx).Exec(ctx, query, role.ID, role.Name); err != nil {
		return err
	}
	return r.insertPermissions(ctx, role.ID, permissionIDs)
}

// Update renames the role and replaces its permission set wholesale.
func (r *RoleRepository) Update(ctx context.Context, id string, name string, permissionIDs []string) error {
	const query = `
		UPDATE roles SET name = $2, updated_at = NOW() WHERE id = $1
	`
	q := r.db.querier(ctx)
	cmd, err := q.Exec(ctx, query, id, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRoleNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return err
	}
	return r.insertPermissions(ctx, id, permissionIDs)
}

func (r *RoleRepository) insertPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	const query = `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, unnest($2::uuid[])
	`
	_, err := r.db.querier(ctx).Exec(ctx, query, roleID, permissionIDs)
	return err
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (models.Role, []models.Permission, error) {
	const query = `
		SELECT id, name, created_at, updated_at FROM roles WHERE id = $1
	`
	var role models.Role
	err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Role{}, nil, ErrRoleNotFound
		}
		return models.Role{}, nil, err
	}

	const permQuery = `
		SELECT p.id, p.name, p."group", p.created_at, p.updated_at
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`
	rows, err := r.db.querier(ctx).Query(ctx, permQuery, id)
	if err != nil {
		return models.Role{}, nil, err
	}
	defer rows.Close()

	var permissions []models.Permission
	for rows.Next() {
		var perm models.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Group, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return models.Role{}, nil, err
		}
		permissions = append(permissions, perm)
	}
	return role, permissions, rows.Err()
}

func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `
		SELECT id, name, created_at, updated_at FROM roles ORDER BY name
	`
	rows, err := r.db.querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	q := r.db.querier(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id); err != nil {
		return err
	}

	cmd, err := q.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// CountExisting returns how many of the given role ids exist; used to reject
// assignments that reference unknown roles.
func (r *RoleRepository) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `SELECT COUNT(*) FROM roles WHERE id = ANY ($1::uuid[])`
	var count int
	if err := r.db.querier(ctx).QueryRow(ctx, query, ids).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
