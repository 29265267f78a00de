package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"adminauth/internal/models"
)

var ErrPermissionNotFound = errors.New("permission not found")

type PermissionRepository struct {
	db *DB
}

func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, perm models.Permission) error {
	const query = `
		INSERT INTO permissions (id, name, "group", created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.db.querier(ctx).Exec(ctx, query, perm.ID, perm.Name, perm.Group)
	return err
}

func (r *PermissionRepository) Update(ctx context.Context, id string, name string, group string) error {
	const query = `
		UPDATE permissions SET name = $2, "group" = $3, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, id, name, group)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPermissionNotFound
	}
	return nil
}

func (r *PermissionRepository) GetByID(ctx context.Context, id string) (models.Permission, error) {
	const query = `
		SELECT id, name, "group", created_at, updated_at FROM permissions WHERE id = $1
	`
	var perm models.Permission
	err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(&perm.ID, &perm.Name, &perm.Group, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Permission{}, ErrPermissionNotFound
		}
		return models.Permission{}, err
	}
	return perm, nil
}

func (r *PermissionRepository) List(ctx context.Context) ([]models.Permission, error) {
	const query = `
		SELECT id, name, "group", created_at, updated_at FROM permissions ORDER BY "group", name
	`
	rows, err := r.db.querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []models.Permission
	for rows.Next() {
		var perm models.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Group, &perm.CreatedAt, &perm.UpdatedAt); err != nil {
			return nil, err
		}
		permissions = append(permissions, perm)
	}
	return permissions, rows.Err()
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	q := r.db.querier(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, id); err != nil {
		return err
	}

	cmd, err := q.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPermissionNotFound
	}
	return nil
}

func (r *PermissionRepository) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `SELECT COUNT(*) FROM permissions WHERE id = ANY ($1::uuid[])`
	var count int
	if err := r.db.querier(ctx).QueryRow(ctx, query, ids).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
