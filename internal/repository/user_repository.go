package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"adminauth/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password, status, remark, email_verified_at, deleted_at, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Status,
		&user.Remark,
		&user.EmailVerifiedAt,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User, roleIDs []string) error {
	const query = `
		INSERT INTO users (id, name, email, password, status, remark, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	q := r.db.querier(ctx)
	_, err := q.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Status,
		user.Remark,
		user.EmailVerifiedAt,
	)
	if err != nil {
		return err
	}

	return r.insertRoles(ctx, user.ID, roleIDs)
}

// FindByEmail returns the non-deleted user with the given email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE email = $1 AND deleted_at IS NULL
	`
	return scanUser(r.db.querier(ctx).QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE id = $1 AND deleted_at IS NULL
	`
	return scanUser(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// EmailExists reports whether a non-deleted user other than excludeID holds
// the email. Pass an empty excludeID to match any user.
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE email = $1 AND deleted_at IS NULL AND ($2 = '' OR id::text <> $2)
		)
	`
	var exists bool
	if err := r.db.querier(ctx).QueryRow(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name string, email string) error {
	const query = `
		UPDATE users SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, id, name, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE users SET password = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `
		UPDATE users SET email_verified_at = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, id, verifiedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

type UpdateUserParams struct {
	Name    string
	Email   string
	Status  models.UserStatus
	Remark  *string
	RoleIDs []string
}

// Update rewrites the user's identity fields and replaces the role set
// wholesale: the effective roles after this call are exactly RoleIDs.
func (r *UserRepository) Update(ctx context.Context, id string, params UpdateUserParams) error {
	const query = `
		UPDATE users SET name = $2, email = $3, status = $4, remark = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	q := r.db.querier(ctx)
	cmd, err := q.Exec(ctx, query, id, params.Name, params.Email, params.Status, params.Remark)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return err
	}
	return r.insertRoles(ctx, id, params.RoleIDs)
}

func (r *UserRepository) insertRoles(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	const query = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, unnest($2::uuid[])
	`
	_, err := r.db.querier(ctx).Exec(ctx, query, userID, roleIDs)
	return err
}

func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit int, offset int) ([]models.User, int, error) {
	const countQuery = `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`

	q := r.db.querier(ctx)
	var total int
	if err := q.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// UserInformation materializes the authorization snapshot: the user's roles
// and, grouped per role, the permission names each role carries.
func (r *UserRepository) UserInformation(ctx context.Context, id string) (*models.UserInformation, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT r.name, p.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY r.name, p.name
	`
	rows, err := r.db.querier(ctx).Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	info := &models.UserInformation{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}

	grouped := make(map[string]int)
	for rows.Next() {
		var roleName string
		var permName *string
		if err := rows.Scan(&roleName, &permName); err != nil {
			return nil, err
		}

		idx, ok := grouped[roleName]
		if !ok {
			idx = len(info.Permissions)
			grouped[roleName] = idx
			info.Roles = append(info.Roles, roleName)
			info.Permissions = append(info.Permissions, models.RolePermissions{Role: roleName})
		}
		if permName != nil {
			info.Permissions[idx].Permissions = append(info.Permissions[idx].Permissions, *permName)
		}
	}
	return info, rows.Err()
}

// IDsByRole lists the non-deleted users assigned any of the given roles.
func (r *UserRepository) IDsByRole(ctx context.Context, roleIDs []string) ([]string, error) {
	const query = `
		SELECT DISTINCT ur.user_id
		FROM user_roles ur
		JOIN users u ON u.id = ur.user_id AND u.deleted_at IS NULL
		WHERE ur.role_id = ANY ($1::uuid[])
	`
	rows, err := r.db.querier(ctx).Query(ctx, query, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IDsByPermission lists the non-deleted users that reach the permission
// through any of their roles.
func (r *UserRepository) IDsByPermission(ctx context.Context, permissionID string) ([]string, error) {
	const query = `
		SELECT DISTINCT ur.user_id
		FROM role_permissions rp
		JOIN user_roles ur ON ur.role_id = rp.role_id
		JOIN users u ON u.id = ur.user_id AND u.deleted_at IS NULL
		WHERE rp.permission_id = $1
	`
	rows, err := r.db.querier(ctx).Query(ctx, query, permissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
