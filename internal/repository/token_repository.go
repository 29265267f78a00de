package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"adminauth/internal/models"
)

var ErrTokenNotFound = errors.New("token not found")

// VerificationTokenRepository persists single-use email verification tokens.
type VerificationTokenRepository struct {
	db *DB
}

func NewVerificationTokenRepository(db *DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

func (r *VerificationTokenRepository) Create(ctx context.Context, token models.EmailVerification) error {
	const query = `
		INSERT INTO email_verifications (id, user_id, token, expired_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.db.querier(ctx).Exec(ctx, query, token.ID, token.UserID, token.Token, token.ExpiredAt)
	return err
}

func (r *VerificationTokenRepository) FindByToken(ctx context.Context, token string) (models.EmailVerification, error) {
	const query = `
		SELECT id, user_id, token, expired_at, created_at
		FROM email_verifications WHERE token = $1
	`
	var record models.EmailVerification
	err := r.db.querier(ctx).QueryRow(ctx, query, token).Scan(
		&record.ID,
		&record.UserID,
		&record.Token,
		&record.ExpiredAt,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmailVerification{}, ErrTokenNotFound
		}
		return models.EmailVerification{}, err
	}
	return record, nil
}

func (r *VerificationTokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM email_verifications WHERE id = $1`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteOlderThan removes verification rows created before cutoff, consumed
// or not. Used by the scheduled purge.
func (r *VerificationTokenRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM email_verifications WHERE created_at < $1`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM email_verifications WHERE expired_at < $1`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// PasswordResetRepository persists password reset tokens. A user may hold
// several outstanding tokens; a successful reset purges all of them.
type PasswordResetRepository struct {
	db *DB
}

func NewPasswordResetRepository(db *DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, token models.PasswordResetToken) error {
	const query = `
		INSERT INTO password_reset_tokens (id, user_id, token, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.db.querier(ctx).Exec(ctx, query, token.ID, token.UserID, token.Token)
	return err
}

func (r *PasswordResetRepository) FindByToken(ctx context.Context, token string) (models.PasswordResetToken, error) {
	const query = `
		SELECT id, user_id, token, created_at
		FROM password_reset_tokens WHERE token = $1
	`
	var record models.PasswordResetToken
	err := r.db.querier(ctx).QueryRow(ctx, query, token).Scan(
		&record.ID,
		&record.UserID,
		&record.Token,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PasswordResetToken{}, ErrTokenNotFound
		}
		return models.PasswordResetToken{}, err
	}
	return record, nil
}

// DeleteByUser removes every outstanding reset token for the user.
func (r *PasswordResetRepository) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM password_reset_tokens WHERE user_id = $1`
	_, err := r.db.querier(ctx).Exec(ctx, query, userID)
	return err
}

func (r *PasswordResetRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM password_reset_tokens WHERE created_at < $1`
	cmd, err := r.db.querier(ctx).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
