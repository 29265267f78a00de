package token

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"adminauth/internal/apperr"
	"adminauth/internal/cache"
	"adminauth/internal/config"
	"adminauth/internal/security"
)

const refreshKeyPrefix = "refresh_token"

// invalidRefresh is the single error every refresh failure maps to, so a
// caller cannot tell a bad signature from a revoked or superseded token.
func invalidRefresh() error {
	return apperr.Validation("Invalid refresh token", apperr.FieldError{
		Field:   "refreshToken",
		Message: "Invalid or expired refresh token",
	})
}

type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager issues and rotates the JWT pair. The current refresh token per
// user lives in Redis under refresh_token:{userId} with the refresh TTL;
// storing a new one overwrites the previous entry, which is what enforces
// the at-most-one-valid-refresh-token invariant.
type Manager struct {
	client     *redis.Client
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(client *redis.Client, cfg config.SecurityConfig) *Manager {
	return &Manager{
		client:     client,
		secret:     cfg.JWTSecret,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

func refreshKey(userID string) string {
	return cache.Key(refreshKeyPrefix, userID)
}

// IssuePair signs a fresh access/refresh pair and stores the refresh token,
// revoking whatever refresh token the user held before.
func (m *Manager) IssuePair(ctx context.Context, userID string) (Pair, error) {
	accessToken, err := security.GenerateAccessToken(m.secret, userID, m.accessTTL)
	if err != nil {
		return Pair{}, err
	}

	refreshToken, err := security.GenerateRefreshToken(m.secret, userID, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	if err := m.StoreRefreshToken(ctx, userID, refreshToken); err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (m *Manager) StoreRefreshToken(ctx context.Context, userID string, token string) error {
	return m.client.Set(ctx, refreshKey(userID), token, m.refreshTTL).Err()
}

// ValidateRefreshToken reports whether token is exactly the stored current
// refresh token for the user. A signed but superseded token fails here.
func (m *Manager) ValidateRefreshToken(ctx context.Context, userID string, token string) (bool, error) {
	stored, err := m.client.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == token, nil
}

func (m *Manager) RevokeRefreshToken(ctx context.Context, userID string) error {
	return m.client.Del(ctx, refreshKey(userID)).Err()
}

// Refresh rotates the pair: verify signature and refresh type, check the
// token against the store, then overwrite it with a new one. Two concurrent
// calls race on the overwrite and the last writer wins; the loser's pair is
// revoked and its caller has to retry.
func (m *Manager) Refresh(ctx context.Context, oldToken string) (Pair, error) {
	claims, err := security.ParseToken(oldToken, m.secret)
	if err != nil {
		return Pair{}, invalidRefresh()
	}

	if !claims.IsRefresh() {
		return Pair{}, invalidRefresh()
	}

	valid, err := m.ValidateRefreshToken(ctx, claims.UserID, oldToken)
	if err != nil {
		return Pair{}, err
	}
	if !valid {
		return Pair{}, invalidRefresh()
	}

	return m.IssuePair(ctx, claims.UserID)
}
