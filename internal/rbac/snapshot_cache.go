package rbac

import (
	"context"
	"time"

	"adminauth/internal/cache"
	"adminauth/internal/models"
)

const snapshotKeyPrefix = "user_information"

// SnapshotCache holds materialized authorization snapshots keyed by user id.
// It is advisory: correctness depends on Invalidate being called from every
// mutation path that changes a snapshot's inputs, the TTL only bounds the
// staleness window when a path is missed.
type SnapshotCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSnapshotCache(c *cache.Cache, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{cache: c, ttl: ttl}
}

func snapshotKey(userID string) string {
	return cache.Key(snapshotKeyPrefix, userID)
}

func (s *SnapshotCache) Get(ctx context.Context, userID string) (*models.UserInformation, bool) {
	var info models.UserInformation
	if err := s.cache.Get(ctx, snapshotKey(userID), &info); err != nil {
		return nil, false
	}
	return &info, true
}

func (s *SnapshotCache) Put(ctx context.Context, info *models.UserInformation) error {
	return s.cache.Set(ctx, snapshotKey(info.ID), info, s.ttl)
}

func (s *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, snapshotKey(userID))
}

// InvalidateMany drops the snapshots of every listed user; used when a role
// or permission edit touches all of its holders at once.
func (s *SnapshotCache) InvalidateMany(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		if err := s.cache.Delete(ctx, snapshotKey(id)); err != nil {
			return err
		}
	}
	return nil
}
