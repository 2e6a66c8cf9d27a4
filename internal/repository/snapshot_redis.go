package repository

import (
	"context"
	"errors"

	pkgcache "TraderBlock/pkg/cache"
)

const redisSnapshotKey = "cache:snapshot"

// RedisSnapshotStore keeps the whole snapshot under one Redis key, without
// expiry; entry freshness is decided by the cache itself.
type RedisSnapshotStore struct {
	rc *pkgcache.RedisCache
}

func NewRedisSnapshotStore(rc *pkgcache.RedisCache) *RedisSnapshotStore {
	return &RedisSnapshotStore{rc: rc}
}

func (s *RedisSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	b, err := s.rc.GetBytes(ctx, redisSnapshotKey)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return nil, nil
	}
	return b, err
}

func (s *RedisSnapshotStore) Save(ctx context.Context, data []byte) error {
	return s.rc.SetBytes(ctx, redisSnapshotKey, data, 0)
}

func (s *RedisSnapshotStore) Close() error { return s.rc.Close() }
