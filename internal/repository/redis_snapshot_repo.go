package repository

import (
	"context"

	pkgerrors "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/errors"
	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/pkg/redis"
)

// redisSnapshotRepo SnapshotRepository 的 Redis 实现
type redisSnapshotRepo struct {
	client *redis.Client
}

// NewRedisSnapshotRepo 创建基于 Redis 的 SnapshotRepository
func NewRedisSnapshotRepo(client *redis.Client) SnapshotRepository {
	return &redisSnapshotRepo{client: client}
}

func (r *redisSnapshotRepo) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *redisSnapshotRepo) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value)
}
