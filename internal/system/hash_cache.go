package system

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// HashCache redis hash 的最小子集，测试时可替换为内存实现
type HashCache interface {
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key, field string) error
}

// RedisHash go-redis 实现
type RedisHash struct {
	Client *redis.Client
}

func NewRedisHash(c *redis.Client) *RedisHash {
	if c == nil {
		return nil
	}
	return &RedisHash{Client: c}
}

func (r *RedisHash) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := r.Client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisHash) HSet(ctx context.Context, key, field, value string) error {
	return r.Client.HSet(ctx, key, field, value).Err()
}

func (r *RedisHash) HDel(ctx context.Context, key, field string) error {
	return r.Client.HDel(ctx, key, field).Err()
}
