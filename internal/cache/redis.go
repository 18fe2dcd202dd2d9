package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shiftnav:"

// Redis is the shared tier. Keys carry a fixed namespace prefix so the
// instance can be shared with the notification broker.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// NewRedisClient wraps an existing client, for tests against miniature
// servers and for sharing one connection pool with the broker.
func NewRedisClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, val []byte) error {
	return r.rdb.Set(ctx, redisKeyPrefix+key, val, r.ttl).Err()
}

// Invalidate removes every key matching pattern using SCAN so large
// keyspaces don't block the server the way KEYS would.
func (r *Redis) Invalidate(ctx context.Context, pattern string) error {
	iter := r.rdb.Scan(ctx, 0, redisKeyPrefix+pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *Redis) Close() error { return r.rdb.Close() }
