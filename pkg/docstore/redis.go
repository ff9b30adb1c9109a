package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisBackend keeps one hash per collection; hash fields are row keys.
type redisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedis stores rows in Redis hashes named "<prefix>:<collection>".
func NewRedis(client *redis.Client, prefix string) *RowStore {
	return newRowStore(&redisBackend{client: client, prefix: prefix})
}

func (r *redisBackend) name() string { return "redis" }

func (r *redisBackend) hashKey(collection string) string {
	if r.prefix == "" {
		return collection
	}
	return r.prefix + ":" + collection
}

func (r *redisBackend) loadRow(ctx context.Context, collection, key string) ([]byte, bool, error) {
	raw, err := r.client.HGet(ctx, r.hashKey(collection), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return raw, true, nil
}

func (r *redisBackend) listRows(ctx context.Context, collection string) (map[string][]byte, error) {
	values, err := r.client.HGetAll(ctx, r.hashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", collection, err)
	}
	rows := make(map[string][]byte, len(values))
	for key, value := range values {
		rows[key] = []byte(value)
	}
	return rows, nil
}

func (r *redisBackend) saveRow(ctx context.Context, collection, key string, raw []byte) error {
	if err := r.client.HSet(ctx, r.hashKey(collection), key, raw).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (r *redisBackend) insertRow(ctx context.Context, collection, key string, raw []byte) (bool, error) {
	ok, err := r.client.HSetNX(ctx, r.hashKey(collection), key, raw).Result()
	if err != nil {
		return false, fmt.Errorf("redis hsetnx %s: %w", key, err)
	}
	return ok, nil
}

func (r *redisBackend) deleteRow(ctx context.Context, collection, key string) error {
	if err := r.client.HDel(ctx, r.hashKey(collection), key).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return nil
}

func (r *redisBackend) close(context.Context) error {
	return r.client.Close()
}
