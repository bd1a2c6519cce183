package redis

import (
	"context"
	"time"
)

// Ping checks if the Redis server is reachable and responsive.
func (r *RedisClient) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return TranslateError(r.client.Ping(ctx).Err())
}

// Get retrieves the value associated with the given key.
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, err := r.client.Get(ctx, key).Bytes()
	err = TranslateError(err)
	r.observeOperation("get", key, time.Since(start), err, int64(len(result)))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Set sets the value for the given key. If ttl is 0, the key will not expire.
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	err := TranslateError(r.client.Set(ctx, key, value, ttl).Err())
	r.observeOperation("set", key, time.Since(start), err, int64(len(value)))
	return err
}

// Delete removes the given keys and returns how many existed.
func (r *RedisClient) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, err := r.client.Del(ctx, keys...).Result()
	err = TranslateError(err)
	r.observeOperation("delete", keys[0], time.Since(start), err, 0)
	return n, err
}

// Keys walks the keyspace with SCAN, so it does not block the server the
// way KEYS does.
func (r *RedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	err := TranslateError(iter.Err())
	r.observeOperation("scan", pattern, time.Since(start), err, int64(len(keys)))
	if err != nil {
		return nil, err
	}
	return keys, nil
}
