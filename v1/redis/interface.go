package redis

import (
	"context"
	"time"
)

// Client is the key-value surface used to store and fetch schema files.
//
// This interface is implemented by the concrete *RedisClient type.
type Client interface {
	// Get returns the value of key. A missing key yields an error matching
	// ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Keys returns every key matching pattern, using SCAN.
	Keys(ctx context.Context, pattern string) ([]string, error)

	Ping(ctx context.Context) error

	Close() error
}

var _ Client = (*RedisClient)(nil)
