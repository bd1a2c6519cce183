package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("redis: key not found")

	// ErrClosed is returned when the client is closed.
	ErrClosed = errors.New("redis: client is closed")

	// ErrInvalidConfig is returned by NewClient for unusable configurations.
	ErrInvalidConfig = errors.New("redis: invalid configuration")
)

// TranslateError maps go-redis errors onto the package sentinels while
// keeping the original in the chain.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return errors.Join(ErrKeyNotFound, err)
	case errors.Is(err, redis.ErrClosed):
		return errors.Join(ErrClosed, err)
	default:
		return err
	}
}

// IsNilError checks if the error is a "key does not exist" error.
func IsNilError(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
