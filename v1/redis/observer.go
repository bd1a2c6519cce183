package redis

import (
	"time"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: the key or pattern operated on
func (r *RedisClient) observeOperation(operation, resource string, duration time.Duration, err error, size int64) {
	if r == nil || r.observer == nil {
		return
	}

	r.observer.ObserveOperation(observability.OperationContext{
		Component: "redis",
		Operation: operation,
		Resource:  resource,
		Duration:  duration,
		Error:     err,
		Size:      size,
	})
}
