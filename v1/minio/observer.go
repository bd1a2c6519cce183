package minio

import (
	"time"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
//
// Notes:
//   - resource: bucket name
//   - subResource: object key
func (m *MinioClient) observeOperation(operation, subResource string, duration time.Duration, err error, size int64) {
	if m == nil || m.observer == nil {
		return
	}

	m.observer.ObserveOperation(observability.OperationContext{
		Component:   "minio",
		Operation:   operation,
		Resource:    m.cfg.Connection.BucketName,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}
