package minio

import (
	"context"
	"io"
)

// Client is the object-store surface used to fetch compiled schema files.
//
// This interface is implemented by the concrete *MinioClient type.
type Client interface {
	// Put uploads an object to the configured bucket.
	Put(ctx context.Context, objectKey string, reader io.Reader, size ...int64) (int64, error)

	// Get retrieves an object and returns its contents.
	// A missing key yields an error matching ErrObjectNotFound.
	Get(ctx context.Context, objectKey string) ([]byte, error)

	// Exists reports whether objectKey is present.
	Exists(ctx context.Context, objectKey string) (bool, error)

	// List returns the keys under prefix, recursively.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes an object.
	Delete(ctx context.Context, objectKey string) error

	// GracefulShutdown stops the connection monitor.
	GracefulShutdown()
}

// Logger is the logging surface the client needs.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

var _ Client = (*MinioClient)(nil)
