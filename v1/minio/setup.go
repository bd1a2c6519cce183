package minio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// MinioClient wraps the MinIO client with connection monitoring and
// reconnection. It serves schema files (descriptor sets and .proto sources)
// out of a single bucket.
type MinioClient struct {
	// client is swapped atomically during reconnection so concurrent reads
	// never observe a half-built client.
	client atomic.Pointer[minio.Client]

	cfg Config

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// logger provides optional context-aware logging capabilities
	logger Logger

	// shutdownSignal is used to signal the connection monitor to stop
	shutdownSignal chan struct{}

	// reconnectSignal is used to trigger reconnection attempts
	reconnectSignal chan error

	// buffers holds reusable read buffers for objects above the small file threshold
	buffers sync.Pool

	closeShutdownOnce sync.Once
}

// NewClient creates and validates a new MinIO client.
// It validates the connection and ensures the configured bucket exists.
//
// Example:
//
//	client, err := minio.NewClient(config)
//	if err != nil {
//	    return fmt.Errorf("failed to initialize MinIO client: %w", err)
//	}
//	client = client.WithLogger(myLogger).WithObserver(myObserver)
//	defer client.GracefulShutdown()
func NewClient(config Config) (*MinioClient, error) {
	config.DownloadConfig = config.DownloadConfig.withDefaults()

	client, err := connectToMinio(config)
	if err != nil {
		return nil, err
	}

	m := &MinioClient{
		cfg:             config,
		shutdownSignal:  make(chan struct{}),
		reconnectSignal: make(chan error, 1),
	}
	m.buffers.New = func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, m.cfg.DownloadConfig.InitialBufferSize))
	}
	m.client.Store(client)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.validateConnection(timeoutCtx); err != nil {
		return nil, fmt.Errorf("failed to validate minio connection: %w", err)
	}
	if err := m.ensureBucketExists(timeoutCtx); err != nil {
		return nil, err
	}

	return m, nil
}

// NewClientWithDI builds the client for fx, attaching the injected logger and
// observer. Either may be nil.
func NewClientWithDI(config Config, logger Logger, observer observability.Observer) (*MinioClient, error) {
	m, err := NewClient(config)
	if err != nil {
		if logger != nil {
			logger.Error("failed to connect to minio", err, map[string]interface{}{
				"endpoint": config.Connection.Endpoint,
			})
		}
		return nil, err
	}
	return m.WithLogger(logger).WithObserver(observer), nil
}

// monitorConnection periodically checks the MinIO connection and triggers reconnecting if needed.
func (m *MinioClient) monitorConnection(ctx context.Context) {
	ticker := time.NewTicker(connectionHealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := m.validateConnection(checkCtx)
			cancel()

			if err != nil {
				m.logError(ctx, "MinIO connection health check failed", err, map[string]interface{}{
					"endpoint": m.cfg.Connection.Endpoint,
				})

				select {
				case m.reconnectSignal <- err:
				default: // a reconnect is already pending
				}
			}

		case <-m.shutdownSignal:
			return

		case <-ctx.Done():
			return
		}
	}
}

// retryConnection rebuilds the client whenever the monitor reports a failure.
func (m *MinioClient) retryConnection(ctx context.Context) {
	for {
		select {
		case <-m.shutdownSignal:
			m.logInfo(ctx, "Stopping MinIO connection retry loop due to shutdown signal", nil)
			return

		case <-ctx.Done():
			m.logInfo(ctx, "Stopping MinIO connection retry loop due to context cancellation", nil)
			return

		case err, ok := <-m.reconnectSignal:
			if !ok {
				return
			}
			m.logWarn(ctx, "MinIO connection issue detected, attempting reconnection", err, map[string]interface{}{
				"endpoint": m.cfg.Connection.Endpoint,
			})
			if !m.reconnect(ctx) {
				return
			}
		}
	}
}

// reconnect retries once per second until a validated client is installed.
// It returns false when shutdown interrupted it.
func (m *MinioClient) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-m.shutdownSignal:
			return false
		case <-ctx.Done():
			return false
		default:
		}

		newClient, err := connectToMinio(m.cfg)
		if err == nil {
			attemptCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_, err = newClient.BucketExists(attemptCtx, m.cfg.Connection.BucketName)
			cancel()
		}
		if err != nil {
			m.logError(ctx, "MinIO reconnection failed", err, map[string]interface{}{
				"endpoint":      m.cfg.Connection.Endpoint,
				"will_retry_in": "1s",
			})
			time.Sleep(time.Second)
			continue
		}

		m.client.Store(newClient)
		m.logInfo(ctx, "Successfully reconnected to MinIO", map[string]interface{}{
			"endpoint": m.cfg.Connection.Endpoint,
			"bucket":   m.cfg.Connection.BucketName,
		})
		return true
	}
}

func connectToMinio(cfg Config) (*minio.Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}

	return minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
}

// validateConnection checks the configured bucket, falling back to listing
// buckets when none is configured.
func (m *MinioClient) validateConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := m.client.Load()
	if c == nil {
		return ErrConnectionFailed
	}

	if bucket := m.cfg.Connection.BucketName; bucket != "" {
		_, err := c.BucketExists(ctx, bucket)
		return err
	}

	_, err := c.ListBuckets(ctx)
	return err
}

// ensureBucketExists checks the configured bucket and creates it when
// AccessBucketCreation allows.
func (m *MinioClient) ensureBucketExists(ctx context.Context) error {
	bucketName := m.cfg.Connection.BucketName
	if bucketName == "" {
		return fmt.Errorf("bucket name is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := m.client.Load()
	if c == nil {
		return ErrConnectionFailed
	}

	exists, err := c.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists, bucket: %v, err: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if !m.cfg.Connection.AccessBucketCreation {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketName)
	}

	m.logInfo(ctx, "Bucket does not exist, creating it", map[string]interface{}{
		"bucket": bucketName,
		"region": m.cfg.Connection.Region,
	})
	return c.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Connection.Region})
}

// GracefulShutdown stops the monitor and retry goroutines. Safe to call twice.
func (m *MinioClient) GracefulShutdown() {
	m.closeShutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})
}

// WithObserver attaches an observer to the MinIO client for observability hooks.
func (m *MinioClient) WithObserver(observer observability.Observer) *MinioClient {
	m.observer = observer
	return m
}

// WithLogger attaches a logger to the MinIO client for internal logging.
func (m *MinioClient) WithLogger(logger Logger) *MinioClient {
	m.logger = logger
	return m
}

func (m *MinioClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (m *MinioClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (m *MinioClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
