package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// Put uploads an object to the configured bucket.
func (m *MinioClient) Put(ctx context.Context, objectKey string, reader io.Reader, size ...int64) (int64, error) {
	start := time.Now()

	actualSize := unknownSize
	if len(size) > 0 && size[0] != 0 {
		actualSize = size[0]
	}

	c := m.client.Load()
	if c == nil {
		return 0, ErrConnectionFailed
	}
	info, err := c.PutObject(ctx, m.cfg.Connection.BucketName, objectKey, reader, actualSize, minio.PutObjectOptions{})
	if err != nil {
		err = m.TranslateError(err)
		m.observeOperation("put", objectKey, time.Since(start), err, 0)
		return 0, err
	}
	m.observeOperation("put", objectKey, time.Since(start), nil, info.Size)
	return info.Size, nil
}

// Get retrieves an object and returns its contents as a byte slice.
// Small objects are read into an exactly sized slice; larger ones go through
// a pooled buffer.
func (m *MinioClient) Get(ctx context.Context, objectKey string) ([]byte, error) {
	start := time.Now()
	data, err := m.get(ctx, objectKey)
	m.observeOperation("get", objectKey, time.Since(start), err, int64(len(data)))
	return data, err
}

func (m *MinioClient) get(ctx context.Context, objectKey string) ([]byte, error) {
	c := m.client.Load()
	if c == nil {
		return nil, ErrConnectionFailed
	}

	reader, err := c.GetObject(ctx, m.cfg.Connection.BucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectKey, m.TranslateError(err))
	}
	defer func() {
		if err := reader.Close(); err != nil {
			m.logWarn(ctx, "failed to close object reader", err, map[string]interface{}{"key": objectKey})
		}
	}()

	// GetObject is lazy; Stat surfaces NoSuchKey
	info, err := reader.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectKey, m.TranslateError(err))
	}

	if info.Size < m.cfg.DownloadConfig.SmallFileThreshold {
		data := make([]byte, info.Size)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("failed to read object data: %w", err)
		}
		return data, nil
	}

	buffer := m.buffers.Get().(*bytes.Buffer)
	buffer.Reset()
	defer m.buffers.Put(buffer)

	if _, err := io.Copy(buffer, reader); err != nil {
		return nil, fmt.Errorf("failed to read large object: %w", err)
	}

	// the buffer goes back to the pool, callers get their own copy
	result := make([]byte, buffer.Len())
	copy(result, buffer.Bytes())
	return result, nil
}

// Exists reports whether objectKey is present in the bucket.
func (m *MinioClient) Exists(ctx context.Context, objectKey string) (bool, error) {
	start := time.Now()
	c := m.client.Load()
	if c == nil {
		return false, ErrConnectionFailed
	}

	_, err := c.StatObject(ctx, m.cfg.Connection.BucketName, objectKey, minio.StatObjectOptions{})
	if err == nil {
		m.observeOperation("stat", objectKey, time.Since(start), nil, 0)
		return true, nil
	}
	err = m.TranslateError(err)
	if isNotFound(err) {
		m.observeOperation("stat", objectKey, time.Since(start), nil, 0)
		return false, nil
	}
	m.observeOperation("stat", objectKey, time.Since(start), err, 0)
	return false, err
}

// List returns every key below prefix.
func (m *MinioClient) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	c := m.client.Load()
	if c == nil {
		return nil, ErrConnectionFailed
	}

	var keys []string
	for obj := range c.ListObjects(ctx, m.cfg.Connection.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			err := m.TranslateError(obj.Err)
			m.observeOperation("list", prefix, time.Since(start), err, 0)
			return nil, err
		}
		keys = append(keys, obj.Key)
	}
	m.observeOperation("list", prefix, time.Since(start), nil, int64(len(keys)))
	return keys, nil
}

// Delete removes an object from the bucket.
func (m *MinioClient) Delete(ctx context.Context, objectKey string) error {
	start := time.Now()
	c := m.client.Load()
	if c == nil {
		return ErrConnectionFailed
	}
	err := m.TranslateError(c.RemoveObject(ctx, m.cfg.Connection.BucketName, objectKey, minio.RemoveObjectOptions{}))
	m.observeOperation("delete", objectKey, time.Since(start), err, 0)
	return err
}
