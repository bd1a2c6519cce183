package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Aleph-Alpha/pbcodec/v1/minio"
	"github.com/Aleph-Alpha/pbcodec/v1/redis"
)

// Source reads schema files. A missing file must produce an error matching
// fs.ErrNotExist; the loader relies on it to try the next candidate name.
type Source interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)

	// Name identifies the source in logs and deduplication keys.
	Name() string
}

// DirSource reads from the local filesystem. Relative names resolve against
// the working directory.
type DirSource struct{}

func (DirSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(name)
}

func (DirSource) Name() string { return SourceDir }

// MinioSource reads objects from a bucket. File names map onto keys below
// Prefix with slash separators; a leading slash is dropped.
type MinioSource struct {
	Client minio.Client
	Prefix string
}

// NewMinioSource returns a source reading below prefix.
func NewMinioSource(client minio.Client, prefix string) *MinioSource {
	return &MinioSource{Client: client, Prefix: prefix}
}

func (s *MinioSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	key := s.key(name)
	data, err := s.Client.Get(ctx, key)
	if errors.Is(err, minio.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, key)
	}
	return data, err
}

func (s *MinioSource) Name() string {
	return SourceMinio + ":" + s.Prefix
}

func (s *MinioSource) key(name string) string {
	return objectKey(s.Prefix, name)
}

// RedisSource reads schema files stored as plain values, one key per file.
// Keys are built the same way as for MinioSource.
type RedisSource struct {
	Client redis.Client
	Prefix string
}

// NewRedisSource returns a source reading below prefix.
func NewRedisSource(client redis.Client, prefix string) *RedisSource {
	return &RedisSource{Client: client, Prefix: prefix}
}

func (s *RedisSource) ReadFile(ctx context.Context, name string) ([]byte, error) {
	key := objectKey(s.Prefix, name)
	data, err := s.Client.Get(ctx, key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, key)
	}
	return data, err
}

func (s *RedisSource) Name() string {
	return SourceRedis + ":" + s.Prefix
}

func objectKey(prefix, name string) string {
	clean := strings.TrimPrefix(filepath.ToSlash(name), "/")
	if prefix == "" {
		return path.Clean(clean)
	}
	return path.Join(prefix, clean)
}
