package minio

import (
	"errors"

	"github.com/minio/minio-go/v7"
)

var (
	// ErrConnectionFailed is returned when no usable client is available.
	ErrConnectionFailed = errors.New("minio connection failed")

	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied is returned when the credentials cannot read the key.
	ErrAccessDenied = errors.New("access denied")

	// ErrBucketNotFound is returned when the configured bucket is missing.
	ErrBucketNotFound = errors.New("bucket not found")
)

// TranslateError maps MinIO S3 error codes onto the package sentinels.
// Errors it does not recognise are returned unchanged.
func (m *MinioClient) TranslateError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return errors.Join(ErrObjectNotFound, err)
	case "NoSuchBucket":
		return errors.Join(ErrBucketNotFound, err)
	case "AccessDenied":
		return errors.Join(ErrAccessDenied, err)
	default:
		return err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}
