package minio

import "time"

const (
	unknownSize                   int64 = -1
	connectionHealthCheckInterval       = 3 * time.Second
	defaultSmallFileThreshold     int64 = 1024 * 1024
	defaultInitialBufferSize            = 64 * 1024
)

// Config defines the top-level configuration for MinIO.
type Config struct {
	Connection     ConnectionConfig // Connection details for MinIO server
	DownloadConfig DownloadConfig   // Configuration for download behavior
}

// ConnectionConfig contains MinIO server connection details.
type ConnectionConfig struct {
	Endpoint             string `yaml:"endpoint" envconfig:"MINIO_ENDPOINT"`                   // MinIO server endpoint, e.g., "localhost:9000"
	AccessKeyID          string `yaml:"access_key_id" envconfig:"MINIO_ACCESS_KEY_ID"`         // MinIO access key
	SecretAccessKey      string `yaml:"secret_access_key" envconfig:"MINIO_SECRET_ACCESS_KEY"` // MinIO secret key
	UseSSL               bool   `yaml:"use_ssl" envconfig:"MINIO_USE_SSL"`                     // Use SSL (true for "https", false for "http")
	BucketName           string `yaml:"bucket_name" envconfig:"MINIO_BUCKET_NAME"`             // Bucket holding the schema files
	Region               string `yaml:"region" envconfig:"MINIO_REGION"`                       // Region for the bucket (e.g., "us-east-1")
	AccessBucketCreation bool   `yaml:"access_bucket_creation" envconfig:"MINIO_ACCESS_BUCKET_CREATION"`
}

// DownloadConfig tunes how object bodies are read into memory.
type DownloadConfig struct {
	SmallFileThreshold int64 // Size in bytes below which we use pre-allocated buffer
	InitialBufferSize  int   // Initial buffer size for large files
}

func (c DownloadConfig) withDefaults() DownloadConfig {
	if c.SmallFileThreshold <= 0 {
		c.SmallFileThreshold = defaultSmallFileThreshold
	}
	if c.InitialBufferSize <= 0 {
		c.InitialBufferSize = defaultInitialBufferSize
	}
	return c
}
