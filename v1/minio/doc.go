// Package minio provides the object-store client that serves compiled schema
// files (FileDescriptorSets and .proto sources) from a MinIO or S3-compatible
// bucket.
//
// The client validates the connection and bucket on construction, then a
// monitor loop checks the connection every few seconds and swaps in a fresh
// client when the endpoint comes back after a failure.
//
// Basic usage:
//
//	client, err := minio.NewClient(minio.Config{
//		Connection: minio.ConnectionConfig{
//			Endpoint:        "localhost:9000",
//			AccessKeyID:     "minio_admin",
//			SecretAccessKey: "minio_admin",
//			BucketName:      "schemas",
//		},
//	})
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//
//	raw, err := client.Get(ctx, "events/v3/messageA.pb")
//	if errors.Is(err, minio.ErrObjectNotFound) {
//		// try the next candidate name
//	}
//
// With fx, include minio.FXModule and provide a minio.Config and a
// minio.Logger; an observability.Observer is picked up when present.
package minio
