//go:build integration

package minio

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testminio"
	"github.com/Aleph-Alpha/pbcodec/v1/logger"
)

func testConfig(endpoint string) Config {
	return Config{
		Connection: ConnectionConfig{
			Endpoint:             endpoint,
			AccessKeyID:          testminio.AccessKey,
			SecretAccessKey:      testminio.SecretKey,
			BucketName:           "schemas",
			Region:               "us-east-1",
			AccessBucketCreation: true,
		},
		// force the pooled buffer path for anything above a few bytes
		DownloadConfig: DownloadConfig{SmallFileThreshold: 8},
	}
}

func TestMinioClientObjects(t *testing.T) {
	ctx := context.Background()
	server, err := testminio.Start(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, server.Terminate(ctx)) }()

	ctrl := gomock.NewController(t)
	mockLogger := logger.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info("closing minio client...", nil, gomock.Any()).Times(1)
	mockLogger.EXPECT().InfoWithContext(gomock.Any(), gomock.Any(), nil, gomock.Any()).AnyTimes()

	obs := &recordingObserver{}
	var client Client
	app := fxtest.New(t,
		FXModule,
		fx.Provide(
			func() Config { return testConfig(server.Endpoint) },
			func() Logger { return mockLogger },
		),
		fx.Populate(&client),
	)
	app.RequireStart()
	client.(*MinioClient).WithObserver(obs)

	small := []byte("tiny")
	large := bytes.Repeat([]byte("descriptor"), 100)

	_, err = client.Put(ctx, "protos/small.pb", bytes.NewReader(small), int64(len(small)))
	require.NoError(t, err)
	_, err = client.Put(ctx, "protos/large.pb", bytes.NewReader(large))
	require.NoError(t, err)

	got, err := client.Get(ctx, "protos/small.pb")
	require.NoError(t, err)
	assert.Equal(t, small, got)

	got, err = client.Get(ctx, "protos/large.pb")
	require.NoError(t, err)
	assert.Equal(t, large, got)

	_, err = client.Get(ctx, "protos/missing.pb")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	ok, err := client.Exists(ctx, "protos/small.pb")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := client.List(ctx, "protos/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"protos/small.pb", "protos/large.pb"}, keys)

	require.NoError(t, client.Delete(ctx, "protos/small.pb"))
	ok, err = client.Exists(ctx, "protos/small.pb")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NotEmpty(t, obs.operations)
	app.RequireStop()
}

func TestMinioClientMissingBucket(t *testing.T) {
	ctx := context.Background()
	server, err := testminio.Start(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, server.Terminate(ctx)) }()

	cfg := testConfig(server.Endpoint)
	cfg.Connection.AccessBucketCreation = false

	_, err = NewClient(cfg)
	assert.ErrorIs(t, err, ErrBucketNotFound)
}
