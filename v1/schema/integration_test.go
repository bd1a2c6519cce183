//go:build integration

package schema

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testminio"
	"github.com/Aleph-Alpha/pbcodec/v1/internal/testschema"
	"github.com/Aleph-Alpha/pbcodec/v1/logger"
	"github.com/Aleph-Alpha/pbcodec/v1/minio"
	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

func TestResolveFromMinioServer(t *testing.T) {
	ctx := context.Background()
	server, err := testminio.Start(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, server.Terminate(ctx)) }()

	ctrl := gomock.NewController(t)
	mockLogger := logger.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any(), nil, gomock.Any()).AnyTimes()
	mockLogger.EXPECT().InfoWithContext(gomock.Any(), gomock.Any(), nil, gomock.Any()).AnyTimes()

	var reg *Registry
	var objects minio.Client
	app := fxtest.New(t,
		minio.FXModule,
		FXModule,
		fx.Provide(
			func() minio.Config {
				return minio.Config{Connection: minio.ConnectionConfig{
					Endpoint:             server.Endpoint,
					AccessKeyID:          testminio.AccessKey,
					SecretAccessKey:      testminio.SecretKey,
					BucketName:           "schemas",
					Region:               "us-east-1",
					AccessBucketCreation: true,
				}}
			},
			func() Config { return Config{Source: SourceMinio, Prefix: "protos", PrivatePool: true} },
			func() minio.Logger { return mockLogger },
			func() Logger { return mockLogger },
		),
		fx.Populate(&reg, &objects),
	)
	app.RequireStart()
	defer app.RequireStop()

	upload := func(key string, data []byte) {
		_, err := objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
	}
	header, err := proto.Marshal(testschema.Set(testschema.Header()))
	require.NoError(t, err)
	messageA, err := proto.Marshal(testschema.Set(testschema.MessageA()))
	require.NoError(t, err)
	upload("protos/header.pb", header)
	upload("protos/messageA.pb", messageA)

	class, err := reg.Resolve(ctx, Request{
		ClassName: "A.MessageA",
		Locations: Locations{ClassFile: "messageA.pb", RootDirectory: "/"},
	})
	require.NoError(t, err)

	data, err := transcode.NewEncoder().Encode(transcode.Record{
		"name":   "Test",
		"header": transcode.Record{"name": transcode.Record{"a": "b"}},
	}, class)
	require.NoError(t, err)
	rec, err := transcode.NewDecoder().Decode(data, class)
	require.NoError(t, err)
	assert.Equal(t, "Test", rec["name"])
	assert.Equal(t, "b", rec.Get("header.name.a"))
}
