//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func startPostgres(t *testing.T) Connection {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:15",
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return Connection{Host: host, Port: port.Port(), User: "testuser", Password: "testpass", DbName: "testdb"}
}

func TestDeadLetterStoreIntegration(t *testing.T) {
	conn := startPostgres(t)

	var store *Postgres
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config { return Config{Connection: conn, DeadLetterTable: "unicorn_dead_letters"} }),
		fx.Populate(&store),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	require.NoError(t, store.StoreDeadLetter(ctx, "k1", []byte{0x0a, 0x09}, map[string]string{"origin": "stable"}, errors.New("truncated")))
	require.NoError(t, store.StoreDeadLetter(ctx, "k2", []byte{0xff}, nil, errors.New("bad tag")))

	letters, err := store.ListDeadLetters(ctx, 0)
	require.NoError(t, err)
	require.Len(t, letters, 2)
	assert.Equal(t, "k1", letters[0].Key)
	assert.Equal(t, []byte{0x0a, 0x09}, letters[0].Payload)
	assert.Equal(t, map[string]string{"origin": "stable"}, letters[0].Headers)
	assert.Equal(t, "truncated", letters[0].Reason)
	assert.False(t, letters[0].CreatedAt.IsZero())

	first, err := store.ListDeadLetters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, store.DeleteDeadLetter(ctx, letters[0].ID))
	assert.ErrorIs(t, store.DeleteDeadLetter(ctx, letters[0].ID), ErrRecordNotFound)

	remaining, err := store.ListDeadLetters(ctx, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "k2", remaining[0].Key)

	require.NoError(t, store.Migrate(ctx))
}
