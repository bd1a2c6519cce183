package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

type recordingObserver struct {
	operations []observability.OperationContext
}

func (r *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	r.operations = append(r.operations, ctx)
}

func TestTranslateError(t *testing.T) {
	err := TranslateError(redis.Nil)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, err, redis.Nil)
	assert.True(t, IsNilError(err))

	err = TranslateError(redis.ErrClosed)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, IsNilError(err))

	other := errors.New("boom")
	assert.Same(t, other, TranslateError(other))
	assert.NoError(t, TranslateError(nil))
}

func TestNewClientRequiresAddress(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestUniversalOptions(t *testing.T) {
	opts, err := universalOptions(Config{Host: "cache", Port: 6380}.withDefaults())
	require.NoError(t, err)
	assert.Equal(t, []string{"cache:6380"}, opts.Addrs)
	assert.Equal(t, DefaultMaxRetries, opts.MaxRetries)
	assert.Equal(t, DefaultDialTimeout, opts.DialTimeout)
	assert.Equal(t, DefaultReadTimeout, opts.ReadTimeout)
	assert.Nil(t, opts.TLSConfig)

	opts, err = universalOptions(Config{
		Addrs:      []string{"s1:26379", "s2:26379"},
		MasterName: "schemas",
	}.withDefaults())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1:26379", "s2:26379"}, opts.Addrs)
	assert.Equal(t, "schemas", opts.MasterName)
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	cfg := Config{Port: 7000, MaxRetries: 1}.withDefaults()
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
}

func TestTLSConfigMissingCA(t *testing.T) {
	_, err := NewClient(Config{
		Host: "cache",
		TLS:  TLSConfig{Enabled: true, CACertPath: "/does/not/exist.pem"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read CA cert")
}

func TestOperationsAfterClose(t *testing.T) {
	obs := &recordingObserver{}
	client, err := NewClient(Config{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)
	client.WithObserver(obs)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	ctx := context.Background()
	_, err = client.Get(ctx, "protos/a.pb")
	assert.ErrorIs(t, err, ErrClosed)

	n, err := client.Delete(ctx)
	assert.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, obs.operations, 1)
	assert.Equal(t, "redis", obs.operations[0].Component)
	assert.Equal(t, "get", obs.operations[0].Operation)
	assert.Equal(t, "protos/a.pb", obs.operations[0].Resource)
	assert.ErrorIs(t, obs.operations[0].Error, ErrClosed)
}
