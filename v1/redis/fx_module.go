package redis

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// FXModule provides *RedisClient and the Client interface. The server is
// pinged on start and the pool closed on stop.
//
// Dependencies required by this module:
//   - redis.Config
//   - redis.Logger (optional)
//   - observability.Observer (optional)
var FXModule = fx.Module("redis",
	fx.Provide(
		NewClientWithDI,
		func(r *RedisClient) Client { return r },
	),
	fx.Invoke(RegisterRedisLifecycle),
)

// RedisParams groups the dependencies for creating a Redis client.
type RedisParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a Redis client using dependency injection.
func NewClientWithDI(params RedisParams) (*RedisClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client = client.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		client = client.WithObserver(params.Observer)
	}
	return client, nil
}

// RegisterRedisLifecycle fails startup when the server is unreachable.
func RegisterRedisLifecycle(lc fx.Lifecycle, client *RedisClient) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx); err != nil {
				client.logWarn("Failed to ping Redis on startup", err)
				return err
			}
			client.logInfo("Redis client started and healthy", nil)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
