package schema

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/minio"
	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/redis"
)

// FXModule provides a *Registry built from schema.Config.
//
// Dependencies required by this module:
//   - schema.Config
//   - schema.Logger (optional)
//   - observability.Observer (optional)
//   - minio.Client, when Config.Source is "minio"
//   - redis.Client, when Config.Source is "redis"
var FXModule = fx.Module("schema",
	fx.Provide(NewRegistryWithFX),
)

// RegistryParams groups the fx dependencies of the registry.
type RegistryParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Minio    minio.Client           `optional:"true"`
	Redis    redis.Client           `optional:"true"`
}

// NewRegistryWithFX builds a registry from fx-provided dependencies.
func NewRegistryWithFX(p RegistryParams) (*Registry, error) {
	opts := []Option{WithLogger(p.Logger), WithObserver(p.Observer)}

	switch p.Config.Source {
	case "", SourceDir:
	case SourceMinio:
		if p.Minio == nil {
			return nil, fmt.Errorf("%w: source %q needs a minio client", ErrConfiguration, SourceMinio)
		}
		opts = append(opts, WithSource(NewMinioSource(p.Minio, p.Config.Prefix)))
	case SourceRedis:
		if p.Redis == nil {
			return nil, fmt.Errorf("%w: source %q needs a redis client", ErrConfiguration, SourceRedis)
		}
		opts = append(opts, WithSource(NewRedisSource(p.Redis, p.Config.Prefix)))
	default:
		return nil, fmt.Errorf("%w: unknown schema source %q", ErrConfiguration, p.Config.Source)
	}

	if p.Config.PrivatePool {
		opts = append(opts, WithPool(NewPool()))
	}
	return NewRegistry(opts...), nil
}
