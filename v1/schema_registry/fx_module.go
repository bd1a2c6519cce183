package schema_registry

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// FXModule is an fx.Module that provides and configures the Schema Registry client.
//
// Dependencies required by this module:
//   - schema_registry.Config
//   - schema_registry.Logger (optional)
//   - observability.Observer (optional)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) Registry { return c },
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams groups the dependencies needed to create a Schema Registry client
type SchemaRegistryParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a new Schema Registry client using dependency injection.
func NewClientWithDI(params SchemaRegistryParams) (*Client, error) {
	c, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	return c.WithLogger(params.Logger).WithObserver(params.Observer), nil
}

// SchemaRegistryLifecycleParams groups the dependencies needed for Schema Registry lifecycle management
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterSchemaRegistryLifecycle logs start and stop; the HTTP client needs
// no other cleanup.
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	c := params.Client
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.logInfo(ctx, "Schema Registry client initialized", map[string]interface{}{"url": c.url})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			c.httpClient.CloseIdleConnections()
			c.logInfo(ctx, "Schema Registry client shutdown", nil)
			return nil
		},
	})
}
