package codec

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/schema"
	"github.com/Aleph-Alpha/pbcodec/v1/schema_registry"
	"github.com/Aleph-Alpha/pbcodec/v1/tracer"
)

// FXModule provides a *Codec, registers it when the application starts and
// releases its scope when it stops.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    schema.FXModule,
//	    codec.FXModule,
//	    fx.Provide(
//	        func() schema.Config { return schema.Config{} },
//	        func() codec.Config { return cfg.Codec },
//	    ),
//	)
//
// Dependencies required by this module:
//   - codec.Config
//   - *schema.Registry
//   - codec.Logger (optional)
//   - schema_registry.Registry (optional, for framing by subject)
//   - *tracer.Tracer (optional)
//   - observability.Observer (optional)
var FXModule = fx.Module("codec",
	fx.Provide(NewCodecWithFX),
	fx.Invoke(RegisterCodecLifecycle),
)

// CodecParams groups the fx dependencies of the codec.
type CodecParams struct {
	fx.In

	Config         Config
	Registry       *schema.Registry
	Logger         Logger                   `optional:"true"`
	SchemaRegistry schema_registry.Registry `optional:"true"`
	Tracer         *tracer.Tracer           `optional:"true"`
	Observer       observability.Observer   `optional:"true"`
}

// NewCodecWithFX builds a codec from fx-provided dependencies.
func NewCodecWithFX(p CodecParams) (*Codec, error) {
	opts := []Option{WithObserver(p.Observer)}
	if p.SchemaRegistry != nil {
		opts = append(opts, WithSchemaRegistry(p.SchemaRegistry))
	}
	if p.Tracer != nil {
		opts = append(opts, WithTracer(p.Tracer))
	}
	return NewCodec(p.Config, p.Logger, p.Registry, opts...)
}

// RegisterCodecLifecycle resolves the class on start, so configuration
// errors abort startup, and releases the scope on stop.
func RegisterCodecLifecycle(lc fx.Lifecycle, c *Codec) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Register(ctx)
		},
		OnStop: func(ctx context.Context) error {
			c.Close()
			return nil
		},
	})
}
