package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides a *Tracer and flushes it on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config { return cfg.Tracer }),
//	)
//
// Dependencies required by this module:
//   - tracer.Config
//   - tracer.Logger (optional)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewTracerWithFX,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the fx dependencies of the tracer.
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewTracerWithFX builds the tracer from fx-provided dependencies.
func NewTracerWithFX(p TracerParams) (*Tracer, error) {
	return NewClient(p.Config, p.Logger)
}

// RegisterTracerLifecycle registers an OnStop hook that flushes pending
// spans to the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer...", nil, nil)
			}
			if tracer.tracer == nil {
				if tracer.logger != nil {
					tracer.logger.Warn("tracer was nil during shutdown", nil, nil)
				}
				return nil
			}
			return tracer.Shutdown(ctx)
		},
	})
}
