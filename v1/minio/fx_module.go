package minio

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// FXModule provides *MinioClient and the Client interface and runs the
// connection monitor for the application's lifetime.
//
// Dependencies required by this module:
//   - minio.Config
//   - minio.Logger
//   - observability.Observer (optional)
var FXModule = fx.Module("minio",
	fx.Provide(
		NewClientWithFX,
		func(m *MinioClient) Client { return m },
	),
	fx.Invoke(RegisterLifecycle),
)

// ClientParams groups the fx dependencies of the client.
type ClientParams struct {
	fx.In

	Config   Config
	Logger   Logger
	Observer observability.Observer `optional:"true"`
}

// NewClientWithFX adapts NewClientWithDI to fx parameter objects.
func NewClientWithFX(p ClientParams) (*MinioClient, error) {
	return NewClientWithDI(p.Config, p.Logger, p.Observer)
}

// RegisterLifecycle starts the monitor and retry loops on start and stops
// them on shutdown.
func RegisterLifecycle(lc fx.Lifecycle, mi *MinioClient, logger Logger) {
	if mi == nil {
		logger.Fatal("MinIO client is nil, cannot register lifecycle hooks", nil, nil)
		return
	}

	wg := &sync.WaitGroup{}
	// the fx start context ends once startup completes, loops need their own
	loopCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				mi.monitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				mi.retryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing minio client...", nil, nil)
			mi.GracefulShutdown()
			cancel()
			wg.Wait()
			return nil
		},
	})
}
