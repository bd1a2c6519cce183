package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// FXModule provides the dead-letter store. It migrates the table on start,
// keeps the connection healthy while the application runs and closes it on
// stop.
//
// Dependencies required by this module:
//   - postgres.Config
//   - postgres.Logger and observability.Observer (optional)
var FXModule = fx.Module("postgres",
	fx.Provide(NewPostgresWithFX),
	fx.Invoke(RegisterPostgresLifecycle),
)

// PostgresParams groups the dependencies needed to create the store.
type PostgresParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewPostgresWithFX connects using fx-provided dependencies.
func NewPostgresWithFX(params PostgresParams) (*Postgres, error) {
	pg, err := NewPostgres(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		pg.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		pg.WithObserver(params.Observer)
	}
	return pg, nil
}

// PostgresLifeCycleParams groups the dependencies for lifecycle management.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle migrates the dead-letter table on start and runs
// the connection monitor until stop.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	pg := params.Postgres
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if err := pg.Migrate(startCtx); err != nil {
				return err
			}
			pg.logInfo(startCtx, "dead letter table ready", map[string]interface{}{
				"table": pg.cfg.DeadLetterTable,
			})

			wg.Add(2)
			go func() {
				defer wg.Done()
				pg.MonitorConnection(ctx)
			}()
			go func() {
				defer wg.Done()
				pg.RetryConnection(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			wg.Wait()
			return pg.GracefulShutdown()
		},
	})
}
