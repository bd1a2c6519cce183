package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

const (
	healthCheckInterval = 10 * time.Second
	healthCheckTimeout  = 5 * time.Second
	reconnectDelay      = time.Second
)

// Postgres is a gorm connection to PostgreSQL holding the dead-letter
// table. A background monitor replaces the connection when health checks
// fail.
type Postgres struct {
	cfg      Config
	client   atomic.Pointer[gorm.DB]
	logger   Logger
	observer observability.Observer

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeShutdownOnce sync.Once
}

// NewPostgres connects to PostgreSQL.
//
// Example:
//
//	store, err := postgres.NewPostgres(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := store.Migrate(ctx); err != nil {
//	    return err
//	}
func NewPostgres(cfg Config) (*Postgres, error) {
	if cfg.Connection.Host == "" || cfg.Connection.DbName == "" {
		return nil, fmt.Errorf("%w: host and db name are required", ErrInvalidConfig)
	}
	cfg = cfg.withDefaults()

	conn, err := connectToPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}

	pg := newPostgres(cfg)
	pg.client.Store(conn)
	return pg, nil
}

func newPostgres(cfg Config) *Postgres {
	return &Postgres{
		cfg:             cfg,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
}

// WithLogger attaches a logger and returns the store for chaining.
func (p *Postgres) WithLogger(logger Logger) *Postgres {
	p.logger = logger
	return p
}

// WithObserver attaches an observer and returns the store for chaining.
func (p *Postgres) WithObserver(observer observability.Observer) *Postgres {
	p.observer = observer
	return p
}

// DB returns the current connection, or nil before connecting.
func (p *Postgres) DB() *gorm.DB {
	return p.client.Load()
}

// dsn builds a postgres:// URL so credentials and names are escaped.
func dsn(c Connection) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DbName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func connectToPostgres(cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(dsn(cfg.Connection)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.ConnectionDetails.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.ConnectionDetails.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnectionDetails.ConnMaxLifetime)

	return database, nil
}

// RetryConnection reconnects whenever MonitorConnection reports a failed
// health check, until ctx ends or the store shuts down.
func (p *Postgres) RetryConnection(ctx context.Context) {
	for {
		select {
		case <-p.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case cause := <-p.retryChanSignal:
			p.logWarn(ctx, "PostgreSQL health check failed, reconnecting", cause, nil)
			if !p.reconnect(ctx) {
				return
			}
		}
	}
}

func (p *Postgres) reconnect(ctx context.Context) bool {
	for {
		conn, err := connectToPostgres(p.cfg)
		if err == nil {
			if old := p.client.Swap(conn); old != nil {
				if sqlDB, err := old.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}
			p.logInfo(ctx, "Successfully reconnected to PostgreSQL", nil)
			return true
		}
		p.logError(ctx, "PostgreSQL reconnection failed", err, nil)

		select {
		case <-p.shutdownSignal:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(reconnectDelay):
		}
	}
}

// MonitorConnection pings the database periodically and signals
// RetryConnection when a ping fails.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.healthCheck(ctx); err != nil {
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

func (p *Postgres) healthCheck(ctx context.Context) error {
	db := p.DB()
	if db == nil {
		return ErrNotConnected
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// GracefulShutdown stops the monitor and closes the connection pool.
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	db := p.client.Swap(nil)
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (p *Postgres) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (p *Postgres) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
