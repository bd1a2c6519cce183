package redis

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// RedisClient wraps a go-redis universal client with logging and
// observability hooks.
type RedisClient struct {
	client redis.UniversalClient
	cfg    Config

	logger   Logger
	observer observability.Observer

	mu        sync.RWMutex
	closeOnce sync.Once
	closeErr  error
}

// NewClient builds a standalone, cluster or failover client depending on cfg.
// No connection is made until the first command; use Ping to check health.
func NewClient(cfg Config) (*RedisClient, error) {
	cfg = cfg.withDefaults()
	opts, err := universalOptions(cfg)
	if err != nil {
		return nil, err
	}

	return &RedisClient{
		client: redis.NewUniversalClient(opts),
		cfg:    cfg,
	}, nil
}

func universalOptions(cfg Config) (*redis.UniversalOptions, error) {
	addrs := cfg.Addrs
	if len(addrs) == 0 {
		if cfg.Host == "" {
			return nil, fmt.Errorf("%w: host or addrs is required", ErrInvalidConfig)
		}
		addrs = []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))}
	}

	var tlsConfig *tls.Config
	if cfg.TLS.Enabled {
		var err error
		tlsConfig, err = createTLSConfig(cfg.TLS, cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	return &redis.UniversalOptions{
		Addrs:           addrs,
		MasterName:      cfg.MasterName,
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: cfg.IdleTimeout,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: DefaultMinRetryBackoff,
		MaxRetryBackoff: DefaultMaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		TLSConfig:       tlsConfig,
	}, nil
}

// createTLSConfig creates a TLS configuration from the provided config
func createTLSConfig(cfg TLSConfig, defaultServerName string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.ServerName != "" {
		tlsConfig.ServerName = cfg.ServerName
	} else if defaultServerName != "" {
		tlsConfig.ServerName = defaultServerName
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Client returns the underlying go-redis client for advanced operations.
func (r *RedisClient) Client() redis.UniversalClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Close releases the connection pool. Calling it again returns the first
// result.
func (r *RedisClient) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.logInfo("Closing Redis client", nil)
		if err := r.client.Close(); err != nil {
			r.logWarn("Failed to close Redis client", err)
			r.closeErr = err
		}
	})
	return r.closeErr
}

// WithObserver sets the observer for this client and returns the client for method chaining.
func (r *RedisClient) WithObserver(observer observability.Observer) *RedisClient {
	r.observer = observer
	return r
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (r *RedisClient) WithLogger(logger Logger) *RedisClient {
	r.logger = logger
	return r
}

func (r *RedisClient) logInfo(msg string, fields map[string]interface{}) {
	if r.logger != nil {
		r.logger.Info(msg, nil, fields)
	}
}

func (r *RedisClient) logWarn(msg string, err error) {
	if r.logger != nil {
		r.logger.Warn(msg, err, nil)
	}
}
