package redis

import "time"

// Config defines how to reach the Redis deployment holding schema files.
//
// A single address in Addrs (or Host/Port) builds a standalone client,
// several addresses build a cluster client and a non-empty MasterName builds
// a sentinel-backed failover client.
type Config struct {
	// Host is the Redis server hostname, used when Addrs is empty.
	Host string `yaml:"host" envconfig:"REDIS_HOST"`

	// Port is the Redis server port, used when Addrs is empty.
	// Default: 6379
	Port int `yaml:"port" envconfig:"REDIS_PORT"`

	// Addrs lists cluster nodes or sentinel addresses.
	Addrs []string `yaml:"addrs" envconfig:"REDIS_ADDRS"`

	// MasterName selects failover mode.
	MasterName string `yaml:"master_name" envconfig:"REDIS_MASTER_NAME"`

	// Username is the Redis username for ACL authentication (Redis 6.0+)
	Username string `yaml:"username" envconfig:"REDIS_USERNAME"`

	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`

	// DB is ignored by cluster clients.
	DB int `yaml:"db" envconfig:"REDIS_DB"`

	// PoolSize is the maximum number of socket connections.
	// Default: 10 per CPU (set by go-redis)
	PoolSize int `yaml:"pool_size" envconfig:"REDIS_POOL_SIZE"`

	MinIdleConns int `yaml:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS"`

	// MaxRetries is the maximum number of retries before giving up.
	// Default: 3
	MaxRetries int `yaml:"max_retries" envconfig:"REDIS_MAX_RETRIES"`

	// DialTimeout is the timeout for establishing new connections.
	// Default: 5 seconds
	DialTimeout time.Duration `yaml:"dial_timeout" envconfig:"REDIS_DIAL_TIMEOUT"`

	// ReadTimeout is the timeout for socket reads.
	// Default: 3 seconds
	ReadTimeout time.Duration `yaml:"read_timeout" envconfig:"REDIS_READ_TIMEOUT"`

	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"REDIS_WRITE_TIMEOUT"`

	// IdleTimeout closes connections idle for longer.
	// Default: 5 minutes
	IdleTimeout time.Duration `yaml:"idle_timeout" envconfig:"REDIS_IDLE_TIMEOUT"`

	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS/SSL configuration.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"REDIS_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"REDIS_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"REDIS_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"REDIS_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"REDIS_TLS_INSECURE_SKIP_VERIFY"`
	ServerName         string `yaml:"server_name" envconfig:"REDIS_TLS_SERVER_NAME"`
}

// Logger is the subset of logger.Logger the client uses.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Default values for configuration
const (
	DefaultPort            = 6379
	DefaultMaxRetries      = 3
	DefaultDialTimeout     = 5 * time.Second
	DefaultReadTimeout     = 3 * time.Second
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultMinRetryBackoff = 8 * time.Millisecond
	DefaultMaxRetryBackoff = 512 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	return c
}
