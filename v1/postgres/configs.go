package postgres

import (
	"context"
	"time"
)

// Config defines the connection and table settings of the dead-letter store.
type Config struct {
	Connection        Connection        `yaml:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details"`

	// DeadLetterTable is created on start when missing.
	// Defaults to "pbcodec_dead_letters".
	DeadLetterTable string `yaml:"dead_letter_table" envconfig:"POSTGRES_DEAD_LETTER_TABLE"`
}

type Connection struct {
	Host     string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port     string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User     string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"POSTGRES_DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"POSTGRES_SSL_MODE"`
}

// ConnectionDetails tunes the connection pool. Zero values pick the
// defaults below.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"POSTGRES_CONN_MAX_LIFETIME"`
}

const (
	defaultPort            = "5432"
	defaultSSLMode         = "disable"
	defaultDeadLetterTable = "pbcodec_dead_letters"
	defaultMaxOpenConns    = 50
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = time.Minute
)

func (cfg Config) withDefaults() Config {
	if cfg.Connection.Port == "" {
		cfg.Connection.Port = defaultPort
	}
	if cfg.Connection.SSLMode == "" {
		cfg.Connection.SSLMode = defaultSSLMode
	}
	if cfg.DeadLetterTable == "" {
		cfg.DeadLetterTable = defaultDeadLetterTable
	}
	if cfg.ConnectionDetails.MaxOpenConns == 0 {
		cfg.ConnectionDetails.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.ConnectionDetails.MaxIdleConns == 0 {
		cfg.ConnectionDetails.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.ConnectionDetails.ConnMaxLifetime == 0 {
		cfg.ConnectionDetails.ConnMaxLifetime = defaultConnMaxLifetime
	}
	return cfg
}

// Logger is the logging surface the store needs; *logger.LoggerClient
// satisfies it.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
