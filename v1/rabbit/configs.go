package rabbit

import "context"

// Config defines the top-level configuration structure for the RabbitMQ client.
type Config struct {
	// Connection contains the settings needed to establish a connection to the RabbitMQ server
	Connection Connection `yaml:"connection"`

	// Channel contains configuration for exchanges, queues, and message routing
	Channel Channel `yaml:"channel"`

	// DeadLetter contains configuration for the dead-letter exchange and queue
	// receiving messages the consumer rejects
	DeadLetter DeadLetter `yaml:"dead_letter"`
}

// Connection contains the parameters needed to reach a RabbitMQ server,
// including authentication and TLS settings.
type Connection struct {
	Host     string `yaml:"host" envconfig:"RABBITMQ_HOST"`
	Port     uint   `yaml:"port" envconfig:"RABBITMQ_PORT"`
	User     string `yaml:"user" envconfig:"RABBITMQ_USER"`
	Password string `yaml:"password" envconfig:"RABBITMQ_PASSWORD"`

	// VirtualHost is the vhost to open; empty means the default "/"
	VirtualHost string `yaml:"virtual_host" envconfig:"RABBITMQ_VIRTUAL_HOST"`

	// IsSSLEnabled switches to the amqps scheme
	IsSSLEnabled bool `yaml:"is_ssl_enabled" envconfig:"RABBITMQ_SSL_ENABLED"`

	// UseCert sends a client certificate for mutual TLS
	UseCert bool `yaml:"use_cert" envconfig:"RABBITMQ_USE_CERT"`

	CACertPath     string `yaml:"ca_cert_path" envconfig:"RABBITMQ_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBITMQ_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" envconfig:"RABBITMQ_CLIENT_KEY_PATH"`

	// ServerName must match a CN or SAN in the server certificate
	ServerName string `yaml:"server_name" envconfig:"RABBITMQ_SERVER_NAME"`
}

// Channel contains configuration for exchanges, queues and bindings.
type Channel struct {
	// ExchangeName is the exchange to publish to; consumers bind QueueName to it
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBITMQ_EXCHANGE_NAME"`

	// ExchangeType is one of "direct", "fanout", "topic" or "headers"
	ExchangeType string `yaml:"exchange_type" envconfig:"RABBITMQ_EXCHANGE_TYPE"`

	// RoutingKey is used for publishing and for binding the consumer queue
	RoutingKey string `yaml:"routing_key" envconfig:"RABBITMQ_ROUTING_KEY"`

	QueueName string `yaml:"queue_name" envconfig:"RABBITMQ_QUEUE_NAME"`

	// PrefetchCount limits unacknowledged deliveries per consumer; 0 means no limit
	PrefetchCount int `yaml:"prefetch_count" envconfig:"RABBITMQ_PREFETCH_COUNT"`

	// IsConsumer declares the exchange, queue and bindings on connect
	IsConsumer bool `yaml:"is_consumer" envconfig:"RABBITMQ_IS_CONSUMER"`

	// ContentType is set on published messages
	ContentType string `yaml:"content_type" envconfig:"RABBITMQ_CONTENT_TYPE"`
}

// DeadLetter configures where rejected messages go. It is active when
// ExchangeName is set.
type DeadLetter struct {
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBITMQ_DLX_EXCHANGE_NAME"`
	QueueName    string `yaml:"queue_name" envconfig:"RABBITMQ_DLX_QUEUE_NAME"`
	RoutingKey   string `yaml:"routing_key" envconfig:"RABBITMQ_DLX_ROUTING_KEY"`

	// Ttl dead-letters messages left in the main queue longer than this many
	// seconds; 0 means messages never expire
	Ttl int `yaml:"ttl" envconfig:"RABBITMQ_DLX_TTL"`
}

const (
	defaultPort         = 5672
	defaultExchangeType = "direct"
	defaultContentType  = "application/x-protobuf"
)

func (cfg Config) withDefaults() Config {
	if cfg.Connection.Port == 0 {
		cfg.Connection.Port = defaultPort
	}
	if cfg.Channel.ExchangeType == "" {
		cfg.Channel.ExchangeType = defaultExchangeType
	}
	if cfg.Channel.ContentType == "" {
		cfg.Channel.ContentType = defaultContentType
	}
	return cfg
}

// Logger is the logging surface the client needs; *logger.LoggerClient
// satisfies it.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
