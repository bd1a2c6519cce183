package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

const (
	heartbeat      = 2 * time.Second
	reconnectDelay = time.Second
)

// RabbitClient manages a connection and channel to RabbitMQ and provides
// publishing with confirms and consuming with manual acknowledgement,
// reconnecting when the connection drops.
//
// RabbitClient implements the Client interface.
type RabbitClient struct {
	cfg Config

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	logger Logger

	conn *amqp.Connection

	// channel is nil after shutdown
	channel amqpChannel

	// mu protects conn and channel across reconnects
	mu sync.RWMutex

	// shutdownSignal is closed when the client is being shut down
	shutdownSignal chan struct{}

	closeShutdownOnce sync.Once
}

// NewClient connects to RabbitMQ and declares the exchange, queues and
// bindings a consumer needs.
//
// Example:
//
//	client, err := rabbit.NewClient(config)
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
func NewClient(cfg Config) (*RabbitClient, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	conn, err := newConnection(cfg)
	if err != nil {
		return nil, err
	}

	ch, err := connectToChannel(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitClient{
		cfg:            cfg,
		conn:           conn,
		channel:        ch,
		shutdownSignal: make(chan struct{}),
	}, nil
}

func validate(cfg Config) error {
	if cfg.Connection.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if cfg.Channel.IsConsumer && cfg.Channel.QueueName == "" {
		return fmt.Errorf("%w: consumers need a queue name", ErrInvalidConfig)
	}
	if cfg.DeadLetter.ExchangeName != "" && cfg.DeadLetter.QueueName == "" {
		return fmt.Errorf("%w: dead-letter exchange needs a queue name", ErrInvalidConfig)
	}
	return nil
}

// WithObserver attaches an observer and returns the client for chaining.
func (rb *RabbitClient) WithObserver(observer observability.Observer) *RabbitClient {
	rb.observer = observer
	return rb
}

// WithLogger attaches a logger and returns the client for chaining.
func (rb *RabbitClient) WithLogger(logger Logger) *RabbitClient {
	rb.logger = logger
	return rb
}

// connectToChannel opens a channel in confirm mode. For consumers it also
// declares the exchange, the dead-letter exchange and queue when configured,
// the main queue and its binding, and applies the prefetch limit.
func connectToChannel(conn *amqp.Connection, cfg Config) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if !cfg.Channel.IsConsumer {
		return ch, nil
	}

	err = ch.ExchangeDeclare(
		cfg.Channel.ExchangeName,
		cfg.Channel.ExchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queueArgs := amqp.Table{}
	if cfg.DeadLetter.ExchangeName != "" {
		if err = declareDeadLetter(ch, cfg.DeadLetter); err != nil {
			return nil, err
		}
		queueArgs["x-dead-letter-exchange"] = cfg.DeadLetter.ExchangeName
		queueArgs["x-dead-letter-routing-key"] = cfg.DeadLetter.RoutingKey
		if cfg.DeadLetter.Ttl > 0 {
			queueArgs["x-message-ttl"] = cfg.DeadLetter.Ttl * 1000
		}
	}

	_, err = ch.QueueDeclare(
		cfg.Channel.QueueName,
		true,  // Durable
		false, // AutoDelete
		false, // Exclusive
		false, // NoWait
		queueArgs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(cfg.Channel.QueueName, cfg.Channel.RoutingKey, cfg.Channel.ExchangeName, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if cfg.Channel.PrefetchCount > 0 {
		if err = ch.Qos(cfg.Channel.PrefetchCount, 0, false); err != nil {
			return nil, fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	return ch, nil
}

func declareDeadLetter(ch *amqp.Channel, cfg DeadLetter) error {
	if err := ch.ExchangeDeclare(cfg.ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}
	if err := ch.QueueBind(cfg.QueueName, cfg.RoutingKey, cfg.ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue: %w", err)
	}
	return nil
}

// RetryConnection watches the connection and re-establishes it together
// with the channel topology whenever it closes. It returns once
// GracefulShutdown is called.
func (rb *RabbitClient) RetryConnection(cfg Config) {
	cfg = cfg.withDefaults()
	ctx := context.Background()

	for {
		rb.mu.RLock()
		conn := rb.conn
		rb.mu.RUnlock()
		if conn == nil {
			return
		}

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rb.shutdownSignal:
			rb.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case amqpErr := <-closed:
			var err error
			if amqpErr != nil {
				err = amqpErr
			}
			rb.logWarn(ctx, "RabbitMQ connection closed, reconnecting", err, nil)
		}

		if !rb.reconnect(ctx, cfg) {
			return
		}
	}
}

// reconnect dials until it succeeds or the client shuts down, reporting
// whether it succeeded.
func (rb *RabbitClient) reconnect(ctx context.Context, cfg Config) bool {
	for {
		select {
		case <-rb.shutdownSignal:
			rb.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return false
		default:
		}

		conn, err := newConnection(cfg)
		if err != nil {
			rb.logError(ctx, "RabbitMQ reconnection failed", err, nil)
			rb.sleep(reconnectDelay)
			continue
		}
		ch, err := connectToChannel(conn, cfg)
		if err != nil {
			_ = conn.Close()
			rb.logError(ctx, "Failed to re-establish RabbitMQ channel", err, nil)
			rb.sleep(reconnectDelay)
			continue
		}

		rb.mu.Lock()
		if rb.channel != nil {
			_ = rb.channel.Close()
		}
		rb.conn, rb.channel = conn, ch
		rb.mu.Unlock()

		rb.logInfo(ctx, "Successfully reconnected to RabbitMQ", nil)
		return true
	}
}

func (rb *RabbitClient) sleep(d time.Duration) {
	select {
	case <-rb.shutdownSignal:
	case <-time.After(d):
	}
}

// GracefulShutdown stops consumers and the reconnect loop and closes the
// channel and connection. Errors while closing are logged, not returned.
func (rb *RabbitClient) GracefulShutdown() {
	rb.closeShutdownOnce.Do(func() {
		close(rb.shutdownSignal)
	})

	rb.mu.Lock()
	defer rb.mu.Unlock()

	ctx := context.Background()
	rb.logInfo(ctx, "Shutting down RabbitMQ client", nil)

	if rb.channel != nil {
		if err := rb.channel.Close(); err != nil {
			rb.logWarn(ctx, "Failed to close rabbit channel", err, nil)
		}
		rb.channel = nil
	}
	if rb.conn != nil && !rb.conn.IsClosed() {
		if err := rb.conn.Close(); err != nil {
			rb.logWarn(ctx, "Failed to close rabbit connection", err, nil)
		}
	}
	rb.conn = nil
}

// newConnection dials RabbitMQ over amqp or amqps, with a client
// certificate when configured.
func newConnection(cfg Config) (*amqp.Connection, error) {
	amqpCfg := amqp.Config{Heartbeat: heartbeat}
	if cfg.Connection.IsSSLEnabled {
		tlsConfig, err := createTLSConfig(cfg.Connection)
		if err != nil {
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	conn, err := amqp.DialConfig(amqpURL(cfg.Connection), amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return conn, nil
}

func amqpURL(c Connection) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10)),
	}
	if c.IsSSLEnabled {
		u.Scheme = "amqps"
	}
	if c.VirtualHost != "" {
		u.Path = "/" + c.VirtualHost
		u.RawPath = "/" + url.PathEscape(c.VirtualHost)
	}
	return u.String()
}

func createTLSConfig(c Connection) (*tls.Config, error) {
	tlsConfig := &tls.Config{ServerName: c.ServerName}

	if c.CACertPath != "" {
		caCert, err := os.ReadFile(c.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidConfig, c.CACertPath)
		}
		tlsConfig.RootCAs = pool
	}

	if c.UseCert {
		cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func (rb *RabbitClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (rb *RabbitClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (rb *RabbitClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
