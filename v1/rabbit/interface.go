package rabbit

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client provides a high-level interface for interacting with RabbitMQ.
//
// This interface is implemented by the concrete *RabbitClient type.
type Client interface {
	// Publish sends a message to the configured exchange and routing key and
	// waits for the broker's confirmation.
	Publish(ctx context.Context, msg []byte, headers ...map[string]interface{}) error

	// Consume starts consuming messages from the main queue.
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message

	// ConsumeDLQ starts consuming messages from the dead-letter queue.
	ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message

	// RetryConnection reconnects whenever the connection closes, until
	// GracefulShutdown is called. Run it in a goroutine.
	RetryConnection(cfg Config)

	GracefulShutdown()
}

// Message represents a consumed message from RabbitMQ.
type Message interface {
	// AckMsg acknowledges the message, removing it from the queue.
	AckMsg() error

	// NackMsg negatively acknowledges the message.
	// If requeue is true, the message is requeued; otherwise it goes to the
	// dead-letter exchange when one is configured.
	NackMsg(requeue bool) error

	Body() []byte
	Header() map[string]interface{}
	RoutingKey() string
}

// amqpChannel is the part of *amqp.Channel the client uses.
type amqpChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

var (
	_ Client      = (*RabbitClient)(nil)
	_ Message     = (*ConsumerMessage)(nil)
	_ amqpChannel = (*amqp.Channel)(nil)
)
