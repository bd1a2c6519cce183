package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Client provides a high-level interface for interacting with Apache Kafka.
//
// This interface is implemented by the concrete *KafkaClient type.
type Client interface {
	// Publish sends a single message with the specified key. data is passed
	// through the configured Serializer unless it already is a []byte.
	Publish(ctx context.Context, key string, data interface{}, headers ...map[string]interface{}) error

	// Consume starts consuming messages from Kafka with a single worker.
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message

	// ConsumeParallel starts consuming messages with multiple concurrent workers.
	ConsumeParallel(ctx context.Context, wg *sync.WaitGroup, numWorkers int) <-chan Message

	// Deserialize converts a Message into target using the configured deserializer.
	Deserialize(msg Message, target interface{}) error

	SetSerializer(s Serializer)
	SetDeserializer(d Deserializer)

	// TranslateError maps broker errors onto the package sentinels.
	TranslateError(err error) error
	IsRetryableError(err error) bool
	IsPermanentError(err error) bool
	IsAuthenticationError(err error) bool

	// GracefulShutdown closes all Kafka connections cleanly.
	GracefulShutdown()
}

// Message is one consumed record.
type Message interface {
	// CommitMsg marks the message as processed.
	CommitMsg() error

	// Body returns the message payload as a byte slice.
	Body() []byte

	// BodyAs deserializes the body into target with the client's deserializer.
	BodyAs(target interface{}) error

	Key() string
	Header() map[string]interface{}
	Partition() int
	Offset() int64
}

// messageReader is the part of *kafka.Reader the client uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the client uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ Client        = (*KafkaClient)(nil)
	_ messageReader = (*kafka.Reader)(nil)
	_ messageWriter = (*kafka.Writer)(nil)
)
