package pipeline

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

// Handler transforms one decoded record. Returning a nil record drops the
// message; returning an error skips it.
type Handler func(ctx context.Context, rec transcode.Record) (transcode.Record, error)

// Identity passes records through unchanged.
func Identity(_ context.Context, rec transcode.Record) (transcode.Record, error) {
	return rec, nil
}

// Message is one consumed message, whatever the broker.
type Message interface {
	Key() string
	Body() []byte
	Header() map[string]interface{}

	// Commit marks the message as processed.
	Commit() error
}

// rejecter is implemented by messages the broker can dead-letter itself.
type rejecter interface {
	Reject() error
}

// position is implemented by messages read from a partitioned log.
type position interface {
	Partition() int
	Offset() int64
}

// Source delivers consumed messages until ctx ends, then closes the channel.
// Goroutines it starts are tracked by wg.
type Source interface {
	Messages(ctx context.Context, wg *sync.WaitGroup, workers int) <-chan Message
}

// Sink publishes encoded messages.
type Sink interface {
	Publish(ctx context.Context, key string, data []byte, headers map[string]interface{}) error
}

// Transcoder converts between payloads and records. *codec.Codec implements it.
type Transcoder interface {
	Decode(ctx context.Context, data []byte) (transcode.Record, error)
	Encode(ctx context.Context, rec transcode.Record) ([]byte, error)
}

// DeadLetters keeps messages the pipeline skips. *postgres.Postgres
// implements it.
type DeadLetters interface {
	StoreDeadLetter(ctx context.Context, key string, body []byte, headers map[string]string, cause error) error
}

// Logger is the logging surface the pipeline needs.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
