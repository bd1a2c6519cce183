package pipeline

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/pbcodec/v1/kafka"
	"github.com/Aleph-Alpha/pbcodec/v1/rabbit"
)

// KeyHeader carries the message key over RabbitMQ, which has no key of its
// own.
const KeyHeader = "pbcodec-key"

type kafkaConsumer interface {
	ConsumeParallel(ctx context.Context, wg *sync.WaitGroup, numWorkers int) <-chan kafka.Message
}

type kafkaProducer interface {
	Publish(ctx context.Context, key string, data interface{}, headers ...map[string]interface{}) error
}

type rabbitConsumer interface {
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan rabbit.Message
}

type rabbitProducer interface {
	Publish(ctx context.Context, msg []byte, headers ...map[string]interface{}) error
}

var (
	_ kafkaConsumer  = (*kafka.KafkaClient)(nil)
	_ kafkaProducer  = (*kafka.KafkaClient)(nil)
	_ rabbitConsumer = (*rabbit.RabbitClient)(nil)
	_ rabbitProducer = (*rabbit.RabbitClient)(nil)
)

// KafkaSource reads from a kafka consumer with one fetch worker per
// pipeline worker.
func KafkaSource(client kafkaConsumer) Source {
	return kafkaSource{client: client}
}

type kafkaSource struct {
	client kafkaConsumer
}

func (s kafkaSource) Messages(ctx context.Context, wg *sync.WaitGroup, workers int) <-chan Message {
	return forward(wg, s.client.ConsumeParallel(ctx, wg, workers), func(m kafka.Message) Message {
		return kafkaMessage{Message: m}
	})
}

type kafkaMessage struct {
	kafka.Message
}

func (m kafkaMessage) Commit() error {
	return m.CommitMsg()
}

// KafkaSink publishes to a kafka producer under the record key.
func KafkaSink(client kafkaProducer) Sink {
	return kafkaSink{client: client}
}

type kafkaSink struct {
	client kafkaProducer
}

func (s kafkaSink) Publish(ctx context.Context, key string, data []byte, headers map[string]interface{}) error {
	return s.client.Publish(ctx, key, data, headers)
}

// RabbitSource reads from a RabbitMQ queue. Skipped messages are rejected
// so the broker routes them to its dead-letter exchange.
func RabbitSource(client rabbitConsumer) Source {
	return rabbitSource{client: client}
}

type rabbitSource struct {
	client rabbitConsumer
}

func (s rabbitSource) Messages(ctx context.Context, wg *sync.WaitGroup, _ int) <-chan Message {
	return forward(wg, s.client.Consume(ctx, wg), func(m rabbit.Message) Message {
		return rabbitMessage{Message: m}
	})
}

type rabbitMessage struct {
	rabbit.Message
}

// Key prefers the key a pipeline stored in KeyHeader over the routing key.
func (m rabbitMessage) Key() string {
	if key, ok := m.Header()[KeyHeader].(string); ok {
		return key
	}
	return m.RoutingKey()
}

func (m rabbitMessage) Commit() error {
	return m.AckMsg()
}

func (m rabbitMessage) Reject() error {
	return m.NackMsg(false)
}

// RabbitSink publishes with the client's configured routing key and keeps
// the record key in KeyHeader.
func RabbitSink(client rabbitProducer) Sink {
	return rabbitSink{client: client}
}

type rabbitSink struct {
	client rabbitProducer
}

func (s rabbitSink) Publish(ctx context.Context, key string, data []byte, headers map[string]interface{}) error {
	if key != "" {
		out := make(map[string]interface{}, len(headers)+1)
		for k, v := range headers {
			out[k] = v
		}
		out[KeyHeader] = key
		headers = out
	}
	return s.client.Publish(ctx, data, headers)
}

// forward wraps every message of in until in is closed.
func forward[T any](wg *sync.WaitGroup, in <-chan T, wrap func(T) Message) <-chan Message {
	out := make(chan Message)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)
		for m := range in {
			out <- wrap(m)
		}
	}()
	return out
}
