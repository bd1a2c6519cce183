package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerMessage implements the Message interface and wraps a Kafka message.
type ConsumerMessage struct {
	message      kafka.Message
	reader       messageReader
	deserializer Deserializer
}

// Consume starts consuming messages from the configured topic with one worker.
//
// Example:
//
//	wg := &sync.WaitGroup{}
//	for msg := range kafkaClient.Consume(ctx, wg) {
//	    var rec transcode.Record
//	    if err := msg.BodyAs(&rec); err != nil {
//	        continue
//	    }
//	    _ = msg.CommitMsg()
//	}
func (k *KafkaClient) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return k.ConsumeParallel(ctx, wg, 1)
}

// ConsumeParallel starts consuming with numWorkers goroutines fetching
// concurrently. The returned channel is closed once every worker stopped.
func (k *KafkaClient) ConsumeParallel(ctx context.Context, wg *sync.WaitGroup, numWorkers int) <-chan Message {
	if numWorkers < 1 {
		numWorkers = 1
	}

	outChan := make(chan Message, 100*numWorkers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(outChan)

		workerWg := &sync.WaitGroup{}
		for i := 0; i < numWorkers; i++ {
			workerWg.Add(1)
			go func(workerID int) {
				defer workerWg.Done()
				k.consumeWorker(ctx, outChan, workerID)
			}(i)
		}
		workerWg.Wait()
	}()

	return outChan
}

// consumeWorker fetches messages until ctx ends or the client shuts down.
func (k *KafkaClient) consumeWorker(ctx context.Context, outChan chan<- Message, workerID int) {
	for {
		select {
		case <-k.shutdownSignal:
			k.logInfo(ctx, "Stopping consumer worker due to shutdown signal", map[string]interface{}{
				"worker_id": workerID,
			})
			return
		case <-ctx.Done():
			k.logInfo(ctx, "Stopping consumer worker due to context cancellation", map[string]interface{}{
				"worker_id": workerID,
			})
			return
		default:
		}

		k.mu.RLock()
		reader := k.reader
		deserializer := k.deserializer
		k.mu.RUnlock()

		if reader == nil {
			k.logError(ctx, "Kafka reader is not initialized", ErrReaderNotInitialized, map[string]interface{}{
				"worker_id": workerID,
			})
			return
		}

		start := time.Now()
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			k.observeOperation("consume", k.cfg.Topic, "", time.Since(start), err, 0)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			k.logError(ctx, "Worker failed to fetch message", k.TranslateError(err), map[string]interface{}{
				"worker_id": workerID,
			})
			select {
			case <-k.shutdownSignal:
				return
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		k.observeOperation("consume", k.cfg.Topic, strconv.Itoa(msg.Partition), time.Since(start), nil, int64(len(msg.Value)))

		select {
		case outChan <- &ConsumerMessage{message: msg, reader: reader, deserializer: deserializer}:
		case <-ctx.Done():
			return
		case <-k.shutdownSignal:
			return
		}
	}
}

// Publish sends a message to the configured topic. Headers travel as
// string values, which is how trace carriers are propagated:
//
//	err := kafkaClient.Publish(ctx, "key", record, tracerClient.GetCarrier(ctx))
func (k *KafkaClient) Publish(ctx context.Context, key string, data interface{}, headers ...map[string]interface{}) (err error) {
	start := time.Now()
	var size int64
	defer func() {
		k.observeOperation("produce", k.cfg.Topic, "", time.Since(start), err, size)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.RLock()
	writer := k.writer
	serializer := k.serializer
	k.mu.RUnlock()

	if writer == nil {
		return ErrWriterNotInitialized
	}

	var body []byte
	if raw, ok := data.([]byte); ok {
		body = raw
	} else {
		if serializer == nil {
			return fmt.Errorf("%w: cannot publish %T without a serializer", ErrInvalidMessage, data)
		}
		body, err = serializer.Serialize(data)
		if err != nil {
			return fmt.Errorf("failed to serialize message: %w", err)
		}
	}
	size = int64(len(body))

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
	}
	if len(headers) > 0 {
		msg.Headers = toKafkaHeaders(headers[0])
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return k.TranslateError(err)
	}
	return nil
}

// toKafkaHeaders converts header values to strings, sorted by key so
// messages are reproducible.
func toKafkaHeaders(header map[string]interface{}) []kafka.Header {
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(header))
	for _, key := range keys {
		var value string
		switch v := header[key].(type) {
		case string:
			value = v
		case []byte:
			value = string(v)
		default:
			value = fmt.Sprintf("%v", v)
		}
		out = append(out, kafka.Header{Key: key, Value: []byte(value)})
	}
	return out
}

// Deserialize decodes msg with the client's deserializer.
func (k *KafkaClient) Deserialize(msg Message, target interface{}) error {
	k.mu.RLock()
	deserializer := k.deserializer
	k.mu.RUnlock()

	if deserializer == nil {
		deserializer = BytesDeserializer{}
	}
	return deserializer.Deserialize(msg.Body(), target)
}

// CommitMsg commits the message's offset.
func (cm *ConsumerMessage) CommitMsg() error {
	return cm.reader.CommitMessages(context.Background(), cm.message)
}

// Body returns the message payload as a byte slice.
func (cm *ConsumerMessage) Body() []byte {
	return cm.message.Value
}

// BodyAs deserializes the body into target.
func (cm *ConsumerMessage) BodyAs(target interface{}) error {
	deserializer := cm.deserializer
	if deserializer == nil {
		deserializer = BytesDeserializer{}
	}
	return deserializer.Deserialize(cm.message.Value, target)
}

// Key returns the message key as a string.
func (cm *ConsumerMessage) Key() string {
	return string(cm.message.Key)
}

// Header returns the message headers with string values.
func (cm *ConsumerMessage) Header() map[string]interface{} {
	headers := make(map[string]interface{}, len(cm.message.Headers))
	for _, h := range cm.message.Headers {
		headers[h.Key] = string(h.Value)
	}
	return headers
}

// Partition returns the partition this message came from.
func (cm *ConsumerMessage) Partition() int {
	return cm.message.Partition
}

// Offset returns the offset of this message.
func (cm *ConsumerMessage) Offset() int64 {
	return cm.message.Offset
}
