package rabbit

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const consumeBuffer = 100

// ConsumerMessage wraps an AMQP delivery.
type ConsumerMessage struct {
	delivery amqp.Delivery
}

// consumeQueue delivers messages from queueName until ctx ends or the client
// shuts down, then closes the returned channel. When the broker closes the
// delivery channel, e.g. during a reconnect, it subscribes again.
func (rb *RabbitClient) consumeQueue(ctx context.Context, wg *sync.WaitGroup, queueName string) <-chan Message {
	outChan := make(chan Message, consumeBuffer)
	fields := map[string]interface{}{"queue": queueName}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(outChan)

		for {
			msgs, err := rb.subscribe(queueName)
			if err != nil {
				rb.logError(ctx, "Failed to establish consumer", err, fields)
				if !rb.wait(ctx, 100*time.Millisecond) {
					return
				}
				continue
			}

			if !rb.forward(ctx, msgs, outChan, queueName) {
				rb.logInfo(ctx, "Stopping consumer", fields)
				return
			}
		}
	}()
	return outChan
}

func (rb *RabbitClient) subscribe(queueName string) (<-chan amqp.Delivery, error) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.channel == nil {
		return nil, ErrChannelClosed
	}
	return rb.channel.Consume(
		queueName,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
}

// forward copies deliveries to out. It returns false when consuming should
// stop and true when msgs was closed by the broker.
func (rb *RabbitClient) forward(ctx context.Context, msgs <-chan amqp.Delivery, out chan<- Message, queueName string) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-rb.shutdownSignal:
			return false
		case d, ok := <-msgs:
			if !ok {
				return true
			}
			rb.observeOperation("consume", queueName, d.RoutingKey, 0, nil, int64(len(d.Body)))

			select {
			case out <- &ConsumerMessage{delivery: d}:
			case <-ctx.Done():
				return false
			case <-rb.shutdownSignal:
				return false
			}
		}
	}
}

// wait sleeps for d and reports whether consuming should go on.
func (rb *RabbitClient) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-rb.shutdownSignal:
		return false
	case <-time.After(d):
		return true
	}
}

// Consume starts consuming messages from the configured queue. Messages must
// be acknowledged with AckMsg or NackMsg.
//
// Example:
//
//	wg := &sync.WaitGroup{}
//	for msg := range client.Consume(ctx, wg) {
//	    if err := handle(msg.Body()); err != nil {
//	        _ = msg.NackMsg(false)
//	        continue
//	    }
//	    _ = msg.AckMsg()
//	}
//	wg.Wait()
func (rb *RabbitClient) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return rb.consumeQueue(ctx, wg, rb.cfg.Channel.QueueName)
}

// ConsumeDLQ starts consuming messages from the dead-letter queue. The
// returned channel is closed right away when no dead-letter queue is
// configured.
func (rb *RabbitClient) ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	if rb.cfg.DeadLetter.QueueName == "" {
		rb.logWarn(ctx, "No dead letter queue configured", nil, nil)
		out := make(chan Message)
		close(out)
		return out
	}
	return rb.consumeQueue(ctx, wg, rb.cfg.DeadLetter.QueueName)
}

// Publish sends msg to the configured exchange and routing key and waits
// for the broker to confirm it. The first headers map, if any, becomes the
// message headers; use it to carry trace context.
func (rb *RabbitClient) Publish(ctx context.Context, msg []byte, headers ...map[string]interface{}) (err error) {
	start := time.Now()
	defer func() {
		rb.observeOperation("produce", rb.cfg.Channel.ExchangeName, rb.cfg.Channel.RoutingKey, time.Since(start), err, int64(len(msg)))
	}()

	rb.mu.RLock()
	ch := rb.channel
	rb.mu.RUnlock()
	if ch == nil {
		return ErrChannelClosed
	}

	var table amqp.Table
	if len(headers) > 0 && len(headers[0]) > 0 {
		table = amqp.Table(headers[0])
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		rb.cfg.Channel.ExchangeName,
		rb.cfg.Channel.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			Headers:      table,
			ContentType:  rb.cfg.Channel.ContentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         msg,
		},
	)
	if err != nil {
		return rb.TranslateError(err)
	}
	// nil when the channel is not in confirm mode
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// AckMsg acknowledges the message, removing it from the queue.
func (m *ConsumerMessage) AckMsg() error {
	return m.delivery.Ack(false)
}

// NackMsg rejects the message. If requeue is false the broker dead-letters
// or drops it.
func (m *ConsumerMessage) NackMsg(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

func (m *ConsumerMessage) Body() []byte {
	return m.delivery.Body
}

func (m *ConsumerMessage) Header() map[string]interface{} {
	return m.delivery.Headers
}

// RoutingKey returns the key the message was published with.
func (m *ConsumerMessage) RoutingKey() string {
	return m.delivery.RoutingKey
}
