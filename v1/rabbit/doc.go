// Package rabbit provides a RabbitMQ client for moving encoded records
// through AMQP exchanges and queues.
//
// It is the alternative to the kafka package for pipelines whose input or
// output lives on RabbitMQ. Publishing waits for publisher confirms.
// Consumed messages are acknowledged manually, and messages rejected with
// NackMsg(false) are routed to the dead-letter exchange when one is
// configured.
//
// Basic usage:
//
//	client, err := rabbit.NewClient(rabbit.Config{
//	    Connection: rabbit.Connection{Host: "localhost", User: "guest", Password: "guest"},
//	    Channel: rabbit.Channel{
//	        ExchangeName: "unicorns",
//	        RoutingKey:   "stable",
//	        QueueName:    "unicorns.stable",
//	        IsConsumer:   true,
//	    },
//	    DeadLetter: rabbit.DeadLetter{
//	        ExchangeName: "unicorns.dlx",
//	        QueueName:    "unicorns.dlq",
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.GracefulShutdown()
//
//	if err := client.Publish(ctx, payload, map[string]interface{}{"origin": "stable"}); err != nil {
//	    return client.TranslateError(err)
//	}
//
// With fx, include FXModule and provide a rabbit.Config; the module keeps
// the connection alive and reconnects when the broker drops it.
package rabbit
