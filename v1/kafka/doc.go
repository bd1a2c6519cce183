// Package kafka provides functionality for interacting with Apache Kafka.
//
// It wraps github.com/segmentio/kafka-go with a small publish/consume API and
// pluggable Serializer/Deserializer hooks. The codec package plugs in as both,
// so records go onto the wire as protobuf and come back as records.
//
// Core Features:
//   - Producer or consumer per client, chosen by Config.IsConsumer
//   - Parallel consumer workers with manual commits
//   - Headers for distributed tracing propagation
//   - TLS and SASL (PLAIN, SCRAM) support
//   - Error classification into retryable and permanent failures
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/pbcodec/v1/kafka"
//
//	producer, err := kafka.NewClient(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		Topic:   "unicorns",
//	})
//	if err != nil {
//		return err
//	}
//	defer producer.GracefulShutdown()
//	producer.SetSerializer(unicornCodec)
//
//	err = producer.Publish(ctx, "pinkie", transcode.Record{"name": "Pinkie"})
//
//	consumer, err := kafka.NewClient(kafka.Config{
//		Brokers:    []string{"localhost:9092"},
//		Topic:      "unicorns",
//		GroupID:    "stable",
//		IsConsumer: true,
//	})
//	consumer.SetDeserializer(unicornCodec)
//
//	wg := &sync.WaitGroup{}
//	for msg := range consumer.Consume(ctx, wg) {
//		var rec transcode.Record
//		if err := msg.BodyAs(&rec); err != nil {
//			continue
//		}
//		_ = msg.CommitMsg()
//	}
//
// FX Integration:
//
//	app := fx.New(
//		kafka.FXModule,
//		fx.Provide(func() kafka.Config { return cfg }),
//	)
//
// Thread Safety:
//
// All methods on KafkaClient are safe for concurrent use.
package kafka
