// Package pipeline connects a message broker and the codec: it consumes
// protobuf messages, decodes them into records, hands each record to a
// Handler, encodes the result and publishes it.
//
// Input and output are kafka or RabbitMQ clients wrapped with KafkaSource,
// KafkaSink, RabbitSource and RabbitSink:
//
//	p, err := pipeline.New(pipeline.Config{Workers: 4},
//	    pipeline.KafkaSource(input), pipeline.RabbitSink(output), unicornCodec, addHorn,
//	    pipeline.WithLogger(log),
//	    pipeline.WithTracer(tracerClient),
//	    pipeline.WithObserver(metricsClient),
//	)
//	if err != nil {
//	    return err
//	}
//	return p.Run(ctx)
//
// Every message ends in one outcome:
//
//   - published: the handler's record was encoded, published and the input committed
//   - filtered: the handler returned nil; the input is committed
//   - skipped: decoding, handling or encoding failed; the error is logged and
//     the message is stored in the dead-letter store if one is configured, or
//     rejected to the broker's dead-letter exchange, or committed, so a poison
//     message cannot stall its input
//   - failed: publishing, or storing the dead letter, failed; the input is not
//     committed
//
// Trace context travels in message headers: with a tracer, the span of each
// message continues the trace found in its input headers and its context is
// written into the output headers.
package pipeline
