// Package tracer provides OpenTelemetry tracing for the codec and the kafka
// pipeline.
//
// It wraps an sdk TracerProvider, optionally exporting spans over OTLP HTTP,
// and offers helpers to start spans, record errors and attributes, and move
// W3C trace context in and out of string maps such as kafka message headers.
//
// Basic usage:
//
//	tracerClient, err := tracer.NewClient(tracer.Config{ServiceName: "pbcodec"}, log)
//	if err != nil {
//	    return err
//	}
//	defer tracerClient.Shutdown(context.Background())
//
//	ctx, span := tracerClient.StartSpan(ctx, "codec.decode")
//	defer span.End()
//
// Propagation across a message boundary:
//
//	carrier := tracerClient.GetCarrier(ctx)           // producer side
//	ctx = tracerClient.SetCarrierOnContext(ctx, carrier) // consumer side
//
// With fx, include tracer.FXModule and provide a tracer.Config; pending spans
// are flushed when the application stops.
package tracer
