package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	traceSpan "go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func newTestTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tr, err := NewClient(Config{ServiceName: "pbcodec-test", AppEnv: "test"}, nil, trace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, exporter
}

func TestStartSpanRecordsAttributesAndErrors(t *testing.T) {
	tr, exporter := newTestTracer(t)

	ctx, parent := tr.StartSpan(context.Background(), "pipeline.process")
	_, child := tr.StartSpan(ctx, "codec.decode")
	tr.SetAttributes(child, map[string]interface{}{
		"pbcodec.class": "Animals.Unicorn",
		"pbcodec.bytes": 12,
		"pbcodec.ok":    false,
		"pbcodec.other": []string{"a"},
	})
	tr.RecordErrorOnSpan(child, errors.New("boom"))
	tr.RecordErrorOnSpan(child, nil)
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	decode := spans[0]
	assert.Equal(t, "codec.decode", decode.Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), decode.Parent.SpanID())
	assert.Equal(t, codes.Error, decode.Status.Code)
	assert.Equal(t, "boom", decode.Status.Description)
	assert.Contains(t, decode.Attributes, attribute.String("pbcodec.class", "Animals.Unicorn"))
	assert.Contains(t, decode.Attributes, attribute.Int("pbcodec.bytes", 12))
	assert.Contains(t, decode.Attributes, attribute.Bool("pbcodec.ok", false))
	assert.Contains(t, decode.Attributes, attribute.String("pbcodec.other", "[a]"))
	require.Len(t, decode.Events, 1)
	assert.Equal(t, "exception", decode.Events[0].Name)
}

func TestCarrierRoundTrip(t *testing.T) {
	tr, _ := newTestTracer(t)

	ctx, span := tr.StartSpan(context.Background(), "produce")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	received := tr.SetCarrierOnContext(context.Background(), carrier)
	remote := traceSpan.SpanContextFromContext(received)
	assert.True(t, remote.IsRemote())
	assert.Equal(t, span.SpanContext().TraceID(), remote.TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), remote.SpanID())
}

func TestCarrierWithoutSpanIsEmpty(t *testing.T) {
	tr, _ := newTestTracer(t)
	assert.Empty(t, tr.GetCarrier(context.Background()))

	ctx := tr.SetCarrierOnContext(context.Background(), map[string]string{})
	assert.False(t, traceSpan.SpanContextFromContext(ctx).IsValid())
}

func TestShutdownNilTracer(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestFXModule(t *testing.T) {
	var tr *Tracer
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config { return Config{ServiceName: "pbcodec-fx"} }),
		fx.Populate(&tr),
	)
	app.RequireStart()
	require.NotNil(t, tr)

	_, span := tr.StartSpan(context.Background(), "fx")
	span.End()
	app.RequireStop()
}
