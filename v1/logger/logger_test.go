package logger

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(tracing bool) (*LoggerClient, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &LoggerClient{Zap: zap.New(core), tracingEnabled: tracing}, logs
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContextAddsTraceFields(t *testing.T) {
	log, logs := newObservedLogger(true)

	log.InfoWithContext(spanContext(t), "decoded", nil, map[string]interface{}{"topic": "orders"})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "orders", fields["topic"])
}

func TestWithContextTracingDisabled(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.WarnWithContext(spanContext(t), "slow resolve", nil)

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
}

func TestWithContextWithoutSpan(t *testing.T) {
	log, logs := newObservedLogger(true)

	log.ErrorWithContext(context.Background(), "encode failed", errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "boom", entry.ContextMap()["error"])
	assert.NotContains(t, entry.ContextMap(), "span_id")
}

func TestLaterFieldMapsOverrideEarlier(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.Debug("merge", nil, map[string]interface{}{"k": 1}, map[string]interface{}{"k": 2})

	require.Equal(t, 1, logs.Len())
	assert.EqualValues(t, 2, logs.All()[0].ContextMap()["k"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		Debug:         zapcore.DebugLevel,
		"development": zapcore.DebugLevel,
		Info:          zapcore.InfoLevel,
		Warning:       zapcore.WarnLevel,
		"WARN":        zapcore.WarnLevel,
		Error:         zapcore.ErrorLevel,
		"":            zapcore.InfoLevel,
		"verbose":     zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestZapConfig(t *testing.T) {
	cfg := zapConfig(Config{Level: Debug, ServiceName: "pbcodec"})
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, "pbcodec", cfg.InitialFields["service"])

	console := zapConfig(Config{Encoding: "console", OutputPaths: []string{"stdout"}})
	assert.Equal(t, "console", console.Encoding)
	assert.Equal(t, []string{"stdout"}, console.OutputPaths)
	assert.Equal(t, zapcore.InfoLevel, console.Level.Level())
}

func TestNewLoggerClientWritesToFile(t *testing.T) {
	path := t.TempDir() + "/pbcodec.log"
	client := NewLoggerClient(Config{ServiceName: "pbcodec", OutputPaths: []string{path}})
	client.Info("registered class", nil, map[string]interface{}{"class_name": "Unicorn"})
	require.NoError(t, client.Zap.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"class_name":"Unicorn"`)
	assert.Contains(t, string(data), `"service":"pbcodec"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}
