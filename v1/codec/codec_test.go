package codec

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testschema"
	"github.com/Aleph-Alpha/pbcodec/v1/logger"
	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/schema"
	"github.com/Aleph-Alpha/pbcodec/v1/schema_registry"
	"github.com/Aleph-Alpha/pbcodec/v1/tracer"
	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]observability.OperationContext, len(t.operations))
	copy(out, t.operations)
	return out
}

// fakeSchemaRegistry answers GetLatestSchema from a subject → id map.
type fakeSchemaRegistry struct {
	ids map[string]int
}

func (f *fakeSchemaRegistry) GetSchemaByID(context.Context, int) (string, error) {
	return "", schema_registry.ErrSubjectNotFound
}

func (f *fakeSchemaRegistry) GetLatestSchema(_ context.Context, subject string) (*schema_registry.Metadata, error) {
	id, ok := f.ids[subject]
	if !ok {
		return nil, schema_registry.ErrSubjectNotFound
	}
	return &schema_registry.Metadata{ID: id, Subject: subject, Version: 1, Type: schema_registry.SchemaTypeProtobuf}, nil
}

func (f *fakeSchemaRegistry) RegisterSchema(context.Context, string, string, string) (int, error) {
	return 0, schema_registry.ErrRegistryUnavailable
}

func (f *fakeSchemaRegistry) CheckCompatibility(context.Context, string, string, string) (bool, error) {
	return false, schema_registry.ErrRegistryUnavailable
}

func newTestRegistry() *schema.Registry {
	return schema.NewRegistry(schema.WithPool(schema.NewPool()))
}

func unicornConfig(t *testing.T) Config {
	t.Helper()
	path, err := testschema.WriteSet(t.TempDir(), "unicorn.pb", testschema.Unicorn())
	require.NoError(t, err)
	return Config{
		ClassName: "Unicorn",
		Locations: schema.Locations{IncludePath: []string{path}},
	}
}

func newRegisteredCodec(t *testing.T, cfg Config, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(cfg, nil, newTestRegistry(), opts...)
	require.NoError(t, err)
	require.NoError(t, c.Register(context.Background()))
	return c
}

func defaultUnicorn(overrides transcode.Record) transcode.Record {
	rec := transcode.Record{
		"name":              "",
		"age":               int64(0),
		"fur_colour":        "BLACK",
		"height":            float64(0),
		"weight":            float64(0),
		"is_pegasus":        false,
		"favourite_numbers": []interface{}{},
		"favourite_colours": []interface{}{},
		"mother":            transcode.Record{},
		"father":            transcode.Record{},
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}

func TestCodecRoundTrip(t *testing.T) {
	c := newRegisteredCodec(t, unicornConfig(t))
	ctx := context.Background()

	data, err := c.Encode(ctx, transcode.Record{
		"@timestamp":        "2024-01-01T00:00:00Z",
		"name":              "Horst",
		"age":               23,
		"is_pegasus":        true,
		"fur_colour":        "PINK",
		"favourite_numbers": []interface{}{1, 2, 3},
		"favourite_colours": []interface{}{1, "WHITE"},
		"mother":            map[string]interface{}{"name": "Mom", "age": 47},
		"father":            map[string]interface{}{"name": "Daddy", "age": 50, "fur_colour": 3},
		"height":            6.3,
		"weight":            100.5,
	})
	require.NoError(t, err)

	rec, err := c.Decode(ctx, data)
	require.NoError(t, err)

	want := defaultUnicorn(transcode.Record{
		"name":              "Horst",
		"age":               int64(23),
		"is_pegasus":        true,
		"fur_colour":        "PINK",
		"favourite_numbers": []interface{}{int64(1), int64(2), int64(3)},
		"favourite_colours": []interface{}{"BLUE", "WHITE"},
		"mother":            defaultUnicorn(transcode.Record{"name": "Mom", "age": int64(47)}),
		"father":            defaultUnicorn(transcode.Record{"name": "Daddy", "age": int64(50), "fur_colour": "SILVER"}),
		"height":            6.3,
		"weight":            100.5,
	})
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("decoded record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "SILVER", rec.Get("father.fur_colour"))
	assert.False(t, c.Reloadable())
}

func TestCodecClassFileAutoLoadsDependencies(t *testing.T) {
	dir := t.TempDir()
	_, err := testschema.WriteSet(dir, "header.pb", testschema.Header())
	require.NoError(t, err)
	_, err = testschema.WriteSet(dir, "messageA.pb", testschema.MessageA())
	require.NoError(t, err)

	c := newRegisteredCodec(t, Config{
		ClassName: "A.MessageA",
		Locations: schema.Locations{ClassFile: "messageA.pb", RootDirectory: dir},
	})

	ctx := context.Background()
	data, err := c.Encode(ctx, transcode.Record{
		"name":   "Test name",
		"header": transcode.Record{"name": map[string]interface{}{"a": "b"}},
	})
	require.NoError(t, err)

	rec, err := c.Decode(ctx, data)
	require.NoError(t, err)
	want := transcode.Record{
		"name":   "Test name",
		"header": transcode.Record{"name": transcode.Record{"a": "b"}},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("decoded record mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	registry := newTestRegistry()
	c, err := NewCodec(unicornConfig(t), nil, registry)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Register(ctx))
	first := c.Class()
	require.NoError(t, c.Register(ctx))
	require.NoError(t, c.Register(ctx))

	assert.Same(t, first, c.Class())
	cached, ok := registry.Lookup(c.Scope(), "Unicorn")
	require.True(t, ok)
	assert.Same(t, first, cached)
}

func TestRegisterConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		message string
	}{
		{
			name: "both locations",
			cfg: Config{ClassName: "Unicorn", Locations: schema.Locations{
				IncludePath: []string{"unicorn.pb"}, ClassFile: "unicorn.pb", RootDirectory: "/schemas",
			}},
			message: "`include_path` and `class_file`",
		},
		{
			name:    "no location",
			cfg:     Config{ClassName: "Unicorn"},
			message: "`include_path` or `class_file`",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.cfg, nil, newTestRegistry())
			require.NoError(t, err)

			err = c.Register(context.Background())
			require.ErrorIs(t, err, schema.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.message)

			_, err = c.Decode(context.Background(), nil)
			assert.ErrorIs(t, err, ErrNotRegistered)
		})
	}
}

func TestNewCodecRejectsBadOptions(t *testing.T) {
	_, err := NewCodec(Config{ClassName: "Unicorn", EnumPolicy: "lenient"}, nil, nil)
	assert.ErrorIs(t, err, schema.ErrConfiguration)

	_, err = NewCodec(Config{ClassName: "Unicorn", MaxDepth: -1}, nil, nil)
	assert.ErrorIs(t, err, schema.ErrConfiguration)

	_, err = NewCodec(Config{ClassName: "Unicorn", Framing: FramingConfig{Enabled: true, SchemaID: -3}}, nil, nil)
	assert.ErrorIs(t, err, schema.ErrConfiguration)
}

func TestCodecDefaultScopeIsUnique(t *testing.T) {
	a, err := NewCodec(Config{ClassName: "Unicorn"}, nil, nil)
	require.NoError(t, err)
	b, err := NewCodec(Config{ClassName: "Unicorn"}, nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Scope(), b.Scope())
	_, err = uuid.Parse(a.Scope())
	assert.NoError(t, err)

	c, err := NewCodec(Config{ClassName: "Unicorn", Scope: "pipeline-main"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "pipeline-main", c.Scope())
}

func TestCodecEvents(t *testing.T) {
	c := newRegisteredCodec(t, unicornConfig(t))
	ctx := context.Background()

	source := MapEvent{"name": "Pinkie", "fur_colour": "PINK", "@version": "1"}
	assert.Equal(t, []string{"@version", "fur_colour", "name"}, source.Fields())

	data, err := c.EncodeFrom(ctx, source)
	require.NoError(t, err)

	ev := MapEvent{"@timestamp": "now"}
	require.NoError(t, c.DecodeTo(ctx, data, ev))
	assert.Equal(t, "Pinkie", ev.Get("name"))
	assert.Equal(t, "PINK", ev.Get("fur_colour"))
	assert.Equal(t, int64(0), ev.Get("age"))
	assert.Equal(t, "now", ev.Get("@timestamp"))
	assert.Nil(t, ev.Get("@version"))
}

func TestCodecEnumPolicy(t *testing.T) {
	cfg := unicornConfig(t)
	ctx := context.Background()

	passCfg := cfg
	passCfg.EnumPolicy = "passthrough"
	pass := newRegisteredCodec(t, passCfg)

	data, err := pass.Encode(ctx, transcode.Record{"fur_colour": 99})
	require.NoError(t, err)

	rec, err := pass.Decode(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, int64(99), rec["fur_colour"])

	strict := newRegisteredCodec(t, cfg)
	_, err = strict.Decode(ctx, data)
	assert.ErrorIs(t, err, transcode.ErrUnknownEnumValue)

	_, err = strict.Encode(ctx, transcode.Record{"fur_colour": "RAINBOW"})
	assert.ErrorIs(t, err, transcode.ErrUnknownEnumValue)
}

func TestCodecFraming(t *testing.T) {
	cfg := unicornConfig(t)
	cfg.Framing = FramingConfig{Enabled: true, SchemaID: 42}
	c := newRegisteredCodec(t, cfg)
	ctx := context.Background()

	data, err := c.Encode(ctx, transcode.Record{"name": "Pinkie"})
	require.NoError(t, err)
	require.Greater(t, len(data), 6)
	assert.Equal(t, byte(0), data[0])
	assert.Equal(t, uint32(42), binary.BigEndian.Uint32(data[1:5]))
	assert.Equal(t, byte(0), data[5], "single message index [0] is written as one zero byte")

	rec, err := c.Decode(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "Pinkie", rec["name"])

	plain := newRegisteredCodec(t, unicornConfig(t))
	unframed, err := plain.Encode(ctx, transcode.Record{"name": "Pinkie"})
	require.NoError(t, err)
	_, err = c.Decode(ctx, unframed)
	assert.ErrorIs(t, err, transcode.ErrDecode)

	other := append(schema_registry.EncodeProtobufHeader(42, []int{1}), data[6:]...)
	_, err = c.Decode(ctx, other)
	assert.ErrorIs(t, err, transcode.ErrDecode)
}

func TestCodecFramingBySubject(t *testing.T) {
	cfg := unicornConfig(t)
	cfg.Framing = FramingConfig{Enabled: true, Subject: "unicorns-value"}
	ctx := context.Background()

	c, err := NewCodec(cfg, nil, newTestRegistry(),
		WithSchemaRegistry(&fakeSchemaRegistry{ids: map[string]int{"unicorns-value": 7}}))
	require.NoError(t, err)
	require.NoError(t, c.Register(ctx))

	data, err := c.Encode(ctx, transcode.Record{"name": "Pinkie"})
	require.NoError(t, err)
	id, indexes, _, err := schema_registry.DecodeProtobufHeader(data)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.Equal(t, []int{0}, indexes)

	missing, err := NewCodec(cfg, nil, newTestRegistry(), WithSchemaRegistry(&fakeSchemaRegistry{}))
	require.NoError(t, err)
	assert.ErrorIs(t, missing.Register(ctx), schema_registry.ErrSubjectNotFound)

	noClient, err := NewCodec(cfg, nil, newTestRegistry())
	require.NoError(t, err)
	assert.ErrorIs(t, noClient.Register(ctx), schema.ErrConfiguration)
}

func TestCodecKafkaSerialization(t *testing.T) {
	c := newRegisteredCodec(t, unicornConfig(t))

	fromRecord, err := c.Serialize(transcode.Record{"name": "Pinkie"})
	require.NoError(t, err)
	fromMap, err := c.Serialize(map[string]interface{}{"name": "Pinkie"})
	require.NoError(t, err)
	fromEvent, err := c.Serialize(MapEvent{"name": "Pinkie"})
	require.NoError(t, err)
	assert.Equal(t, fromRecord, fromMap)
	assert.Equal(t, fromRecord, fromEvent)

	_, err = c.Serialize(42)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	var rec transcode.Record
	require.NoError(t, c.Deserialize(fromRecord, &rec))
	assert.Equal(t, "Pinkie", rec["name"])

	var m map[string]interface{}
	require.NoError(t, c.Deserialize(fromRecord, &m))
	assert.Equal(t, "Pinkie", m["name"])

	ev := MapEvent{}
	require.NoError(t, c.Deserialize(fromRecord, ev))
	assert.Equal(t, "Pinkie", ev["name"])

	var s string
	assert.ErrorIs(t, c.Deserialize(fromRecord, &s), ErrUnsupportedType)
}

func TestCodecCloseReleasesScope(t *testing.T) {
	registry := newTestRegistry()
	c, err := NewCodec(unicornConfig(t), nil, registry)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Register(ctx))

	c.Close()
	_, ok := registry.Lookup(c.Scope(), "Unicorn")
	assert.False(t, ok)
	_, err = c.Encode(ctx, transcode.Record{})
	assert.ErrorIs(t, err, ErrNotRegistered)

	require.NoError(t, c.Register(ctx))
	_, err = c.Encode(ctx, transcode.Record{})
	assert.NoError(t, err)
}

func TestCodecCloseKeepsSharedScope(t *testing.T) {
	registry := newTestRegistry()
	ctx := context.Background()

	unicornCfg := unicornConfig(t)
	unicornCfg.Scope = "pipeline-1"
	results, err := testschema.WriteSet(t.TempDir(), "results.pb", testschema.ProbeResult())
	require.NoError(t, err)
	resultsCfg := Config{
		ClassName: "ProbeResult",
		Locations: schema.Locations{IncludePath: []string{results}},
		Scope:     "pipeline-1",
	}

	unicorn, err := NewCodec(unicornCfg, nil, registry)
	require.NoError(t, err)
	require.NoError(t, unicorn.Register(ctx))
	other, err := NewCodec(resultsCfg, nil, registry)
	require.NoError(t, err)
	require.NoError(t, other.Register(ctx))

	unicorn.Close()
	_, ok := registry.Lookup("pipeline-1", "ProbeResult")
	assert.True(t, ok)
	_, ok = registry.Lookup("pipeline-1", "Unicorn")
	assert.False(t, ok)

	_, err = other.Encode(ctx, transcode.Record{"UUID": "abc"})
	assert.NoError(t, err)
}

func TestCodecConcurrentUse(t *testing.T) {
	c := newRegisteredCodec(t, unicornConfig(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(age int) {
			defer wg.Done()
			data, err := c.Encode(ctx, transcode.Record{"age": age})
			if err != nil {
				errs <- err
				return
			}
			rec, err := c.Decode(ctx, data)
			if err != nil {
				errs <- err
				return
			}
			if rec["age"] != int64(age) {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCodecLogsAndObserves(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewMockLogger(ctrl)
	obs := &TestObserver{}

	cfg := unicornConfig(t)
	cfg.Scope = "pipeline-1"
	c, err := NewCodec(cfg, log, newTestRegistry(), WithObserver(obs))
	require.NoError(t, err)

	ctx := context.Background()
	log.EXPECT().InfoWithContext(gomock.Any(), "codec registered", nil, gomock.Any()).Times(1)
	require.NoError(t, c.Register(ctx))

	log.EXPECT().ErrorWithContext(gomock.Any(), "failed to decode message", gomock.Any(), gomock.Any()).Times(1)
	_, err = c.Decode(ctx, []byte{0x0a, 0x05, 'P', 'i'})
	require.ErrorIs(t, err, transcode.ErrDecode)

	data, err := c.Encode(ctx, transcode.Record{"name": "Pi"})
	require.NoError(t, err)
	_, err = c.Decode(ctx, data)
	require.NoError(t, err)

	ops := obs.GetOperations()
	require.Len(t, ops, 3)
	assert.Equal(t, "codec", ops[0].Component)
	assert.Equal(t, "decode", ops[0].Operation)
	assert.Equal(t, "Unicorn", ops[0].Resource)
	assert.Equal(t, "pipeline-1", ops[0].SubResource)
	assert.Error(t, ops[0].Error)
	assert.Equal(t, "encode", ops[1].Operation)
	assert.Equal(t, int64(len(data)), ops[1].Size)
	assert.NoError(t, ops[2].Error)
}

func TestCodecTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tr, err := tracer.NewClient(tracer.Config{ServiceName: "codec-test"}, nil, trace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	c := newRegisteredCodec(t, unicornConfig(t), WithTracer(tr))
	ctx := context.Background()

	data, err := c.Encode(ctx, transcode.Record{"name": "Pinkie"})
	require.NoError(t, err)
	_, err = c.Decode(ctx, data)
	require.NoError(t, err)
	_, err = c.Decode(ctx, []byte{0xff})
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "codec.encode", spans[0].Name)
	assert.Equal(t, "codec.decode", spans[1].Name)
	assert.Contains(t, spans[1].Attributes, attribute.String("pbcodec.class", "Unicorn"))
	assert.Contains(t, spans[1].Attributes, attribute.Int("pbcodec.bytes", len(data)))
	assert.Equal(t, "Error", spans[2].Status.Code.String())
}

func TestNewCodecWithFX(t *testing.T) {
	cfg := unicornConfig(t)
	registry := newTestRegistry()

	var c *Codec
	app := fxtest.New(t,
		FXModule,
		fx.Provide(
			func() Config { return cfg },
			func() *schema.Registry { return registry },
		),
		fx.Populate(&c),
	)
	app.RequireStart()

	data, err := c.Encode(context.Background(), transcode.Record{"name": "Pinkie"})
	require.NoError(t, err)
	rec, err := c.Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Pinkie", rec["name"])

	app.RequireStop()
	assert.Nil(t, c.Class())
	assert.Empty(t, registry.Scopes())
}

func TestNewCodecWithFXFailsOnBadSchema(t *testing.T) {
	app := fx.New(
		FXModule,
		fx.NopLogger,
		fx.Provide(
			func() Config { return Config{ClassName: "Unicorn"} },
			func() *schema.Registry { return newTestRegistry() },
		),
		fx.Invoke(func(*Codec) {}),
	)
	err := app.Start(context.Background())
	assert.ErrorIs(t, err, schema.ErrConfiguration)
}
