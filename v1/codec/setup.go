package codec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/schema"
	"github.com/Aleph-Alpha/pbcodec/v1/schema_registry"
	"github.com/Aleph-Alpha/pbcodec/v1/tracer"
	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

// Logger is the logging surface the codec needs.
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Codec converts protobuf payloads of one configured class to records and
// back. It resolves its class through a schema.Registry at Register and is
// safe for concurrent Decode and Encode calls afterwards.
type Codec struct {
	cfg      Config
	logger   Logger
	registry *schema.Registry

	schemaRegistry schema_registry.Registry
	tracer         *tracer.Tracer
	observer       observability.Observer

	decoder *transcode.Decoder
	encoder *transcode.Encoder

	mu       sync.RWMutex
	class    *transcode.MessageClass
	schemaID int
	indexes  []int
}

// Option configures optional collaborators of a Codec.
type Option func(*Codec)

// WithSchemaRegistry sets the client used to look up the framing schema id
// by subject.
func WithSchemaRegistry(sr schema_registry.Registry) Option {
	return func(c *Codec) { c.schemaRegistry = sr }
}

// WithTracer records a span per decode and encode.
func WithTracer(t *tracer.Tracer) Option {
	return func(c *Codec) { c.tracer = t }
}

func WithObserver(observer observability.Observer) Option {
	return func(c *Codec) { c.observer = observer }
}

// NewCodec creates a codec for cfg. A nil registry means a registry over
// schema.DefaultPool reading from the local filesystem; a nil logger
// disables logging. The class is not resolved until Register.
//
// Example:
//
//	c, err := codec.NewCodec(codec.Config{
//	    ClassName: "Unicorn",
//	    Locations: schema.Locations{IncludePath: []string{"/schemas/unicorn.pb"}},
//	}, log, registry)
//	if err != nil {
//	    return err
//	}
//	if err := c.Register(ctx); err != nil {
//	    return err
//	}
//	rec, err := c.Decode(ctx, payload)
func NewCodec(cfg Config, logger Logger, registry *schema.Registry, opts ...Option) (*Codec, error) {
	policy, err := transcode.ParseEnumPolicy(cfg.EnumPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrConfiguration, err)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: max_depth must not be negative", schema.ErrConfiguration)
	}
	if cfg.Framing.SchemaID < 0 {
		return nil, fmt.Errorf("%w: framing schema_id must not be negative", schema.ErrConfiguration)
	}
	if cfg.Scope == "" {
		cfg.Scope = uuid.NewString()
	}
	if registry == nil {
		registry = schema.NewRegistry()
	}

	topts := []transcode.Option{transcode.WithEnumPolicy(policy)}
	if cfg.MaxDepth > 0 {
		topts = append(topts, transcode.WithMaxDepth(cfg.MaxDepth))
	}

	c := &Codec{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		decoder:  transcode.NewDecoder(topts...),
		encoder:  transcode.NewEncoder(topts...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register validates the configuration and resolves the class. It may be
// called any number of times; later calls reuse the class cached in the
// codec's scope.
func (c *Codec) Register(ctx context.Context) error {
	class, err := c.registry.Resolve(ctx, schema.Request{
		ClassName: c.cfg.ClassName,
		Locations: c.cfg.Locations,
		Scope:     c.cfg.Scope,
	})
	if err != nil {
		c.logError(ctx, "failed to register codec", err, nil)
		return err
	}

	var (
		schemaID int
		indexes  []int
	)
	if c.cfg.Framing.Enabled {
		schemaID, err = c.framingSchemaID(ctx)
		if err != nil {
			c.logError(ctx, "failed to resolve framing schema id", err, nil)
			return err
		}
		indexes = schema_registry.MessageIndexes(class.Descriptor())
	}

	c.mu.Lock()
	c.class, c.schemaID, c.indexes = class, schemaID, indexes
	c.mu.Unlock()

	c.logInfo(ctx, "codec registered", map[string]interface{}{
		"framing":   c.cfg.Framing.Enabled,
		"schema_id": schemaID,
	})
	return nil
}

func (c *Codec) framingSchemaID(ctx context.Context) (int, error) {
	if c.cfg.Framing.SchemaID > 0 {
		return c.cfg.Framing.SchemaID, nil
	}
	if c.cfg.Framing.Subject == "" || c.schemaRegistry == nil {
		return 0, fmt.Errorf("%w: framing needs a schema_id, or a subject and a schema registry", schema.ErrConfiguration)
	}
	meta, err := c.schemaRegistry.GetLatestSchema(ctx, c.cfg.Framing.Subject)
	if err != nil {
		return 0, fmt.Errorf("look up subject %q: %w", c.cfg.Framing.Subject, err)
	}
	return meta.ID, nil
}

// Class returns the resolved class, or nil before Register.
func (c *Codec) Class() *transcode.MessageClass {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.class
}

// Scope returns the registration scope of the codec.
func (c *Codec) Scope() string {
	return c.cfg.Scope
}

// Reloadable reports whether the codec can pick up schema changes without a
// restart. It cannot: classes are loaded once per process.
func (c *Codec) Reloadable() bool {
	return false
}

// Close forgets the codec's class in its registry scope; other codecs sharing
// the scope keep their registrations. Decode and Encode fail with
// ErrNotRegistered until Register is called again.
func (c *Codec) Close() {
	c.mu.Lock()
	c.class = nil
	c.mu.Unlock()
	c.registry.ReleaseClass(c.cfg.Scope, c.cfg.ClassName)
}

func (c *Codec) registered() (*transcode.MessageClass, int, []int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.class == nil {
		return nil, 0, nil, fmt.Errorf("%w: %s", ErrNotRegistered, c.cfg.ClassName)
	}
	return c.class, c.schemaID, c.indexes, nil
}

// startSpan opens a span when a tracer is set; the returned func ends it,
// recording err.
func (c *Codec) startSpan(ctx context.Context, name string, size int) (context.Context, func(error)) {
	if c.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := c.tracer.StartSpan(ctx, name)
	c.tracer.SetAttributes(span, map[string]interface{}{
		"pbcodec.class": c.cfg.ClassName,
		"pbcodec.scope": c.cfg.Scope,
		"pbcodec.bytes": size,
	})
	return ctx, func(err error) {
		c.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (c *Codec) finish(ctx context.Context, operation string, start time.Time, err error, size int) {
	c.observeOperation(operation, time.Since(start), err, int64(size))
	if err != nil {
		c.logError(ctx, "failed to "+operation+" message", err, nil)
	}
}

func (c *Codec) fields(extra map[string]interface{}) map[string]interface{} {
	fields := map[string]interface{}{
		"class": c.cfg.ClassName,
		"scope": c.cfg.Scope,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func (c *Codec) logDebug(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.DebugWithContext(ctx, msg, nil, c.fields(fields))
	}
}

func (c *Codec) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, msg, nil, c.fields(fields))
	}
}

func (c *Codec) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.ErrorWithContext(ctx, msg, err, c.fields(fields))
	}
}
