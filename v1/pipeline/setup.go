package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/tracer"
	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

// Pipeline moves messages from a Source to a Sink, decoding them with one
// Transcoder, handing the record to a Handler and encoding the result with
// another (or the same) Transcoder.
//
// Messages that cannot be decoded, handled or encoded are logged and
// skipped: stored in DeadLetters when configured, otherwise rejected to the
// broker's dead-letter exchange when the source supports it, otherwise
// committed. Skipped messages never block the input. Messages that fail to
// publish are not committed and are redelivered after a restart.
type Pipeline struct {
	cfg         Config
	source      Source
	sink        Sink
	decoder     Transcoder
	encoder     Transcoder
	handler     Handler
	deadLetters DeadLetters

	logger   Logger
	tracer   *tracer.Tracer
	observer observability.Observer
}

// Option configures optional collaborators of a Pipeline.
type Option func(*Pipeline)

// WithEncoder encodes output records with a different transcoder than the
// one decoding input, e.g. to move records between two schemas.
func WithEncoder(encoder Transcoder) Option {
	return func(p *Pipeline) { p.encoder = encoder }
}

// WithDeadLetters stores skipped messages before committing them.
func WithDeadLetters(store DeadLetters) Option {
	return func(p *Pipeline) { p.deadLetters = store }
}

func WithLogger(logger Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTracer continues the trace carried in input headers and writes the
// processing span's context into output headers.
func WithTracer(t *tracer.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

func WithObserver(observer observability.Observer) Option {
	return func(p *Pipeline) { p.observer = observer }
}

// New creates a pipeline. A nil handler means Identity.
//
// Example:
//
//	p, err := pipeline.New(pipeline.Config{Workers: 4},
//	    pipeline.KafkaSource(input), pipeline.KafkaSink(output), unicornCodec,
//	    func(ctx context.Context, rec transcode.Record) (transcode.Record, error) {
//	        rec["is_pegasus"] = true
//	        return rec, nil
//	    },
//	    pipeline.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//	err = p.Run(ctx)
func New(cfg Config, source Source, sink Sink, decoder Transcoder, handler Handler, opts ...Option) (*Pipeline, error) {
	if source == nil || sink == nil {
		return nil, ErrMissingTransport
	}
	if decoder == nil {
		return nil, fmt.Errorf("pipeline needs a transcoder")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if handler == nil {
		handler = Identity
	}

	p := &Pipeline{
		cfg:     cfg,
		source:  source,
		sink:    sink,
		decoder: decoder,
		encoder: decoder,
		handler: handler,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run processes messages until ctx is cancelled or the source closes its
// channel. It returns ctx.Err() when cancelled and nil otherwise.
func (p *Pipeline) Run(ctx context.Context) error {
	wg := &sync.WaitGroup{}
	msgs := p.source.Messages(ctx, wg, p.cfg.Workers)

	p.logInfo(ctx, "pipeline started", map[string]interface{}{"workers": p.cfg.Workers})

	workers := &sync.WaitGroup{}
	for i := 0; i < p.cfg.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for msg := range msgs {
				p.Process(ctx, msg)
			}
		}()
	}
	workers.Wait()
	wg.Wait()

	p.logInfo(ctx, "pipeline stopped", nil)
	return ctx.Err()
}

// Process runs one message through the pipeline and returns its outcome:
// OutcomePublished, OutcomeFiltered, OutcomeSkipped or OutcomeFailed.
func (p *Pipeline) Process(ctx context.Context, msg Message) (outcome string) {
	start := time.Now()
	headers := stringHeaders(msg.Header())
	fields := messageFields(msg)

	var err error
	defer func() {
		p.observeOperation(msg, outcome, time.Since(start), err)
	}()

	if p.tracer != nil {
		ctx = p.tracer.SetCarrierOnContext(ctx, headers)
		var span traceSpan.Span
		ctx, span = p.startSpan(ctx, msg)
		defer func() {
			p.tracer.RecordErrorOnSpan(span, err)
			p.tracer.SetAttributes(span, map[string]interface{}{"pbcodec.outcome": outcome})
			span.End()
		}()
	}

	rec, err := p.decoder.Decode(ctx, msg.Body())
	if err != nil {
		p.logError(ctx, "skipping message that cannot be decoded", err, fields)
		return p.skip(ctx, msg, headers, err, fields)
	}

	out, err := p.handler(ctx, rec)
	if err != nil {
		p.logError(ctx, "skipping message rejected by handler", err, fields)
		return p.skip(ctx, msg, headers, err, fields)
	}
	if out == nil {
		return p.commit(ctx, msg, OutcomeFiltered, fields)
	}

	data, err := p.encoder.Encode(ctx, out)
	if err != nil {
		p.logError(ctx, "skipping record that cannot be encoded", err, fields)
		return p.skip(ctx, msg, headers, err, fields)
	}

	if err = p.sink.Publish(ctx, p.outputKey(msg, out), data, p.outputHeaders(ctx, headers)); err != nil {
		p.logError(ctx, "failed to publish record", err, fields)
		return OutcomeFailed
	}
	return p.commit(ctx, msg, OutcomePublished, fields)
}

// skip gets a message out of the way. A dead-letter store that fails leaves
// the message uncommitted.
func (p *Pipeline) skip(ctx context.Context, msg Message, headers map[string]string, cause error, fields map[string]interface{}) string {
	if p.deadLetters != nil {
		if err := p.deadLetters.StoreDeadLetter(ctx, msg.Key(), msg.Body(), headers, cause); err != nil {
			p.logError(ctx, "failed to store dead letter", err, fields)
			return OutcomeFailed
		}
		return p.commit(ctx, msg, OutcomeSkipped, fields)
	}
	if r, ok := msg.(rejecter); ok {
		if err := r.Reject(); err != nil {
			p.logWarn(ctx, "failed to reject message", err, fields)
		}
		return OutcomeSkipped
	}
	return p.commit(ctx, msg, OutcomeSkipped, fields)
}

func (p *Pipeline) commit(ctx context.Context, msg Message, outcome string, fields map[string]interface{}) string {
	if err := msg.Commit(); err != nil {
		p.logWarn(ctx, "failed to commit message", err, fields)
	}
	return outcome
}

func (p *Pipeline) outputKey(msg Message, rec transcode.Record) string {
	if p.cfg.KeyField != "" {
		if v, ok := rec.Lookup(p.cfg.KeyField); ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return msg.Key()
}

// outputHeaders forwards the input headers, replacing trace context with the
// processing span's when tracing is on.
func (p *Pipeline) outputHeaders(ctx context.Context, in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	if p.tracer != nil {
		for k, v := range p.tracer.GetCarrier(ctx) {
			out[k] = v
		}
	}
	return out
}

func messageFields(msg Message) map[string]interface{} {
	fields := map[string]interface{}{"key": msg.Key()}
	if pos, ok := msg.(position); ok {
		fields["partition"] = pos.Partition()
		fields["offset"] = pos.Offset()
	}
	return fields
}

func stringHeaders(header map[string]interface{}) map[string]string {
	out := make(map[string]string, len(header))
	for k, v := range header {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []byte:
			out[k] = string(val)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
