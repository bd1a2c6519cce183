package pipeline

import (
	"context"
	"strconv"
	"time"

	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

func (p *Pipeline) startSpan(ctx context.Context, msg Message) (context.Context, traceSpan.Span) {
	ctx, span := p.tracer.StartSpan(ctx, "pipeline.process")
	attrs := map[string]interface{}{"messaging.message.key": msg.Key()}
	if pos, ok := msg.(position); ok {
		attrs["messaging.kafka.partition"] = pos.Partition()
		attrs["messaging.kafka.offset"] = pos.Offset()
	}
	p.tracer.SetAttributes(span, attrs)
	return ctx, span
}

func (p *Pipeline) observeOperation(msg Message, outcome string, duration time.Duration, err error) {
	if p.observer == nil {
		return
	}
	var partition string
	if pos, ok := msg.(position); ok {
		partition = strconv.Itoa(pos.Partition())
	}
	p.observer.ObserveOperation(observability.OperationContext{
		Component:   "pipeline",
		Operation:   "process",
		SubResource: partition,
		Duration:    duration,
		Error:       err,
		Size:        int64(len(msg.Body())),
		Metadata:    map[string]interface{}{"outcome": outcome},
	})
}

func (p *Pipeline) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (p *Pipeline) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (p *Pipeline) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
