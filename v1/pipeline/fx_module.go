package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/codec"
	"github.com/Aleph-Alpha/pbcodec/v1/kafka"
	"github.com/Aleph-Alpha/pbcodec/v1/observability"
	"github.com/Aleph-Alpha/pbcodec/v1/postgres"
	"github.com/Aleph-Alpha/pbcodec/v1/rabbit"
	"github.com/Aleph-Alpha/pbcodec/v1/tracer"
)

// FXModule provides a *Pipeline and runs it between application start and
// stop.
//
// Input and output are told apart by name. Each side is either a kafka or a
// RabbitMQ client:
//
//	fx.Provide(
//	    fx.Annotate(newInputClient, fx.ResultTags(`name:"input"`)),    // *kafka.KafkaClient
//	    fx.Annotate(newOutputClient, fx.ResultTags(`name:"output"`)),  // *rabbit.RabbitClient
//	    fx.Annotate(newUnicornCodec, fx.ResultTags(`name:"input"`)),
//	    func() pipeline.Handler { return addHorn },
//	)
//
// Dependencies required by this module:
//   - pipeline.Config
//   - exactly one *kafka.KafkaClient or *rabbit.RabbitClient named "input",
//     and one named "output"
//   - *codec.Codec named "input", and optionally "output"
//   - *postgres.Postgres, pipeline.Handler, pipeline.Logger,
//     *tracer.Tracer, observability.Observer (all optional)
var FXModule = fx.Module("pipeline",
	fx.Provide(NewPipelineWithFX),
	fx.Invoke(RegisterPipelineLifecycle),
)

// PipelineParams groups the fx dependencies of the pipeline.
type PipelineParams struct {
	fx.In

	Config       Config
	KafkaInput   *kafka.KafkaClient     `name:"input" optional:"true"`
	KafkaOutput  *kafka.KafkaClient     `name:"output" optional:"true"`
	RabbitInput  *rabbit.RabbitClient   `name:"input" optional:"true"`
	RabbitOutput *rabbit.RabbitClient   `name:"output" optional:"true"`
	Decoder      *codec.Codec           `name:"input"`
	Encoder      *codec.Codec           `name:"output" optional:"true"`
	DeadLetters  *postgres.Postgres     `optional:"true"`
	Handler      Handler                `optional:"true"`
	Logger       Logger                 `optional:"true"`
	Tracer       *tracer.Tracer         `optional:"true"`
	Observer     observability.Observer `optional:"true"`
}

// NewPipelineWithFX builds the pipeline from fx-provided dependencies.
func NewPipelineWithFX(p PipelineParams) (*Pipeline, error) {
	source, err := pickSource(p.KafkaInput, p.RabbitInput)
	if err != nil {
		return nil, err
	}
	sink, err := pickSink(p.KafkaOutput, p.RabbitOutput)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithObserver(p.Observer), WithTracer(p.Tracer)}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Encoder != nil {
		opts = append(opts, WithEncoder(p.Encoder))
	}
	if p.DeadLetters != nil {
		opts = append(opts, WithDeadLetters(p.DeadLetters))
	}
	return New(p.Config, source, sink, p.Decoder, p.Handler, opts...)
}

func pickSource(k *kafka.KafkaClient, r *rabbit.RabbitClient) (Source, error) {
	switch {
	case k != nil && r != nil:
		return nil, ErrAmbiguousTransport
	case k != nil:
		return KafkaSource(k), nil
	case r != nil:
		return RabbitSource(r), nil
	default:
		return nil, fmt.Errorf("%w: no input client", ErrMissingTransport)
	}
}

func pickSink(k *kafka.KafkaClient, r *rabbit.RabbitClient) (Sink, error) {
	switch {
	case k != nil && r != nil:
		return nil, ErrAmbiguousTransport
	case k != nil:
		return KafkaSink(k), nil
	case r != nil:
		return RabbitSink(r), nil
	default:
		return nil, fmt.Errorf("%w: no output client", ErrMissingTransport)
	}
}

// RegisterPipelineLifecycle starts Run in the background on start and
// cancels it on stop, waiting for in-flight messages to finish.
func RegisterPipelineLifecycle(lc fx.Lifecycle, p *Pipeline) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					p.logError(ctx, "pipeline stopped with error", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
