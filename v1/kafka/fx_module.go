package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

// FXModule is an fx.Module that provides and configures the Kafka client.
//
// The module provides *KafkaClient and the Client interface and closes the
// client on shutdown. Applications with both an input and an output topic
// build the second client with NewClient directly.
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(k *KafkaClient) Client { return k },
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies needed to create a Kafka client
type KafkaParams struct {
	fx.In

	Config       Config
	Logger       Logger                 `optional:"true"`
	Serializer   Serializer             `optional:"true"`
	Deserializer Deserializer           `optional:"true"`
	Observer     observability.Observer `optional:"true"`
}

// NewClientWithDI creates a new Kafka client from fx-provided dependencies,
// injecting the optional logger, (de)serializers and observer.
func NewClientWithDI(params KafkaParams) (*KafkaClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	if params.Serializer != nil {
		client.SetSerializer(params.Serializer)
	}
	if params.Deserializer != nil {
		client.SetDeserializer(params.Deserializer)
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	return client, nil
}

// KafkaLifecycleParams groups the dependencies needed for Kafka lifecycle management
type KafkaLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *KafkaClient
}

// RegisterKafkaLifecycle shuts the client down when the application stops.
func RegisterKafkaLifecycle(params KafkaLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Client.logInfo(ctx, "Kafka client started", map[string]interface{}{
				"topic":    params.Client.cfg.Topic,
				"consumer": params.Client.cfg.IsConsumer,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Client.logInfo(ctx, "Shutting down Kafka client", nil)
			params.Client.GracefulShutdown()
			return nil
		},
	})
}
