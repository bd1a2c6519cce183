package pipeline

import "errors"

// Config configures a Pipeline.
type Config struct {
	// Workers is the number of messages processed concurrently. Defaults to 1,
	// which keeps output order equal to input order.
	Workers int `yaml:"workers" envconfig:"PIPELINE_WORKERS"`

	// KeyField names the record field whose value becomes the output message
	// key. Empty, or a record without the field, keeps the input key.
	KeyField string `yaml:"key_field" envconfig:"PIPELINE_KEY_FIELD"`
}

const (
	OutcomePublished = "published"
	OutcomeFiltered  = "filtered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	// ErrMissingTransport is returned when no input or output client is provided
	ErrMissingTransport = errors.New("pipeline transport missing")

	// ErrAmbiguousTransport is returned when both a kafka and a RabbitMQ client are provided for one side
	ErrAmbiguousTransport = errors.New("pipeline transport ambiguous")
)
