package observability

import "time"

// Observer receives a notification every time a package in this module finishes
// an operation (a decode, an encode, a schema resolution, a kafka produce...).
// Implementations must be safe for concurrent use.
type Observer interface {
	// ObserveOperation is called when an operation completes.
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component identifies which package performed the operation.
	// Examples: "codec", "schema", "kafka", "schema_registry"
	Component string

	// Operation describes what was performed.
	// Examples: "decode", "encode", "resolve", "produce", "consume"
	Operation string

	// Resource identifies the primary resource, e.g. the message class name
	// or the kafka topic.
	Resource string

	// SubResource provides additional resource context (optional), e.g. the
	// registration scope or the kafka partition.
	SubResource string

	// Duration is how long the operation took.
	Duration time.Duration

	// Error is the error returned by the operation, nil on success.
	Error error

	// Size is the payload size in bytes (optional).
	Size int64

	// Metadata carries operation-specific extras (optional).
	Metadata map[string]interface{}
}
