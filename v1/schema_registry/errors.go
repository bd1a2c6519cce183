package schema_registry

import "errors"

var (
	// ErrInvalidWireFormat is returned when a payload does not start with a
	// well-formed Confluent header.
	ErrInvalidWireFormat = errors.New("invalid confluent wire format")

	// ErrSubjectNotFound is returned when the registry does not know a subject
	// or schema id.
	ErrSubjectNotFound = errors.New("schema or subject not found")

	// ErrRegistryUnavailable is returned for transport failures and 5xx answers.
	ErrRegistryUnavailable = errors.New("schema registry unavailable")
)
