package schema

import "errors"

var (
	// ErrConfiguration is returned for invalid or contradictory schema
	// locations, and for a file path registered twice with different content.
	ErrConfiguration = errors.New("invalid schema configuration")

	// ErrClassResolution is returned when a schema file or dependency cannot
	// be located or compiled, or the class name is not a known message.
	ErrClassResolution = errors.New("class resolution failed")

	// ErrCyclicDependency is returned when schema files import each other.
	ErrCyclicDependency = errors.New("cyclic schema dependency")
)
