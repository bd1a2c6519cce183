package codec

import "errors"

var (
	// ErrNotRegistered is returned by Decode and Encode before Register succeeded
	// or after Close.
	ErrNotRegistered = errors.New("codec not registered")

	// ErrUnsupportedType is returned when a value handed to Serialize or
	// Deserialize is not a record or an event.
	ErrUnsupportedType = errors.New("unsupported type")
)
