package transcode

import (
	"errors"
	"fmt"
)

// Errors returned by the transcoder. They are matched with errors.Is; the
// concrete error usually is a *FieldError wrapping one of them.
var (
	// ErrDecode is returned when bytes do not parse against the message class.
	ErrDecode = errors.New("decode error")

	// ErrEncode is returned when a record value does not fit the declared kind
	// of the target field.
	ErrEncode = errors.New("encode error")

	// ErrUnknownEnumValue is returned when an enum number (decode) or symbol
	// (encode) has no entry in the enum table.
	ErrUnknownEnumValue = errors.New("unknown enum value")

	// ErrMaxDepth is returned when a message nests deeper than Options.MaxDepth.
	ErrMaxDepth = errors.New("maximum nesting depth exceeded")

	// ErrNilClass is returned when a conversion is attempted without a message class.
	ErrNilClass = errors.New("message class is nil")
)

// FieldError reports a failure converting one field. Path is the dotted path
// from the root message, with sequence indexes as numeric segments
// ("response.rrs.1.ttl").
type FieldError struct {
	Path string
	Err  error
	Msg  string
}

func (e *FieldError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("field %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("field %q: %v: %s", e.Path, e.Err, e.Msg)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErrorf(path string, err error, format string, args ...interface{}) error {
	return &FieldError{Path: path, Err: err, Msg: fmt.Sprintf(format, args...)}
}
