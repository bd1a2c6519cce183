package transcode

import "fmt"

// DefaultMaxDepth bounds message nesting in both directions.
const DefaultMaxDepth = 100

// EnumPolicy decides what happens to enum values missing from the table.
type EnumPolicy int

const (
	// EnumPolicyFail rejects unknown enum values with ErrUnknownEnumValue.
	EnumPolicyFail EnumPolicy = iota

	// EnumPolicyPassthrough keeps unknown numbers: the decoder emits the raw
	// number as int64 and the encoder accepts undeclared integers.
	// Unknown symbols are still rejected.
	EnumPolicyPassthrough
)

func (p EnumPolicy) String() string {
	switch p {
	case EnumPolicyFail:
		return "fail"
	case EnumPolicyPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("EnumPolicy(%d)", int(p))
	}
}

// ParseEnumPolicy parses the configuration spelling of a policy. The empty
// string selects EnumPolicyFail.
func ParseEnumPolicy(s string) (EnumPolicy, error) {
	switch s {
	case "", "fail":
		return EnumPolicyFail, nil
	case "passthrough":
		return EnumPolicyPassthrough, nil
	default:
		return EnumPolicyFail, fmt.Errorf("unknown enum policy %q (expected \"fail\" or \"passthrough\")", s)
	}
}

// Options configure a Decoder or an Encoder.
type Options struct {
	EnumPolicy EnumPolicy
	MaxDepth   int
}

// Option mutates Options.
type Option func(*Options)

// WithEnumPolicy selects the unknown enum value policy.
func WithEnumPolicy(p EnumPolicy) Option {
	return func(o *Options) { o.EnumPolicy = p }
}

// WithMaxDepth overrides DefaultMaxDepth. Values below one are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{EnumPolicy: EnumPolicyFail, MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
