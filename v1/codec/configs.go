package codec

import "github.com/Aleph-Alpha/pbcodec/v1/schema"

// Config is the codec's option set, using the option names of the
// protobuf codec it replaces:
//
//	class_name: A.MessageA
//	class_file: messageA.pb
//	protobuf_root_directory: /etc/schemas
//	enum_policy: passthrough
type Config struct {
	// ClassName is the fully-qualified message name, e.g. "A.MessageA".
	ClassName string `yaml:"class_name" envconfig:"CODEC_CLASS_NAME"`

	// Locations holds include_path, class_file and protobuf_root_directory.
	schema.Locations `yaml:",inline"`

	// Scope isolates the resolved class per running pipeline. Empty means a
	// fresh random identity per codec.
	Scope string `yaml:"scope" envconfig:"CODEC_SCOPE"`

	// EnumPolicy is "fail" (default) or "passthrough" for enum numbers missing
	// from the schema.
	EnumPolicy string `yaml:"enum_policy" envconfig:"CODEC_ENUM_POLICY"`

	// MaxDepth bounds message nesting. Zero uses transcode.DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth" envconfig:"CODEC_MAX_DEPTH"`

	// Framing enables the Confluent Schema Registry wire header.
	Framing FramingConfig `yaml:"framing"`
}

// FramingConfig controls the `[0x0][schema id][message indexes]` prefix of
// Confluent-framed protobuf payloads.
type FramingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"CODEC_FRAMING_ENABLED"`

	// SchemaID is written into encoded payloads. When zero, the id of the
	// latest schema registered under Subject is looked up at Register.
	SchemaID int `yaml:"schema_id" envconfig:"CODEC_FRAMING_SCHEMA_ID"`

	Subject string `yaml:"subject" envconfig:"CODEC_FRAMING_SUBJECT"`
}
