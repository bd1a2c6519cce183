package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config configures the zap logger shared by the codec, registry and
// transport packages.
type Config struct {
	// Level is debug (or development), info, warning (or warn) or error.
	// Anything else logs at info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// Encoding is "json" (default) or "console".
	Encoding string `yaml:"encoding" envconfig:"LOGGER_ENCODING"`

	// OutputPaths defaults to stderr.
	OutputPaths []string `yaml:"output_paths" envconfig:"LOGGER_OUTPUT_PATHS"`

	// ServiceName is attached to every entry as "service".
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// EnableTracing adds trace_id and span_id to entries logged through the
	// *WithContext methods.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`
}
