package metrics

// Config configures the Prometheus registry and its HTTP endpoint.
type Config struct {
	// Address is where /metrics is served, e.g. ":9090"
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// ServiceName is attached to every metric as the "service" label
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// Namespace prefixes the operation metrics. Defaults to "pbcodec".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// EnableDefaultCollectors registers the Go, process and build info collectors
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`
}

const defaultNamespace = "pbcodec"
