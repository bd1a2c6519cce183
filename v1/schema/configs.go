package schema

const (
	// DefaultScope is used when a Request carries no scope.
	DefaultScope = "default"

	SourceDir   = "dir"
	SourceMinio = "minio"
	SourceRedis = "redis"
)

// Locations says where the schema of a class lives. Exactly one of
// IncludePath and ClassFile must be set.
type Locations struct {
	// IncludePath lists compiled schema files that are all loaded, in order.
	IncludePath []string `yaml:"include_path" json:"include_path"`

	// ClassFile is the entry schema file; its dependencies are loaded
	// automatically from RootDirectory.
	ClassFile string `yaml:"class_file" json:"class_file"`

	// RootDirectory is where ClassFile and its dependencies are looked up.
	RootDirectory string `yaml:"protobuf_root_directory" json:"protobuf_root_directory"`
}

// Equal reports whether both locations name the same files.
func (l Locations) Equal(other Locations) bool {
	if l.ClassFile != other.ClassFile || l.RootDirectory != other.RootDirectory {
		return false
	}
	if len(l.IncludePath) != len(other.IncludePath) {
		return false
	}
	for i := range l.IncludePath {
		if l.IncludePath[i] != other.IncludePath[i] {
			return false
		}
	}
	return true
}

func (l Locations) mode() string {
	if len(l.IncludePath) > 0 {
		return "include_path"
	}
	return "class_file"
}

// Request asks the registry for one message class.
type Request struct {
	// ClassName is the fully-qualified message name, e.g. "A.MessageA".
	ClassName string

	Locations Locations

	// Scope isolates cached classes per pipeline. Empty means DefaultScope.
	Scope string

	// Source overrides the registry's source for this request.
	Source Source
}

// Config configures a registry built through FXModule.
type Config struct {
	// Source selects where schema files are read from: "dir" (default),
	// "minio" or "redis".
	Source string `yaml:"source" envconfig:"SCHEMA_SOURCE"`

	// Prefix is prepended to every key when Source is "minio" or "redis".
	Prefix string `yaml:"prefix" envconfig:"SCHEMA_PREFIX"`

	// PrivatePool gives the registry its own descriptor pool instead of
	// DefaultPool.
	PrivatePool bool `yaml:"private_pool" envconfig:"SCHEMA_PRIVATE_POOL"`
}
