package schema

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateConfig checks a class name and its locations before anything is
// loaded. Every failure wraps ErrConfiguration.
func ValidateConfig(className string, loc Locations) error {
	if strings.TrimSpace(className) == "" {
		return fmt.Errorf("%w: `class_name` must be set", ErrConfiguration)
	}
	return loc.Validate()
}

// Validate checks that exactly one location mode is configured and that the
// mode's settings are complete.
func (l Locations) Validate() error {
	hasInclude := len(l.IncludePath) > 0
	hasClassFile := l.ClassFile != ""

	switch {
	case hasInclude && hasClassFile:
		return fmt.Errorf("%w: `include_path` and `class_file` are mutually exclusive", ErrConfiguration)
	case !hasInclude && !hasClassFile:
		return fmt.Errorf("%w: either `include_path` or `class_file` must be set", ErrConfiguration)
	}

	if hasInclude {
		if l.RootDirectory != "" {
			return fmt.Errorf("%w: `protobuf_root_directory` is only used with `class_file`", ErrConfiguration)
		}
		for i, p := range l.IncludePath {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%w: `include_path` entry %d is empty", ErrConfiguration, i)
			}
		}
		return nil
	}

	if l.RootDirectory == "" && !filepath.IsAbs(l.ClassFile) {
		return fmt.Errorf("%w: relative `class_file` %q requires `protobuf_root_directory`", ErrConfiguration, l.ClassFile)
	}
	return nil
}
