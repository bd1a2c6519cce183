package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		className string
		loc       Locations
		wantErr   string
	}{
		{
			name:      "include path",
			className: "Unicorn",
			loc:       Locations{IncludePath: []string{"/schemas/unicorn.pb"}},
		},
		{
			name:      "class file with root",
			className: "A.MessageA",
			loc:       Locations{ClassFile: "messageA.pb", RootDirectory: "/schemas"},
		},
		{
			name:      "absolute class file without root",
			className: "A.MessageA",
			loc:       Locations{ClassFile: "/schemas/messageA.pb"},
		},
		{
			name:      "both modes",
			className: "Unicorn",
			loc:       Locations{IncludePath: []string{"a.pb"}, ClassFile: "b.pb", RootDirectory: "/x"},
			wantErr:   "`include_path` and `class_file` are mutually exclusive",
		},
		{
			name:      "no mode",
			className: "Unicorn",
			wantErr:   "either `include_path` or `class_file` must be set",
		},
		{
			name:    "missing class name",
			loc:     Locations{IncludePath: []string{"a.pb"}},
			wantErr: "`class_name` must be set",
		},
		{
			name:      "relative class file without root",
			className: "Unicorn",
			loc:       Locations{ClassFile: "unicorn.pb"},
			wantErr:   "requires `protobuf_root_directory`",
		},
		{
			name:      "root with include path",
			className: "Unicorn",
			loc:       Locations{IncludePath: []string{"a.pb"}, RootDirectory: "/x"},
			wantErr:   "`protobuf_root_directory` is only used with `class_file`",
		},
		{
			name:      "empty include entry",
			className: "Unicorn",
			loc:       Locations{IncludePath: []string{"a.pb", " "}},
			wantErr:   "`include_path` entry 1 is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.className, tt.loc)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocationsEqual(t *testing.T) {
	a := Locations{IncludePath: []string{"a.pb", "b.pb"}}
	assert.True(t, a.Equal(Locations{IncludePath: []string{"a.pb", "b.pb"}}))
	assert.False(t, a.Equal(Locations{IncludePath: []string{"b.pb", "a.pb"}}))
	assert.False(t, a.Equal(Locations{ClassFile: "a.pb", RootDirectory: "/"}))
}
