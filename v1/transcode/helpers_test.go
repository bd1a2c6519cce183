package transcode

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testschema"
)

func compileClass(t *testing.T, name string, fds ...*descriptorpb.FileDescriptorProto) *MessageClass {
	t.Helper()
	files, err := testschema.NewFiles(fds...)
	require.NoError(t, err)
	class, err := Compile(testschema.Message(files, name))
	require.NoError(t, err)
	return class
}

func unicornClass(t *testing.T) *MessageClass {
	return compileClass(t, "Unicorn", testschema.Unicorn())
}

// defaultUnicorn is what an all-default Unicorn decodes to.
func defaultUnicorn() Record {
	return Record{
		"name":              "",
		"age":               int64(0),
		"fur_colour":        "BLACK",
		"height":            float64(0),
		"weight":            float64(0),
		"is_pegasus":        false,
		"favourite_numbers": []interface{}{},
		"favourite_colours": []interface{}{},
		"mother":            Record{},
		"father":            Record{},
	}
}

func with(base Record, overrides Record) Record {
	for k, v := range overrides {
		base[k] = v
	}
	return base
}

func setField(msg *dynamicpb.Message, name string, v protoreflect.Value) {
	fd := msg.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("no field " + name)
	}
	msg.Set(fd, v)
}

func newMessage(class *MessageClass, name protoreflect.FullName) *dynamicpb.Message {
	p, ok := class.plans[name]
	if !ok {
		panic("no message " + string(name))
	}
	return dynamicpb.NewMessage(p.desc)
}
