package testschema

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

type fieldOption func(*descriptorpb.FieldDescriptorProto)

func repeated() fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	}
}

func typeName(name string) fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.TypeName = proto.String(name)
	}
}

func oneofIndex(i int32) fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.OneofIndex = proto.Int32(i)
	}
}

func proto3Optional(i int32) fieldOption {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.OneofIndex = proto.Int32(i)
		f.Proto3Optional = proto.Bool(true)
	}
}

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, opts ...fieldOption) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

// mapEntry builds the synthetic entry message of a map field.
func mapEntry(name string, key, value *descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	key.Name, key.Number = proto.String("key"), proto.Int32(1)
	value.Name, value.Number = proto.String("value"), proto.Int32(2)
	return &descriptorpb.DescriptorProto{
		Name:    proto.String(name),
		Field:   []*descriptorpb.FieldDescriptorProto{key, value},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}
}

func enum(name string, values ...string) *descriptorpb.EnumDescriptorProto {
	return enumFrom(name, 0, values...)
}

// enumFrom numbers values consecutively starting at first.
func enumFrom(name string, first int32, values ...string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(first + int32(i)),
		})
	}
	return e
}

func file(name, pkg, syntax string, deps ...string) *descriptorpb.FileDescriptorProto {
	f := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(name),
		Syntax:     proto.String(syntax),
		Dependency: deps,
	}
	if pkg != "" {
		f.Package = proto.String(pkg)
	}
	return f
}

const (
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tSint32  = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	tSint64  = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tFixed32 = descriptorpb.FieldDescriptorProto_TYPE_FIXED32
	tFixed64 = descriptorpb.FieldDescriptorProto_TYPE_FIXED64
	tFloat   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	tDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)
