package transcode

import (
	"google.golang.org/protobuf/reflect/protoreflect"
)

// FieldKind is the conversion routine selected for a schema field.
type FieldKind int

const (
	KindScalar FieldKind = iota
	KindEnum
	KindMessage
	KindRepeatedScalar
	KindRepeatedEnum
	KindRepeatedMessage
	KindMap
)

func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindRepeatedScalar:
		return "repeated_scalar"
	case KindRepeatedEnum:
		return "repeated_enum"
	case KindRepeatedMessage:
		return "repeated_message"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// IsRepeated reports whether the kind converts to a sequence.
func (k FieldKind) IsRepeated() bool {
	return k == KindRepeatedScalar || k == KindRepeatedEnum || k == KindRepeatedMessage
}

// Classify inspects a field descriptor and returns its kind. Map fields are
// checked before lists since protobuf models them as repeated entry messages.
func Classify(fd protoreflect.FieldDescriptor) FieldKind {
	if fd.IsMap() {
		return KindMap
	}
	if fd.IsList() {
		switch fd.Kind() {
		case protoreflect.MessageKind, protoreflect.GroupKind:
			return KindRepeatedMessage
		case protoreflect.EnumKind:
			return KindRepeatedEnum
		default:
			return KindRepeatedScalar
		}
	}
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return KindMessage
	case protoreflect.EnumKind:
		return KindEnum
	default:
		return KindScalar
	}
}

type fieldPlan struct {
	desc protoreflect.FieldDescriptor
	name string
	kind FieldKind

	// presence is set for singular fields that are omitted when unset:
	// scalars and enums with explicit presence, and oneof message members.
	presence bool

	enum    *EnumTable
	message *messagePlan

	// mapValue is the plan of the map entry's value field.
	mapValue *fieldPlan
}

type messagePlan struct {
	desc   protoreflect.MessageDescriptor
	fields []*fieldPlan
	byName map[string]*fieldPlan
}

// MessageClass is a resolved, compiled message type: the descriptor plus the
// field kinds and enum tables of every message reachable from it. It is
// immutable once compiled and safe for concurrent use.
type MessageClass struct {
	desc  protoreflect.MessageDescriptor
	root  *messagePlan
	plans map[protoreflect.FullName]*messagePlan
	enums *EnumMapper
}

// Compile classifies every field reachable from md once. Recursive message
// types are compiled a single time and share their plan.
func Compile(md protoreflect.MessageDescriptor) (*MessageClass, error) {
	if md == nil {
		return nil, ErrNilClass
	}
	c := &MessageClass{
		desc:  md,
		plans: make(map[protoreflect.FullName]*messagePlan),
		enums: NewEnumMapper(),
	}
	c.root = c.compileMessage(md)
	return c, nil
}

func (c *MessageClass) compileMessage(md protoreflect.MessageDescriptor) *messagePlan {
	if p, ok := c.plans[md.FullName()]; ok {
		return p
	}
	fields := md.Fields()
	p := &messagePlan{
		desc:   md,
		fields: make([]*fieldPlan, 0, fields.Len()),
		byName: make(map[string]*fieldPlan, fields.Len()),
	}
	// registered before the fields so self references terminate
	c.plans[md.FullName()] = p

	for i := 0; i < fields.Len(); i++ {
		fp := c.compileField(fields.Get(i))
		p.fields = append(p.fields, fp)
		p.byName[fp.name] = fp
	}
	return p
}

func (c *MessageClass) compileField(fd protoreflect.FieldDescriptor) *fieldPlan {
	fp := &fieldPlan{
		desc: fd,
		name: string(fd.Name()),
		kind: Classify(fd),
	}
	switch fp.kind {
	case KindScalar, KindEnum:
		fp.presence = fd.HasPresence()
	case KindMessage:
		// only oneof members; an unset plain message field still decodes to {}
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			fp.presence = true
		}
	}
	switch fp.kind {
	case KindEnum, KindRepeatedEnum:
		fp.enum = c.enums.Add(fd.Enum())
	case KindMessage, KindRepeatedMessage:
		fp.message = c.compileMessage(fd.Message())
	case KindMap:
		fp.mapValue = c.compileField(fd.MapValue())
	}
	return fp
}

// Descriptor returns the root message descriptor.
func (c *MessageClass) Descriptor() protoreflect.MessageDescriptor {
	return c.desc
}

// FullName returns the fully-qualified name of the root message.
func (c *MessageClass) FullName() protoreflect.FullName {
	return c.desc.FullName()
}

// Enums returns the enum tables of every enum reachable from the class.
func (c *MessageClass) Enums() *EnumMapper {
	return c.enums
}

// FieldKinds returns the kind of every field of the named message, which must
// be reachable from the class. It returns nil for unknown messages.
func (c *MessageClass) FieldKinds(message protoreflect.FullName) map[string]FieldKind {
	p, ok := c.plans[message]
	if !ok {
		return nil
	}
	kinds := make(map[string]FieldKind, len(p.fields))
	for _, fp := range p.fields {
		kinds[fp.name] = fp.kind
	}
	return kinds
}

// planFor returns the compiled plan of md. Descriptors from another pool with
// the same full name are accepted.
func (c *MessageClass) planFor(md protoreflect.MessageDescriptor) (*messagePlan, bool) {
	p, ok := c.plans[md.FullName()]
	return p, ok
}
