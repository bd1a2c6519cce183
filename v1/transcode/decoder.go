package transcode

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Decoder converts protobuf bytes into Records. It holds no mutable state and
// may be shared between goroutines.
type Decoder struct {
	opts      Options
	unmarshal proto.UnmarshalOptions
}

// NewDecoder returns a Decoder. Without options unknown enum numbers fail the
// decode and nesting is limited to DefaultMaxDepth.
func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{
		opts: newOptions(opts),
		// fields missing from the resolved schema are dropped, not kept as unknown bytes
		unmarshal: proto.UnmarshalOptions{DiscardUnknown: true},
	}
}

// Decode parses data as the root message of class and converts it.
func (d *Decoder) Decode(data []byte, class *MessageClass) (Record, error) {
	if class == nil {
		return nil, ErrNilClass
	}
	msg := dynamicpb.NewMessage(class.desc)
	if err := d.unmarshal.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, class.FullName(), err)
	}
	return d.ToRecord(msg, class)
}

// ToRecord converts an already parsed message. The message type must be the
// class root or a message reachable from it. Messages built from another
// descriptor with the same full name, generated Go types included, are
// re-parsed against the class first.
func (d *Decoder) ToRecord(msg protoreflect.Message, class *MessageClass) (Record, error) {
	if class == nil {
		return nil, ErrNilClass
	}
	plan, ok := class.planFor(msg.Descriptor())
	if !ok {
		return nil, fmt.Errorf("%w: message %s is not reachable from %s", ErrDecode, msg.Descriptor().FullName(), class.FullName())
	}
	if msg.Descriptor() != plan.desc {
		converted, err := d.reparse(msg, plan.desc)
		if err != nil {
			return nil, err
		}
		msg = converted
	}
	return d.message(msg, plan, "", 0)
}

// reparse copies msg into a dynamic message of desc through the wire format.
func (d *Decoder) reparse(msg protoreflect.Message, desc protoreflect.MessageDescriptor) (protoreflect.Message, error) {
	data, err := proto.MarshalOptions{}.Marshal(msg.Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, desc.FullName(), err)
	}
	out := dynamicpb.NewMessage(desc)
	if err := d.unmarshal.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, desc.FullName(), err)
	}
	return out, nil
}

func (d *Decoder) message(msg protoreflect.Message, p *messagePlan, path string, depth int) (Record, error) {
	if depth > d.opts.MaxDepth {
		return nil, &FieldError{Path: path, Err: fmt.Errorf("%w: %w", ErrDecode, ErrMaxDepth), Msg: fmt.Sprintf("limit %d", d.opts.MaxDepth)}
	}
	rec := make(Record, len(p.fields))
	for _, fp := range p.fields {
		if fp.presence && !msg.Has(fp.desc) {
			continue
		}
		v, err := d.field(msg, fp, joinPath(path, fp.name), depth)
		if err != nil {
			return nil, err
		}
		rec[fp.name] = v
	}
	return rec, nil
}

func (d *Decoder) field(msg protoreflect.Message, fp *fieldPlan, path string, depth int) (interface{}, error) {
	switch fp.kind {
	case KindMessage:
		// proto3 cannot tell an unset message from an empty one once decoded
		if !msg.Has(fp.desc) {
			return Record{}, nil
		}
		return d.element(fp, msg.Get(fp.desc), path, depth)

	case KindRepeatedScalar, KindRepeatedEnum, KindRepeatedMessage:
		list := msg.Get(fp.desc).List()
		out := make([]interface{}, 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			v, err := d.element(fp, list.Get(i), joinPath(path, strconv.Itoa(i)), depth)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case KindMap:
		entries := msg.Get(fp.desc).Map()
		out := make(Record, entries.Len())
		var rangeErr error
		entries.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			key := mapKeyString(k)
			converted, err := d.element(fp.mapValue, v, joinPath(path, key), depth)
			if err != nil {
				rangeErr = err
				return false
			}
			out[key] = converted
			return true
		})
		if rangeErr != nil {
			return nil, rangeErr
		}
		return out, nil

	default:
		return d.element(fp, msg.Get(fp.desc), path, depth)
	}
}

// element converts one singular value: a scalar field, one list element or
// one map value.
func (d *Decoder) element(fp *fieldPlan, v protoreflect.Value, path string, depth int) (interface{}, error) {
	switch {
	case fp.message != nil:
		return d.message(v.Message(), fp.message, path, depth+1)
	case fp.enum != nil:
		return d.enumName(fp.enum, v.Enum(), path)
	default:
		return scalarValue(fp.desc, v), nil
	}
}

func (d *Decoder) enumName(t *EnumTable, n protoreflect.EnumNumber, path string) (interface{}, error) {
	name, err := t.ToName(n)
	if err == nil {
		return name, nil
	}
	if d.opts.EnumPolicy == EnumPolicyPassthrough {
		return int64(n), nil
	}
	return nil, &FieldError{Path: path, Err: err}
}

// scalarValue maps a protobuf scalar onto the Record value model: every signed
// or 32-bit unsigned integer becomes int64, 64-bit unsigned stays uint64,
// floats widen to float64.
func scalarValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) interface{} {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return int64(v.Uint())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint()
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		b := v.Bytes()
		out := make([]byte, len(b))
		copy(out, b)
		return out
	default:
		return v.Interface()
	}
}

func mapKeyString(k protoreflect.MapKey) string {
	switch key := k.Interface().(type) {
	case string:
		return key
	case bool:
		return strconv.FormatBool(key)
	case int32:
		return strconv.FormatInt(int64(key), 10)
	case int64:
		return strconv.FormatInt(key, 10)
	case uint32:
		return strconv.FormatUint(uint64(key), 10)
	case uint64:
		return strconv.FormatUint(key, 10)
	default:
		return fmt.Sprint(key)
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
