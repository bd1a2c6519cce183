package transcode

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Encoder converts Records into protobuf bytes. It holds no mutable state and
// may be shared between goroutines.
type Encoder struct {
	opts    Options
	marshal proto.MarshalOptions
}

// NewEncoder returns an Encoder with deterministic serialization.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{
		opts:    newOptions(opts),
		marshal: proto.MarshalOptions{Deterministic: true},
	}
}

// Encode builds the root message of class from rec and serializes it.
func (e *Encoder) Encode(rec map[string]interface{}, class *MessageClass) ([]byte, error) {
	msg, err := e.Build(rec, class)
	if err != nil {
		return nil, err
	}
	data, err := e.marshal.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, class.FullName(), err)
	}
	return data, nil
}

// Build populates a dynamic message of the class root type from rec.
// Keys without a matching schema field and nil values are skipped; fields
// missing from rec keep their protobuf defaults.
func (e *Encoder) Build(rec map[string]interface{}, class *MessageClass) (*dynamicpb.Message, error) {
	if class == nil {
		return nil, ErrNilClass
	}
	msg := dynamicpb.NewMessage(class.desc)
	if err := e.fill(msg, class.root, rec, "", 0); err != nil {
		return nil, err
	}
	return msg, nil
}

func (e *Encoder) fill(msg protoreflect.Message, p *messagePlan, rec map[string]interface{}, path string, depth int) error {
	if depth > e.opts.MaxDepth {
		return &FieldError{Path: path, Err: fmt.Errorf("%w: %w", ErrEncode, ErrMaxDepth), Msg: fmt.Sprintf("limit %d", e.opts.MaxDepth)}
	}
	for key, raw := range rec {
		fp, ok := p.byName[key]
		if !ok || raw == nil {
			continue
		}
		if err := e.field(msg, fp, raw, joinPath(path, key), depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) field(msg protoreflect.Message, fp *fieldPlan, raw interface{}, path string, depth int) error {
	switch fp.kind {
	case KindMessage:
		sub, ok := toStringMap(raw)
		if !ok {
			return fieldErrorf(path, ErrEncode, "expected a record for message %s, got %T", fp.desc.Message().FullName(), raw)
		}
		return e.fill(msg.Mutable(fp.desc).Message(), fp.message, sub, path, depth+1)

	case KindRepeatedScalar, KindRepeatedEnum, KindRepeatedMessage:
		items, ok := toSlice(raw)
		if !ok {
			return fieldErrorf(path, ErrEncode, "expected a sequence for repeated field, got %T", raw)
		}
		list := msg.Mutable(fp.desc).List()
		for i, item := range items {
			elemPath := joinPath(path, strconv.Itoa(i))
			if item == nil {
				return fieldErrorf(elemPath, ErrEncode, "repeated fields cannot hold null")
			}
			v, err := e.element(fp, list.NewElement, item, elemPath, depth)
			if err != nil {
				return err
			}
			list.Append(v)
		}
		return nil

	case KindMap:
		entries, ok := toStringMap(raw)
		if !ok {
			return fieldErrorf(path, ErrEncode, "expected a record for map field, got %T", raw)
		}
		m := msg.Mutable(fp.desc).Map()
		for k, item := range entries {
			entryPath := joinPath(path, k)
			key, err := parseMapKey(fp.desc.MapKey(), k, entryPath)
			if err != nil {
				return err
			}
			if item == nil {
				return fieldErrorf(entryPath, ErrEncode, "map values cannot be null")
			}
			v, err := e.element(fp.mapValue, m.NewValue, item, entryPath, depth)
			if err != nil {
				return err
			}
			m.Set(key, v)
		}
		return nil

	default:
		v, err := e.element(fp, nil, raw, path, depth)
		if err != nil {
			return err
		}
		msg.Set(fp.desc, v)
		return nil
	}
}

// element converts one singular value. newMessage allocates the container
// element for message-typed list elements and map values.
func (e *Encoder) element(fp *fieldPlan, newMessage func() protoreflect.Value, raw interface{}, path string, depth int) (protoreflect.Value, error) {
	switch {
	case fp.message != nil:
		sub, ok := toStringMap(raw)
		if !ok {
			return protoreflect.Value{}, fieldErrorf(path, ErrEncode, "expected a record for message %s, got %T", fp.message.desc.FullName(), raw)
		}
		v := newMessage()
		if err := e.fill(v.Message(), fp.message, sub, path, depth+1); err != nil {
			return protoreflect.Value{}, err
		}
		return v, nil
	case fp.enum != nil:
		return e.enumValue(fp.enum, raw, path)
	default:
		return scalarToValue(fp.desc, raw, path)
	}
}

func (e *Encoder) enumValue(t *EnumTable, raw interface{}, path string) (protoreflect.Value, error) {
	if name, ok := raw.(string); ok {
		n, err := t.ToValue(name)
		if err != nil {
			return protoreflect.Value{}, &FieldError{Path: path, Err: err}
		}
		return protoreflect.ValueOfEnum(n), nil
	}
	i, ok := toInt64(raw)
	if !ok {
		return protoreflect.Value{}, fieldErrorf(path, ErrEncode, "expected enum %s symbol or number, got %T", t.FullName(), raw)
	}
	if i < minInt32 || i > maxInt32 {
		return protoreflect.Value{}, fieldErrorf(path, ErrEncode, "enum number %d out of range", i)
	}
	n := protoreflect.EnumNumber(i)
	if !t.HasNumber(n) && e.opts.EnumPolicy != EnumPolicyPassthrough {
		return protoreflect.Value{}, &FieldError{Path: path, Err: fmt.Errorf("%w: %s has no value %d", ErrUnknownEnumValue, t.FullName(), n)}
	}
	return protoreflect.ValueOfEnum(n), nil
}
