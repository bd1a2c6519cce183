package transcode

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	minInt32 = math.MinInt32
	maxInt32 = math.MaxInt32

	// float64 bounds of the int64/uint64 ranges, exclusive at the top
	twoPow63 = 9223372036854775808.0
	twoPow64 = 18446744073709551616.0
)

// scalarToValue casts a record value to the declared scalar kind of fd.
// Integers are range checked, integral floats are accepted for integer kinds.
func scalarToValue(fd protoreflect.FieldDescriptor, raw interface{}, path string) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if b, ok := raw.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}

	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		if i, ok := toInt64(raw); ok {
			if i < minInt32 || i > maxInt32 {
				return protoreflect.Value{}, fieldErrorf(path, ErrEncode, "value %d overflows %s", i, fd.Kind())
			}
			return protoreflect.ValueOfInt32(int32(i)), nil
		}

	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if i, ok := toInt64(raw); ok {
			return protoreflect.ValueOfInt64(i), nil
		}

	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		if u, ok := toUint64(raw); ok {
			if u > math.MaxUint32 {
				return protoreflect.Value{}, fieldErrorf(path, ErrEncode, "value %d overflows %s", u, fd.Kind())
			}
			return protoreflect.ValueOfUint32(uint32(u)), nil
		}

	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if u, ok := toUint64(raw); ok {
			return protoreflect.ValueOfUint64(u), nil
		}

	case protoreflect.FloatKind:
		if f, ok := toFloat64(raw); ok {
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}

	case protoreflect.DoubleKind:
		if f, ok := toFloat64(raw); ok {
			return protoreflect.ValueOfFloat64(f), nil
		}

	case protoreflect.StringKind:
		if s, ok := raw.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}

	case protoreflect.BytesKind:
		switch b := raw.(type) {
		case []byte:
			return protoreflect.ValueOfBytes(b), nil
		case string:
			return protoreflect.ValueOfBytes([]byte(b)), nil
		}
	}
	return protoreflect.Value{}, fieldErrorf(path, ErrEncode, "cannot use %T as %s", raw, fd.Kind())
}

func toInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -twoPow63 || f >= twoPow63 {
		return 0, false
	}
	return int64(f), true
}

func toUint64(raw interface{}) (uint64, bool) {
	switch v := raw.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case float32:
		return floatToUint64(float64(v))
	case float64:
		return floatToUint64(v)
	case json.Number:
		u, err := strconv.ParseUint(v.String(), 10, 64)
		return u, err == nil
	default:
		i, ok := toInt64(raw)
		if !ok || i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
}

func floatToUint64(f float64) (uint64, bool) {
	if f != math.Trunc(f) || f < 0 || f >= twoPow64 {
		return 0, false
	}
	return uint64(f), true
}

func toFloat64(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case uint64:
		return float64(v), true
	case uint:
		return float64(v), true
	default:
		i, ok := toInt64(raw)
		return float64(i), ok
	}
}

func parseMapKey(fd protoreflect.FieldDescriptor, key, path string) (protoreflect.MapKey, error) {
	var (
		v   protoreflect.Value
		err error
	)
	switch fd.Kind() {
	case protoreflect.StringKind:
		v = protoreflect.ValueOfString(key)
	case protoreflect.BoolKind:
		var b bool
		b, err = strconv.ParseBool(key)
		v = protoreflect.ValueOfBool(b)
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		var i int64
		i, err = strconv.ParseInt(key, 10, 32)
		v = protoreflect.ValueOfInt32(int32(i))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		var i int64
		i, err = strconv.ParseInt(key, 10, 64)
		v = protoreflect.ValueOfInt64(i)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		var u uint64
		u, err = strconv.ParseUint(key, 10, 32)
		v = protoreflect.ValueOfUint32(uint32(u))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		var u uint64
		u, err = strconv.ParseUint(key, 10, 64)
		v = protoreflect.ValueOfUint64(u)
	default:
		return protoreflect.MapKey{}, fieldErrorf(path, ErrEncode, "unsupported map key kind %s", fd.Kind())
	}
	if err != nil {
		return protoreflect.MapKey{}, fieldErrorf(path, ErrEncode, "map key %q is not a valid %s", key, fd.Kind())
	}
	return v.MapKey(), nil
}

// toSlice accepts []interface{} and, through reflection, any other slice or
// array type a host may hand over ([]string, []int64, []Record...).
func toSlice(raw interface{}) ([]interface{}, bool) {
	if items, ok := raw.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// toStringMap accepts Records and any map keyed by strings.
func toStringMap(raw interface{}) (map[string]interface{}, bool) {
	switch m := raw.(type) {
	case Record:
		return m, true
	case map[string]interface{}:
		return m, true
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
