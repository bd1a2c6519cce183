package kafka

import "fmt"

// Serializer encodes outgoing message bodies. The codec package provides
// one that turns records into protobuf bytes.
type Serializer interface {
	Serialize(data interface{}) ([]byte, error)
}

// Deserializer decodes consumed message bodies into target.
type Deserializer interface {
	Deserialize(data []byte, target interface{}) error
}

// BytesSerializer passes []byte and string bodies through unchanged.
type BytesSerializer struct{}

func (BytesSerializer) Serialize(data interface{}) ([]byte, error) {
	switch v := data.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: cannot publish %T without a serializer", ErrInvalidMessage, data)
	}
}

// BytesDeserializer copies the raw body into a *[]byte target.
type BytesDeserializer struct{}

func (BytesDeserializer) Deserialize(data []byte, target interface{}) error {
	ptr, ok := target.(*[]byte)
	if !ok {
		return fmt.Errorf("%w: cannot deserialize into %T without a deserializer", ErrInvalidMessage, target)
	}
	*ptr = append((*ptr)[:0], data...)
	return nil
}
