package schema_registry

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const (
	magicByte  = 0x0
	headerSize = 5
)

// EncodeSchemaID encodes a schema ID in the Confluent wire format
// Format: [magic_byte][schema_id]
// - magic_byte: 0x0 (1 byte)
// - schema_id: 4 bytes (big-endian)
func EncodeSchemaID(schemaID int) []byte {
	buf := make([]byte, headerSize)
	buf[0] = magicByte
	binary.BigEndian.PutUint32(buf[1:], uint32(schemaID))
	return buf
}

// DecodeSchemaID decodes a schema ID from the Confluent wire format
// Returns the schema ID and the remaining payload (after the 5-byte header)
func DecodeSchemaID(data []byte) (int, []byte, error) {
	if len(data) < headerSize {
		return 0, nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrInvalidWireFormat, headerSize, len(data))
	}
	if data[0] != magicByte {
		return 0, nil, fmt.Errorf("%w: invalid magic byte 0x%x", ErrInvalidWireFormat, data[0])
	}
	return int(binary.BigEndian.Uint32(data[1:headerSize])), data[headerSize:], nil
}

// EncodeProtobufHeader builds the header of a protobuf payload: the schema id
// followed by the message indexes locating the message inside its schema file.
// The common case of the first top-level message is written as a single zero.
func EncodeProtobufHeader(schemaID int, indexes []int) []byte {
	buf := EncodeSchemaID(schemaID)
	if len(indexes) == 1 && indexes[0] == 0 {
		return protowire.AppendVarint(buf, 0)
	}
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(len(indexes))))
	for _, idx := range indexes {
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(idx)))
	}
	return buf
}

// DecodeProtobufHeader splits a framed protobuf payload into schema id,
// message indexes and the message bytes.
func DecodeProtobufHeader(data []byte) (int, []int, []byte, error) {
	schemaID, rest, err := DecodeSchemaID(data)
	if err != nil {
		return 0, nil, nil, err
	}

	count, n := readZigZag(rest)
	if n < 0 || count < 0 {
		return 0, nil, nil, fmt.Errorf("%w: malformed message index count", ErrInvalidWireFormat)
	}
	rest = rest[n:]
	if count == 0 {
		return schemaID, []int{0}, rest, nil
	}
	if count > int64(len(rest)) {
		return 0, nil, nil, fmt.Errorf("%w: %d message indexes announced, %d bytes left", ErrInvalidWireFormat, count, len(rest))
	}

	indexes := make([]int, 0, count)
	for i := int64(0); i < count; i++ {
		idx, n := readZigZag(rest)
		if n < 0 || idx < 0 {
			return 0, nil, nil, fmt.Errorf("%w: malformed message index %d", ErrInvalidWireFormat, i)
		}
		indexes = append(indexes, int(idx))
		rest = rest[n:]
	}
	return schemaID, indexes, rest, nil
}

func readZigZag(b []byte) (int64, int) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, n
	}
	return protowire.DecodeZigZag(v), n
}

// MessageIndexes returns the position of md inside its file: the index of
// the top-level message followed by the index of each nested message.
func MessageIndexes(md protoreflect.MessageDescriptor) []int {
	var reversed []int
	for d := protoreflect.Descriptor(md); ; {
		reversed = append(reversed, d.Index())
		parent, ok := d.Parent().(protoreflect.MessageDescriptor)
		if !ok {
			break
		}
		d = parent
	}
	out := make([]int, len(reversed))
	for i, idx := range reversed {
		out[len(reversed)-1-i] = idx
	}
	return out
}
