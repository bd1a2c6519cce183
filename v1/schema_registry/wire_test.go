package schema_registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testschema"
)

func TestSchemaIDRoundTrip(t *testing.T) {
	header := EncodeSchemaID(258)
	assert.Equal(t, []byte{0x0, 0x0, 0x0, 0x1, 0x2}, header)

	id, payload, err := DecodeSchemaID(append(header, 0xAA))
	require.NoError(t, err)
	assert.Equal(t, 258, id)
	assert.Equal(t, []byte{0xAA}, payload)
}

func TestDecodeSchemaIDErrors(t *testing.T) {
	_, _, err := DecodeSchemaID([]byte{0x0, 0x1})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)

	_, _, err = DecodeSchemaID([]byte{0x1, 0x0, 0x0, 0x0, 0x1})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)
}

func TestProtobufHeader(t *testing.T) {
	tests := []struct {
		name    string
		indexes []int
		want    []byte
	}{
		{name: "first message", indexes: []int{0}, want: []byte{0x0}},
		{name: "second message", indexes: []int{1}, want: []byte{0x2, 0x2}},
		{name: "nested", indexes: []int{1, 0, 2}, want: []byte{0x6, 0x2, 0x0, 0x4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framed := append(EncodeProtobufHeader(9, tt.indexes), 0x0A, 0x01, 'x')
			assert.Equal(t, tt.want, framed[headerSize:len(framed)-3])

			id, indexes, payload, err := DecodeProtobufHeader(framed)
			require.NoError(t, err)
			assert.Equal(t, 9, id)
			assert.Equal(t, tt.indexes, indexes)
			assert.Equal(t, []byte{0x0A, 0x01, 'x'}, payload)
		})
	}
}

func TestDecodeProtobufHeaderErrors(t *testing.T) {
	// count of 3 but only one index byte follows
	_, _, _, err := DecodeProtobufHeader([]byte{0x0, 0x0, 0x0, 0x0, 0x1, 0x6, 0x2})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)

	// truncated varint
	_, _, _, err = DecodeProtobufHeader([]byte{0x0, 0x0, 0x0, 0x0, 0x1, 0x80})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)

	// negative count
	_, _, _, err = DecodeProtobufHeader([]byte{0x0, 0x0, 0x0, 0x0, 0x1, 0x1})
	assert.ErrorIs(t, err, ErrInvalidWireFormat)
}

func TestMessageIndexes(t *testing.T) {
	files := testschema.MustFiles(testschema.ProbeResult(), testschema.DNSMessage())

	assert.Equal(t, []int{0}, MessageIndexes(testschema.Message(files, "PingIPv4Result")))
	assert.Equal(t, []int{1}, MessageIndexes(testschema.Message(files, "ProbeResult")))
	assert.Equal(t, []int{0, 1, 0}, MessageIndexes(testschema.Message(files, "PBDNSMessage.DNSResponse.DNSRR")))
}
