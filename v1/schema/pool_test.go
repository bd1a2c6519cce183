package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testschema"
)

func TestPoolRegisterIsIdempotent(t *testing.T) {
	pool := NewPool()

	first, err := pool.Register(testschema.Unicorn())
	require.NoError(t, err)
	second, err := pool.Register(testschema.Unicorn())
	require.NoError(t, err)

	assert.Equal(t, first.Path(), second.Path())
	assert.Equal(t, 1, pool.Len())
}

func TestPoolRejectsRedefinition(t *testing.T) {
	pool := NewPool()

	_, err := pool.Register(testschema.Unicorn())
	require.NoError(t, err)

	_, err = pool.Register(testschema.UnicornV2())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPoolIgnoresSourceInfo(t *testing.T) {
	pool := NewPool()
	_, err := pool.Register(testschema.IntegerTest())
	require.NoError(t, err)

	withInfo := testschema.IntegerTest()
	withInfo.SourceCodeInfo = &descriptorpb.SourceCodeInfo{}
	_, err = pool.Register(withInfo)
	assert.NoError(t, err)
}

func TestPoolMissingDependency(t *testing.T) {
	pool := NewPool()

	_, err := pool.Register(testschema.MessageA())
	assert.ErrorIs(t, err, ErrClassResolution)
}

func TestPoolFindMessage(t *testing.T) {
	pool := NewPool()
	_, err := pool.Register(testschema.Unicorn())
	require.NoError(t, err)

	md, err := pool.FindMessage("Unicorn")
	require.NoError(t, err)
	assert.EqualValues(t, "Unicorn", md.FullName())

	_, err = pool.FindMessage("Colour")
	assert.ErrorIs(t, err, ErrClassResolution)

	_, err = pool.FindMessage("Pegasus")
	assert.ErrorIs(t, err, ErrClassResolution)

	// linked-in types are importable but not classes until their file is loaded
	assert.True(t, pool.Has("google/protobuf/timestamp.proto"))
	_, err = pool.FindMessage("google.protobuf.Timestamp")
	assert.ErrorIs(t, err, ErrClassResolution)
	_, err = pool.FindMessage("google.protobuf.FileDescriptorProto")
	assert.ErrorIs(t, err, ErrClassResolution)

	_, err = pool.Register(protodesc.ToFileDescriptorProto(timestamppb.File_google_protobuf_timestamp_proto))
	require.NoError(t, err)
	md, err = pool.FindMessage("google.protobuf.Timestamp")
	require.NoError(t, err)
	assert.EqualValues(t, "google.protobuf.Timestamp", md.FullName())
}
