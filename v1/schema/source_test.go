package schema

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/Aleph-Alpha/pbcodec/v1/internal/testschema"
	"github.com/Aleph-Alpha/pbcodec/v1/minio"
	"github.com/Aleph-Alpha/pbcodec/v1/redis"
)

// memoryObjects is an in-memory minio.Client.
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    map[string]int
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte), gets: make(map[string]int)}
}

func (m *memoryObjects) Put(_ context.Context, key string, reader io.Reader, _ ...int64) (int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return int64(len(data)), nil
}

func (m *memoryObjects) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets[key]++
	data, ok := m.objects[key]
	if !ok {
		return nil, minio.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryObjects) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryObjects) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) GracefulShutdown() {}

func (m *memoryObjects) putSet(t *testing.T, key string, fds ...*descriptorpb.FileDescriptorProto) {
	t.Helper()
	raw, err := proto.Marshal(testschema.Set(fds...))
	require.NoError(t, err)
	_, err = m.Put(context.Background(), key, bytes.NewReader(raw))
	require.NoError(t, err)
}

func (m *memoryObjects) getCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets[key]
}

// memoryValues is an in-memory redis.Client.
type memoryValues struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemoryValues() *memoryValues {
	return &memoryValues{values: make(map[string][]byte)}
}

func (m *memoryValues) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	if !ok {
		return nil, redis.ErrKeyNotFound
	}
	return data, nil
}

func (m *memoryValues) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryValues) Delete(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryValues) Keys(context.Context, string) ([]string, error) { return nil, nil }
func (m *memoryValues) Ping(context.Context) error                     { return nil }
func (m *memoryValues) Close() error                                   { return nil }

func (m *memoryValues) putSet(t *testing.T, key string, fds ...*descriptorpb.FileDescriptorProto) {
	t.Helper()
	raw, err := proto.Marshal(testschema.Set(fds...))
	require.NoError(t, err)
	require.NoError(t, m.Set(context.Background(), key, raw, 0))
}

func TestMinioSourceKeys(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   string
	}{
		{prefix: "", name: "unicorn.pb", want: "unicorn.pb"},
		{prefix: "", name: "/schemas/unicorn.pb", want: "schemas/unicorn.pb"},
		{prefix: "team-a", name: "/schemas/unicorn.pb", want: "team-a/schemas/unicorn.pb"},
		{prefix: "team-a/", name: "schemas/../unicorn.pb", want: "team-a/unicorn.pb"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMinioSource(nil, tt.prefix).key(tt.name))
		})
	}
}

func TestMinioSourceMissingObject(t *testing.T) {
	source := NewMinioSource(newMemoryObjects(), "schemas")

	_, err := source.ReadFile(context.Background(), "missing.pb")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "schemas/missing.pb")
	assert.Equal(t, "minio:schemas", source.Name())
}

func TestResolveFromMinio(t *testing.T) {
	objects := newMemoryObjects()
	objects.putSet(t, "schemas/header.pb", testschema.Header())
	objects.putSet(t, "schemas/messageA.pb", testschema.MessageA())

	reg := newTestRegistry(WithSource(NewMinioSource(objects, "schemas")))
	req := Request{
		ClassName: "A.MessageA",
		Locations: Locations{ClassFile: "messageA.pb", RootDirectory: "/"},
	}
	class, err := reg.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, "A.MessageA", class.FullName())
	assert.Equal(t, 1, objects.getCount("schemas/header.pb"))

	// a second scope reuses the loaded files
	req.Scope = "other"
	_, err = reg.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, objects.getCount("schemas/header.pb"))
}

func TestResolveFromRedis(t *testing.T) {
	values := newMemoryValues()
	values.putSet(t, "protos/header.pb", testschema.Header())
	values.putSet(t, "protos/messageA.pb", testschema.MessageA())

	source := NewRedisSource(values, "protos")
	assert.Equal(t, "redis:protos", source.Name())

	_, err := source.ReadFile(context.Background(), "missing.pb")
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "protos/missing.pb")

	reg := newTestRegistry(WithSource(source))
	class, err := reg.Resolve(context.Background(), Request{
		ClassName: "A.MessageA",
		Locations: Locations{ClassFile: "messageA.pb", RootDirectory: "/"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, "A.MessageA", class.FullName())
}

func TestRequestSourceOverridesRegistrySource(t *testing.T) {
	objects := newMemoryObjects()
	objects.putSet(t, "unicorn.pb", testschema.Unicorn())

	reg := newTestRegistry()
	_, err := reg.Resolve(context.Background(), Request{
		ClassName: "Unicorn",
		Locations: Locations{IncludePath: []string{"unicorn.pb"}},
		Source:    NewMinioSource(objects, ""),
	})
	assert.NoError(t, err)
}

func TestNewRegistryWithFX(t *testing.T) {
	objects := newMemoryObjects()
	objects.putSet(t, "protos/unicorn.pb", testschema.Unicorn())

	var reg *Registry
	app := fxtest.New(t,
		FXModule,
		fx.Provide(
			func() Config {
				return Config{Source: SourceMinio, Prefix: "protos", PrivatePool: true}
			},
			func() minio.Client { return objects },
		),
		fx.Populate(&reg),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, reg)
	assert.NotSame(t, DefaultPool, reg.Pool())

	_, err := reg.Resolve(context.Background(), Request{
		ClassName: "Unicorn",
		Locations: Locations{IncludePath: []string{"unicorn.pb"}},
	})
	assert.NoError(t, err)
}

func TestNewRegistryWithFXRedis(t *testing.T) {
	values := newMemoryValues()
	values.putSet(t, "protos/unicorn.pb", testschema.Unicorn())

	reg, err := NewRegistryWithFX(RegistryParams{
		Config: Config{Source: SourceRedis, Prefix: "protos", PrivatePool: true},
		Redis:  values,
	})
	require.NoError(t, err)

	_, err = reg.Resolve(context.Background(), Request{
		ClassName: "Unicorn",
		Locations: Locations{IncludePath: []string{"unicorn.pb"}},
		Scope:     "redis-fx",
	})
	assert.NoError(t, err)
}

func TestNewRegistryWithFXErrors(t *testing.T) {
	_, err := NewRegistryWithFX(RegistryParams{Config: Config{Source: SourceMinio}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRegistryWithFX(RegistryParams{Config: Config{Source: SourceRedis}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRegistryWithFX(RegistryParams{Config: Config{Source: "ftp"}})
	assert.ErrorIs(t, err, ErrConfiguration)

	reg, err := NewRegistryWithFX(RegistryParams{Config: Config{}})
	require.NoError(t, err)
	assert.Same(t, DefaultPool, reg.Pool())
}
