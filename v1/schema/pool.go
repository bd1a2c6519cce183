package schema

import (
	"errors"
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	// well-known types resolvable without shipping their descriptors
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/fieldmaskpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// Pool is a load-once store of compiled schema files keyed by file path.
// Imports fall through to the linked-in global registry, so well-known types
// never need to be loaded as dependencies.
type Pool struct {
	mu    sync.RWMutex
	files *protoregistry.Files
	raw   map[string]*descriptorpb.FileDescriptorProto

	// linked holds linked-in files that were loaded explicitly; only their
	// messages are visible to FindMessage.
	linked map[string]bool
}

// DefaultPool is shared by every registry that is not given its own pool.
// Schema files are loaded into it at most once per process.
var DefaultPool = NewPool()

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		files:  new(protoregistry.Files),
		raw:    make(map[string]*descriptorpb.FileDescriptorProto),
		linked: make(map[string]bool),
	}
}

// Has reports whether path is loaded in the pool or linked into the binary.
func (p *Pool) Has(path string) bool {
	_, ok := p.FindFile(path)
	return ok
}

// FindFile returns the file registered under path.
func (p *Pool) FindFile(path string) (protoreflect.FileDescriptor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.findFileLocked(path)
}

func (p *Pool) findFileLocked(path string) (protoreflect.FileDescriptor, bool) {
	if fd, err := p.files.FindFileByPath(path); err == nil {
		return fd, true
	}
	if fd, err := protoregistry.GlobalFiles.FindFileByPath(path); err == nil {
		return fd, true
	}
	return nil, false
}

// Register compiles fdp against the files already present and adds it.
// Registering a path again with identical content returns the loaded file;
// different content under the same path fails with ErrConfiguration.
func (p *Pool) Register(fdp *descriptorpb.FileDescriptorProto) (protoreflect.FileDescriptor, error) {
	path := fdp.GetName()
	if path == "" {
		return nil, fmt.Errorf("%w: schema file without a name", ErrClassResolution)
	}

	fdp = normalize(fdp)

	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.raw[path]; ok {
		if !proto.Equal(prev, fdp) {
			return nil, fmt.Errorf("%w: %s is already loaded with a different definition", ErrConfiguration, path)
		}
		fd, _ := p.files.FindFileByPath(path)
		return fd, nil
	}
	if fd, err := protoregistry.GlobalFiles.FindFileByPath(path); err == nil {
		p.linked[path] = true
		return fd, nil
	}

	fd, err := protodesc.NewFile(fdp, chainResolver{p.files})
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %v", ErrClassResolution, path, err)
	}
	if err := p.files.RegisterFile(fd); err != nil {
		// another file already declares one of its names
		return nil, fmt.Errorf("%w: register %s: %v", ErrConfiguration, path, err)
	}
	p.raw[path] = fdp
	return fd, nil
}

// normalize returns a copy without source locations, which differ between
// compilers and carry no schema meaning.
func normalize(fdp *descriptorpb.FileDescriptorProto) *descriptorpb.FileDescriptorProto {
	out := proto.Clone(fdp).(*descriptorpb.FileDescriptorProto)
	out.SourceCodeInfo = nil
	return out
}

// FileProto returns the descriptor proto of a loaded or linked-in file.
func (p *Pool) FileProto(path string) (*descriptorpb.FileDescriptorProto, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if raw, ok := p.raw[path]; ok {
		return raw, true
	}
	if fd, err := protoregistry.GlobalFiles.FindFileByPath(path); err == nil {
		return protodesc.ToFileDescriptorProto(fd), true
	}
	return nil, false
}

// FindMessage looks up a message by fully-qualified name among the files
// registered in the pool. Linked-in types are found only when their file was
// registered too; resolving imports is not restricted this way.
func (p *Pool) FindMessage(name string) (protoreflect.MessageDescriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	full := protoreflect.FullName(name)
	d, err := p.files.FindDescriptorByName(full)
	if errors.Is(err, protoregistry.NotFound) {
		d, err = protoregistry.GlobalFiles.FindDescriptorByName(full)
		if err == nil && !p.linked[d.ParentFile().Path()] {
			err = protoregistry.NotFound
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: class %q not found", ErrClassResolution, name)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a message", ErrClassResolution, name)
	}
	return md, nil
}

// Len returns the number of files loaded into the pool itself.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.raw)
}

// chainResolver resolves against the pool first, then the global registry.
type chainResolver struct {
	files *protoregistry.Files
}

func (r chainResolver) FindFileByPath(path string) (protoreflect.FileDescriptor, error) {
	fd, err := r.files.FindFileByPath(path)
	if errors.Is(err, protoregistry.NotFound) {
		return protoregistry.GlobalFiles.FindFileByPath(path)
	}
	return fd, err
}

func (r chainResolver) FindDescriptorByName(name protoreflect.FullName) (protoreflect.Descriptor, error) {
	d, err := r.files.FindDescriptorByName(name)
	if errors.Is(err, protoregistry.NotFound) {
		return protoregistry.GlobalFiles.FindDescriptorByName(name)
	}
	return d, err
}
