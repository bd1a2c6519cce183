package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// compiledExtensions are tried, in order, before the .proto source when a
// dependency "x/y.proto" is auto-loaded.
var compiledExtensions = []string{".pb", ".binpb", ".protoset", ".desc"}

type fetchFunc func(ctx context.Context, name string) ([]byte, error)

type visitState int

const (
	unvisited visitState = iota
	inProgress
	visited
)

// loader resolves one request's schema files into the pool. It is used by a
// single goroutine and discarded afterwards.
type loader struct {
	ctx   context.Context
	pool  *Pool
	fetch fetchFunc

	// root enables auto-loading of dependencies; empty in include_path mode.
	root string

	available map[string]*descriptorpb.FileDescriptorProto
	state     map[string]visitState

	// loaded counts files newly read from the source
	loaded int
}

func newLoader(ctx context.Context, pool *Pool, fetch fetchFunc) *loader {
	return &loader{
		ctx:       ctx,
		pool:      pool,
		fetch:     fetch,
		available: make(map[string]*descriptorpb.FileDescriptorProto),
		state:     make(map[string]visitState),
	}
}

func (l *loader) load(loc Locations) error {
	if len(loc.IncludePath) > 0 {
		return l.loadIncludePath(loc.IncludePath)
	}
	return l.loadClassFile(loc.ClassFile, loc.RootDirectory)
}

// loadIncludePath loads every listed file. Dependencies must be among them or
// already loaded.
func (l *loader) loadIncludePath(paths []string) error {
	var roots []string
	for _, p := range paths {
		names, err := l.readSchemaFile(p, filepath.Dir(p))
		if err != nil {
			return err
		}
		roots = append(roots, names...)
	}
	for _, name := range roots {
		if err := l.visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// loadClassFile loads the entry file and auto-loads its dependencies from root.
func (l *loader) loadClassFile(classFile, root string) error {
	entry := classFile
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(root, entry)
	}
	if root == "" {
		root = filepath.Dir(entry)
	}
	l.root = root

	names, err := l.readSchemaFile(entry, root)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := l.visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// readSchemaFile reads a descriptor set or compiles a .proto source and
// offers the contained files. It returns their declared names.
func (l *loader) readSchemaFile(path, importRoot string) ([]string, error) {
	if strings.HasSuffix(path, ".proto") {
		rel, err := filepath.Rel(importRoot, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		fdps, err := l.compileSource(importRoot, rel)
		if err != nil {
			return nil, err
		}
		// the first file is the one asked for, the rest are its imports
		return []string{fdps[0].GetName()}, nil
	}

	data, err := l.fetch(l.ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: schema file %s not found", ErrClassResolution, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrClassResolution, path, err)
	}
	return l.offerSet(path, data)
}

func (l *loader) offerSet(path string, data []byte) ([]string, error) {
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, set); err != nil || len(set.GetFile()) == 0 {
		return nil, fmt.Errorf("%w: %s is not a serialized FileDescriptorSet", ErrClassResolution, path)
	}
	l.loaded++

	names := make([]string, 0, len(set.GetFile()))
	for _, fdp := range set.GetFile() {
		if err := l.offer(fdp); err != nil {
			return nil, err
		}
		names = append(names, fdp.GetName())
	}
	return names, nil
}

// offer makes fdp available for registration. Two different definitions of
// one path within a request are a configuration error.
func (l *loader) offer(fdp *descriptorpb.FileDescriptorProto) error {
	name := fdp.GetName()
	if prev, ok := l.available[name]; ok {
		if !proto.Equal(normalize(prev), normalize(fdp)) {
			return fmt.Errorf("%w: %s is defined twice with different content", ErrConfiguration, name)
		}
		return nil
	}
	l.available[name] = fdp
	return nil
}

// visit registers name after its dependencies, depth first. stack holds the
// import chain for cycle reports.
func (l *loader) visit(name string, stack []string) error {
	switch l.state[name] {
	case visited:
		return nil
	case inProgress:
		return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(append(stack, name), " -> "))
	}

	fdp, ok := l.available[name]
	if !ok {
		if l.pool.Has(name) {
			l.state[name] = visited
			return nil
		}
		if err := l.autoload(name, stack); err != nil {
			return err
		}
		fdp = l.available[name]
	}

	l.state[name] = inProgress
	chain := append(stack, name)
	for _, dep := range fdp.GetDependency() {
		if err := l.visit(dep, chain); err != nil {
			return err
		}
	}
	if _, err := l.pool.Register(fdp); err != nil {
		return err
	}
	l.state[name] = visited
	return nil
}

// autoload locates a missing dependency in the root directory, preferring
// compiled descriptor sets over the .proto source.
func (l *loader) autoload(name string, stack []string) error {
	importer := "request"
	if len(stack) > 0 {
		importer = stack[len(stack)-1]
	}
	if l.root == "" {
		return fmt.Errorf("%w: dependency %q of %s is not listed in `include_path`", ErrClassResolution, name, importer)
	}

	base := strings.TrimSuffix(name, ".proto")
	for _, ext := range compiledExtensions {
		candidate := filepath.Join(l.root, base+ext)
		data, err := l.fetch(l.ctx, candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrClassResolution, candidate, err)
		}
		if _, err := l.offerSet(candidate, data); err != nil {
			return err
		}
		if _, ok := l.available[name]; !ok {
			return fmt.Errorf("%w: %s does not contain %s", ErrClassResolution, candidate, name)
		}
		return nil
	}

	source := filepath.Join(l.root, name)
	if _, err := l.fetch(l.ctx, source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: dependency %q of %s not found in %s", ErrClassResolution, name, importer, l.root)
		}
		return fmt.Errorf("%w: read %s: %v", ErrClassResolution, source, err)
	}
	_, err := l.compileSource(l.root, name)
	return err
}

// compileSource parses a .proto file and its imports with protoparse and
// offers every resulting file that is not linked into the binary. The
// requested file comes first in the result.
func (l *loader) compileSource(importRoot, rel string) ([]*descriptorpb.FileDescriptorProto, error) {
	parser := protoparse.Parser{
		ImportPaths: []string{importRoot},
		Accessor: func(filename string) (io.ReadCloser, error) {
			data, err := l.fetch(l.ctx, filename)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
		LookupImportProto: func(name string) (*descriptorpb.FileDescriptorProto, error) {
			if fdp, ok := l.available[name]; ok {
				return fdp, nil
			}
			if fdp, ok := l.pool.FileProto(name); ok {
				return fdp, nil
			}
			return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
		},
	}

	parsed, err := parser.ParseFiles(filepath.ToSlash(rel))
	if err != nil {
		if strings.Contains(err.Error(), "cycle") {
			return nil, fmt.Errorf("%w: %v", ErrCyclicDependency, err)
		}
		return nil, fmt.Errorf("%w: compile %s: %v", ErrClassResolution, rel, err)
	}
	l.loaded++

	var out []*descriptorpb.FileDescriptorProto
	seen := make(map[string]bool)
	var collect func(fd *desc.FileDescriptor) error
	collect = func(fd *desc.FileDescriptor) error {
		name := fd.GetName()
		if seen[name] {
			return nil
		}
		seen[name] = true
		if _, err := protoregistry.GlobalFiles.FindFileByPath(name); err == nil {
			return nil
		}
		fdp := fd.AsFileDescriptorProto()
		if err := l.offer(fdp); err != nil {
			return err
		}
		out = append(out, fdp)
		for _, dep := range fd.GetDependencies() {
			if err := collect(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, fd := range parsed {
		if err := collect(fd); err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s produced no schema", ErrClassResolution, rel)
	}
	return out, nil
}
