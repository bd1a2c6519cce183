package testschema

import (
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// NewFiles compiles fds, in order, into a fresh registry. A file may only
// depend on files listed before it.
func NewFiles(fds ...*descriptorpb.FileDescriptorProto) (*protoregistry.Files, error) {
	files := new(protoregistry.Files)
	for _, fdp := range fds {
		fd, err := protodesc.NewFile(fdp, files)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", fdp.GetName(), err)
		}
		if err := files.RegisterFile(fd); err != nil {
			return nil, fmt.Errorf("register %s: %w", fdp.GetName(), err)
		}
	}
	return files, nil
}

// MustFiles is NewFiles that panics on error.
func MustFiles(fds ...*descriptorpb.FileDescriptorProto) *protoregistry.Files {
	files, err := NewFiles(fds...)
	if err != nil {
		panic(err)
	}
	return files
}

// Files compiles every acyclic fixture.
func Files() *protoregistry.Files {
	return MustFiles(All()...)
}

// Message looks up a message descriptor by full name in files, panicking if
// it is missing.
func Message(files *protoregistry.Files, name string) protoreflect.MessageDescriptor {
	d, err := files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		panic(fmt.Sprintf("testschema: %s: %v", name, err))
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		panic(fmt.Sprintf("testschema: %s is a %T, not a message", name, d))
	}
	return md
}

// MustMessage compiles fds and returns the named message from them.
func MustMessage(name string, fds ...*descriptorpb.FileDescriptorProto) protoreflect.MessageDescriptor {
	return Message(MustFiles(fds...), name)
}

// Set wraps fds in a FileDescriptorSet.
func Set(fds ...*descriptorpb.FileDescriptorProto) *descriptorpb.FileDescriptorSet {
	return &descriptorpb.FileDescriptorSet{File: fds}
}

// WriteSet serializes a FileDescriptorSet holding fds to dir/name, creating
// parent directories as needed, and returns the written path.
func WriteSet(dir, name string, fds ...*descriptorpb.FileDescriptorProto) (string, error) {
	raw, err := proto.Marshal(Set(fds...))
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
