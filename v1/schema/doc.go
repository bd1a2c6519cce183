// Package schema resolves protobuf message classes from compiled schema files.
//
// A Request names a fully-qualified class and where its schema lives, in one
// of two modes:
//
//   - include_path: a list of serialized FileDescriptorSets (protoc -o,
//     buf build -o) or .proto sources, all of which are loaded;
//   - class_file + protobuf_root_directory: one entry file whose imports are
//     loaded automatically from the root. An import "x/y.proto" is looked up
//     as x/y.pb, x/y.binpb, x/y.protoset, x/y.desc and finally x/y.proto.
//
// Files are compiled into a Pool keyed by file path. DefaultPool is shared by
// the whole process, so a file is loaded once no matter how many pipelines
// name it; loading the same path with different content fails with
// ErrConfiguration. Well-known types linked into the binary are never read
// from disk.
//
// Registrations are cached per scope:
//
//	reg := schema.NewRegistry(schema.WithLogger(log))
//	class, err := reg.Resolve(ctx, schema.Request{
//		ClassName: "A.MessageA",
//		Locations: schema.Locations{
//			ClassFile:     "messageA.pb",
//			RootDirectory: "/etc/schemas",
//		},
//		Scope: "orders-pipeline",
//	})
//
// Resolving the same class again in the same scope returns the same
// *transcode.MessageClass. Concurrent resolutions in one scope are serialized;
// reads of one file by several scopes are collapsed into a single fetch.
//
// Schema files can also be read from a bucket with MinioSource, or from
// Redis values with RedisSource.
package schema
