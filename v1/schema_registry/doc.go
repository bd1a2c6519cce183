// Package schema_registry provides integration with Confluent Schema Registry.
//
// The codec uses it to frame protobuf payloads the way Confluent serializers
// do: a zero magic byte, the 4-byte big-endian schema id and the message
// indexes that locate the message inside its registered schema file.
//
// Core Features:
//   - HTTP client for Confluent Schema Registry with id and subject caches
//   - Schema registration, retrieval and compatibility checks
//   - Confluent wire format encoding/decoding, including protobuf message indexes
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/pbcodec/v1/schema_registry"
//
//	registry, err := schema_registry.NewClient(schema_registry.Config{
//	    URL:     "http://localhost:8081",
//	    Timeout: 10 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	meta, err := registry.GetLatestSchema(ctx, "unicorns-value")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	header := schema_registry.EncodeProtobufHeader(meta.ID, schema_registry.MessageIndexes(md))
//	framed := append(header, payload...)
//
//	id, indexes, payload, err := schema_registry.DecodeProtobufHeader(framed)
//
// Using with FX:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(func() schema_registry.Config {
//	        return schema_registry.Config{URL: os.Getenv("SCHEMA_REGISTRY_URL")}
//	    }),
//	)
//
// Wire Format:
//
//	[0x00][schema id, 4 bytes big-endian][message indexes][protobuf payload]
//
// Message indexes are a zigzag varint count followed by zigzag varint
// indexes. The single index [0] is written as one 0x00 byte.
//
// Thread Safety:
//
// The Client is safe for concurrent use; caches are guarded by RWMutexes.
package schema_registry
