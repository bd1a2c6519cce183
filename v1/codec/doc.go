// Package codec turns protobuf payloads of one configured message class into
// generic records and back.
//
// A Codec is configured like the protobuf codec of a log pipeline: a
// class_name plus either an include_path list of compiled schema files or a
// class_file whose imports are loaded from protobuf_root_directory. Register
// resolves the class through a schema.Registry; it is idempotent, so a
// pipeline may call it on every (re)start. Decode and Encode are then safe
// for concurrent use.
//
//	c, err := codec.NewCodec(codec.Config{
//	    ClassName: "A.MessageA",
//	    Locations: schema.Locations{
//	        ClassFile:     "messageA.pb",
//	        RootDirectory: "/etc/schemas",
//	    },
//	}, log, registry)
//	if err != nil {
//	    return err
//	}
//	if err := c.Register(ctx); err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	rec, err := c.Decode(ctx, payload)
//	out, err := c.Encode(ctx, rec)
//
// Host events plug in through the Event interface (DecodeTo, EncodeFrom);
// MapEvent is a map-backed implementation.
//
// # Framing
//
// With Framing.Enabled, encoded payloads carry the Confluent Schema Registry
// header `[0x0][schema id][message indexes]` and decoded payloads must carry
// it. The schema id comes from Framing.SchemaID or from the latest schema of
// Framing.Subject, looked up through a schema_registry.Registry at Register.
//
// # Kafka
//
// *Codec implements kafka.Serializer and kafka.Deserializer:
//
//	kafkaClient.SetSerializer(c)
//	kafkaClient.SetDeserializer(c)
//	err := kafkaClient.Publish(ctx, key, transcode.Record{"name": "Pinkie"})
package codec
