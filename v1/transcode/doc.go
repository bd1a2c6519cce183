// Package transcode converts between binary protobuf messages and Records,
// driven entirely by message descriptors resolved at runtime.
//
// A MessageClass is compiled once per resolved message type: every reachable
// field is classified (scalar, enum, message, repeated scalar/enum/message,
// map) and every reachable enum gets a bidirectional EnumTable. Decoder and
// Encoder then walk that compiled plan; neither keeps state between calls,
// so one instance can serve many goroutines.
//
// Decoding:
//
//	class, _ := transcode.Compile(md)
//	rec, err := transcode.NewDecoder().Decode(data, class)
//	if errors.Is(err, transcode.ErrUnknownEnumValue) {
//	    // the producer knows enum values we do not
//	}
//	name := rec.Get("father.name")
//
// Value model of a decoded Record:
//   - bool, string, []byte
//   - int64 for every signed and 32-bit unsigned integer kind, uint64 for
//     uint64/fixed64
//   - float64 for float and double
//   - enum symbols as string
//   - []interface{} for repeated fields, in wire order
//   - Record for messages and maps (map keys are stringified)
//
// Unset singular messages decode to an empty Record, unless they belong to a
// oneof. Scalars without explicit presence are always emitted; scalars with
// presence (optional, oneof) and oneof messages only when set. Unknown wire fields are dropped.
//
// Encoding accepts the same model plus the usual Go numeric types,
// json.Number, map[string]string and typed slices. Record keys that are not
// schema fields are ignored.
//
//	data, err := transcode.NewEncoder().Encode(transcode.Record{
//	    "name":       "Pinkie",
//	    "fur_colour": "PINK",
//	}, class)
package transcode
