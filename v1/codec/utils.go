package codec

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Aleph-Alpha/pbcodec/v1/kafka"
	"github.com/Aleph-Alpha/pbcodec/v1/schema_registry"
	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

var (
	_ kafka.Serializer   = (*Codec)(nil)
	_ kafka.Deserializer = (*Codec)(nil)
)

// Decode converts a payload of the configured class into a record. With
// framing enabled the Confluent header is checked and stripped first.
func (c *Codec) Decode(ctx context.Context, data []byte) (rec transcode.Record, err error) {
	start := time.Now()
	ctx, end := c.startSpan(ctx, "codec.decode", len(data))
	defer func() {
		end(err)
		c.finish(ctx, "decode", start, err, len(data))
	}()

	class, _, indexes, err := c.registered()
	if err != nil {
		return nil, err
	}

	payload := data
	if c.cfg.Framing.Enabled {
		payload, err = c.unframe(ctx, data, indexes)
		if err != nil {
			return nil, err
		}
	}
	return c.decoder.Decode(payload, class)
}

func (c *Codec) unframe(ctx context.Context, data []byte, want []int) ([]byte, error) {
	id, indexes, payload, err := schema_registry.DecodeProtobufHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transcode.ErrDecode, err)
	}
	if !slices.Equal(indexes, want) {
		return nil, fmt.Errorf("%w: payload names message %v of schema %d, codec decodes %v",
			transcode.ErrDecode, indexes, id, want)
	}
	c.logDebug(ctx, "stripped schema registry header", map[string]interface{}{"schema_id": id})
	return payload, nil
}

// DecodeTo decodes data and sets every record entry on ev.
func (c *Codec) DecodeTo(ctx context.Context, data []byte, ev Event) error {
	rec, err := c.Decode(ctx, data)
	if err != nil {
		return err
	}
	toEvent(rec, ev)
	return nil
}

// Encode converts a record into a payload of the configured class. Keys the
// schema does not know and nil values are ignored.
func (c *Codec) Encode(ctx context.Context, rec transcode.Record) (data []byte, err error) {
	start := time.Now()
	ctx, end := c.startSpan(ctx, "codec.encode", 0)
	defer func() {
		end(err)
		c.finish(ctx, "encode", start, err, len(data))
	}()

	class, schemaID, indexes, err := c.registered()
	if err != nil {
		return nil, err
	}

	payload, err := c.encoder.Encode(rec, class)
	if err != nil {
		return nil, err
	}
	if !c.cfg.Framing.Enabled {
		return payload, nil
	}
	return append(schema_registry.EncodeProtobufHeader(schemaID, indexes), payload...), nil
}

// EncodeFrom encodes the fields of ev.
func (c *Codec) EncodeFrom(ctx context.Context, ev Event) ([]byte, error) {
	return c.Encode(ctx, fromEvent(ev))
}

// Serialize lets the codec serve as a kafka.Serializer. data may be a
// transcode.Record, a map[string]interface{} or an Event.
func (c *Codec) Serialize(data interface{}) ([]byte, error) {
	ctx := context.Background()
	switch v := data.(type) {
	case transcode.Record:
		return c.Encode(ctx, v)
	case map[string]interface{}:
		return c.Encode(ctx, v)
	case Event:
		return c.EncodeFrom(ctx, v)
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", ErrUnsupportedType, data)
	}
}

// Deserialize lets the codec serve as a kafka.Deserializer. target may be a
// *transcode.Record, a *map[string]interface{} or an Event.
func (c *Codec) Deserialize(data []byte, target interface{}) error {
	ctx := context.Background()
	switch t := target.(type) {
	case *transcode.Record:
		rec, err := c.Decode(ctx, data)
		if err != nil {
			return err
		}
		*t = rec
		return nil
	case *map[string]interface{}:
		rec, err := c.Decode(ctx, data)
		if err != nil {
			return err
		}
		*t = rec
		return nil
	case Event:
		return c.DecodeTo(ctx, data, t)
	default:
		return fmt.Errorf("%w: cannot decode into %T", ErrUnsupportedType, target)
	}
}
