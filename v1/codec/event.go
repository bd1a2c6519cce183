package codec

import (
	"sort"

	"github.com/Aleph-Alpha/pbcodec/v1/transcode"
)

// Event is the host's event record as the codec sees it. Decoding sets one
// field per record entry; encoding reads every field the event lists and
// ignores those the schema does not know.
type Event interface {
	Get(field string) interface{}
	Set(field string, value interface{})
	Fields() []string
}

// MapEvent is an Event backed by a map.
type MapEvent map[string]interface{}

var _ Event = MapEvent{}

func (e MapEvent) Get(field string) interface{} {
	return e[field]
}

func (e MapEvent) Set(field string, value interface{}) {
	e[field] = value
}

// Fields returns the field names in sorted order.
func (e MapEvent) Fields() []string {
	fields := make([]string, 0, len(e))
	for k := range e {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// fromEvent collects an event's fields into a record.
func fromEvent(ev Event) transcode.Record {
	fields := ev.Fields()
	rec := make(transcode.Record, len(fields))
	for _, f := range fields {
		rec[f] = ev.Get(f)
	}
	return rec
}

// toEvent copies every record entry onto ev.
func toEvent(rec transcode.Record, ev Event) {
	for k, v := range rec {
		ev.Set(k, v)
	}
}
