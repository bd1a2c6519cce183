package transcode

import (
	"strconv"
	"strings"
)

// Record is the generic, schema-agnostic value model both directions convert
// through. Values are nil, bool, int64, uint64, float64, string, []byte,
// []interface{} or a nested Record.
type Record map[string]interface{}

// Lookup resolves a dotted path through nested records and sequences.
// Numeric segments index into sequences:
//
//	rec.Lookup("response.rrs.0.name")
//
// The second return value is false when any segment is missing.
func (r Record) Lookup(path string) (interface{}, bool) {
	var current interface{} = r
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case Record:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]interface{}:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Get is Lookup without the presence flag.
func (r Record) Get(path string) interface{} {
	v, _ := r.Lookup(path)
	return v
}
