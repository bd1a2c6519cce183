package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordLookup(t *testing.T) {
	rec := Record{
		"name": "root",
		"response": Record{
			"rrs": []interface{}{
				Record{"name": "a"},
				map[string]interface{}{"name": "b"},
			},
		},
	}

	v, ok := rec.Lookup("response.rrs.1.name")
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, "a", rec.Get("response.rrs.0.name"))
	assert.Equal(t, "root", rec.Get("name"))

	for _, path := range []string{"missing", "response.rrs.2", "response.rrs.x", "name.length", "response.rrs.-1"} {
		_, ok := rec.Lookup(path)
		assert.False(t, ok, path)
	}
}

func TestParseEnumPolicy(t *testing.T) {
	p, err := ParseEnumPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, EnumPolicyFail, p)

	p, err = ParseEnumPolicy("passthrough")
	assert.NoError(t, err)
	assert.Equal(t, EnumPolicyPassthrough, p)
	assert.Equal(t, "passthrough", p.String())

	_, err = ParseEnumPolicy("ignore")
	assert.Error(t, err)
}

func TestWithMaxDepthIgnoresNonPositive(t *testing.T) {
	o := newOptions([]Option{WithMaxDepth(0), WithMaxDepth(-3)})
	assert.Equal(t, DefaultMaxDepth, o.MaxDepth)

	o = newOptions([]Option{WithMaxDepth(7)})
	assert.Equal(t, 7, o.MaxDepth)
}
