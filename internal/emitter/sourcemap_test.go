package emitter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVLQ(t *testing.T) {
	cases := map[int]string{
		0:   "A",
		1:   "C",
		-1:  "D",
		2:   "E",
		15:  "e",
		16:  "gB",
		-16: "hB",
	}
	for n, want := range cases {
		var sb strings.Builder
		writeVLQ(&sb, n)
		assert.Equal(t, want, sb.String(), "n=%d", n)
	}
}

func TestSourceMap_Mappings(t *testing.T) {
	m := NewSourceMap("a.sv", "a.veryl")
	m.Add(0, 0, 0, 0)
	m.Add(0, 4, 0, 2)
	m.Add(2, 0, 1, 0)

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, "AAAA,IAAE;;AACF", m.Mappings())
}

func TestSourceMap_Lookup(t *testing.T) {
	m := NewSourceMap("a.sv", "a.veryl")
	m.Add(0, 0, 3, 0)
	m.Add(0, 10, 4, 2)
	m.Add(1, 4, 5, 4)

	line, col, ok := m.Lookup(0, 9)
	require.True(t, ok)
	assert.Equal(t, 3, line)
	assert.Equal(t, 0, col)

	line, col, ok = m.Lookup(0, 30)
	require.True(t, ok)
	assert.Equal(t, 4, line)
	assert.Equal(t, 2, col)

	_, _, ok = m.Lookup(1, 3)
	assert.False(t, ok)
}

func TestSourceMap_MarshalJSON(t *testing.T) {
	m := NewSourceMap("a.sv", "src/a.veryl")
	m.Add(0, 0, 0, 0)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": 3,
		"file": "a.sv",
		"sources": ["src/a.veryl"],
		"names": [],
		"mappings": "AAAA"
	}`, string(data))
}
