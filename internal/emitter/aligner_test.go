package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAligner_PadsToWidestInGroup(t *testing.T) {
	a := NewAligner()
	a.Measure("ports", ClassPortDir, "input")
	a.Measure("ports", ClassPortDir, "output")
	a.Measure("params", ClassPortDir, "in")

	assert.Equal(t, 6, a.Width("ports", ClassPortDir))
	assert.Equal(t, "input ", a.Pad("ports", ClassPortDir, "input"))
	assert.Equal(t, "output", a.Pad("ports", ClassPortDir, "output"))
	assert.Equal(t, "in", a.Pad("params", ClassPortDir, "in"))
	assert.Equal(t, 2, a.Len())
}

func TestAligner_UnknownColumnLeavesText(t *testing.T) {
	a := NewAligner()
	assert.Equal(t, 0, a.Width("g", ClassDeclType))
	assert.Equal(t, "logic", a.Pad("g", ClassDeclType, "logic"))
}

func TestAligner_CountsDisplayWidth(t *testing.T) {
	a := NewAligner()
	a.Measure("g", ClassMemberName, "日本")
	a.Measure("g", ClassMemberName, "abc")

	assert.Equal(t, 4, a.Width("g", ClassMemberName))
	assert.Equal(t, "abc ", a.Pad("g", ClassMemberName, "abc"))
}
