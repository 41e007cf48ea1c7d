package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

func genericArgs(t *testing.T, src string) ([]syntax.GenericArg, syntax.Token) {
	t.Helper()
	x, err := syntax.ParseExpr(src)
	require.NoError(t, err)
	id := x.(*syntax.IdentExpr)
	seg := id.Path.Segments[0]
	return seg.Args, seg.Name
}

func TestGenericMap_Mangled(t *testing.T) {
	sess, errs := build(t, `
package P { const W: u32 = 4; }
module Sub::<A: u32, B: type = logic, C: u32 = A + 1> {}
`)
	require.Empty(t, errs)
	sub := mustResolve(t, sess, sess.Root(), "Sub")
	ev := NewEvaluator(sess, sess.Root())

	args, tok := genericArgs(t, "Sub::<P::W>")
	m, derr := ev.GenericMap(sub, args, tok)
	require.Nil(t, derr)
	assert.Equal(t, []string{"A", "B", "C"}, m.Names)
	assert.Equal(t, "__Sub__4__logic__5", m.Mangled("Sub", false))

	args, tok = genericArgs(t, "Sub::<10, bit<2>>")
	m2, derr := ev.GenericMap(sub, args, tok)
	require.Nil(t, derr)
	assert.Equal(t, "__Sub__10__bit_2__11", m2.Mangled("Sub", false))

	h1, h2 := m.Mangled("Sub", true), m2.Mangled("Sub", true)
	assert.NotEqual(t, h1, h2)
	assert.Len(t, h1, len("__Sub__")+16)
	assert.Equal(t, h1, m.Mangled("Sub", true))

	assert.True(t, sess.AddGenericMap(sub.ID, m))
	assert.False(t, sess.AddGenericMap(sub.ID, m))
	assert.True(t, sess.AddGenericMap(sub.ID, m2))
	assert.Len(t, sub.GenericMaps, 2)
}

func TestGenericMap_Arity(t *testing.T) {
	sess, errs := build(t, `module Sub::<A: u32> {}`)
	require.Empty(t, errs)
	sub := mustResolve(t, sess, sess.Root(), "Sub")
	ev := NewEvaluator(sess, sess.Root())

	args, tok := genericArgs(t, "Sub::<1, 2>")
	_, derr := ev.GenericMap(sub, args, tok)
	require.NotNil(t, derr)
	assert.Equal(t, diag.MismatchGenericsArity, derr.Kind)

	_, derr = ev.GenericMap(sub, nil, tok)
	require.NotNil(t, derr)
	assert.Equal(t, diag.MismatchGenericsArity, derr.Kind)
}

func TestGenericMap_ProtoBound(t *testing.T) {
	sess, errs := build(t, `
proto module ProtoA (
    i: input logic,
    o: output logic,
);
module Good (
    i: input logic,
    o: output logic,
) {}
module Bad (
    i: input logic,
) {}
module Top::<M: inst ProtoA> {}
`)
	require.Empty(t, errs)
	top := mustResolve(t, sess, sess.Root(), "Top")
	ev := NewEvaluator(sess, sess.Root())

	args, tok := genericArgs(t, "Top::<Good>")
	m, derr := ev.GenericMap(top, args, tok)
	require.Nil(t, derr)
	assert.Equal(t, GenericSymbol, m.Args["M"].Kind)

	args, tok = genericArgs(t, "Top::<Bad>")
	_, derr = ev.GenericMap(top, args, tok)
	require.NotNil(t, derr)
	assert.Equal(t, diag.MismatchProto, derr.Kind)

	args, tok = genericArgs(t, "Top::<3>")
	_, derr = ev.GenericMap(top, args, tok)
	require.NotNil(t, derr)
	assert.Equal(t, diag.MismatchType, derr.Kind)
}

func TestCheckProtoBound_Package(t *testing.T) {
	sess, errs := build(t, `
proto package PP {
    const W: u32;
    type T;
}
package Impl for PP {
    const W: u32 = 1;
    type T = logic;
}
package Partial for PP {
    const W: u32 = 1;
    function T () {}
}
`)
	assert.Equal(t, []diag.Kind{diag.MismatchProto}, errs.Kinds())
	pp := mustResolve(t, sess, sess.Root(), "PP")
	assert.Empty(t, sess.CheckProtoBound(pp, mustResolve(t, sess, sess.Root(), "Impl")))
	assert.NotEmpty(t, sess.CheckProtoBound(pp, mustResolve(t, sess, sess.Root(), "Partial")))
}

func TestSignature(t *testing.T) {
	sym := &Symbol{ID: 3, Token: syntax.Synthetic("M")}
	a := NewSignature(sym, GenericMap{}, []ParamValue{
		{Name: "B", Value: value.New(2, 32, false), Known: true},
		{Name: "A", Value: value.New(1, 32, false), Known: true},
	})
	b := NewSignature(sym, GenericMap{}, []ParamValue{
		{Name: "A", Value: value.New(1, 32, false), Known: true},
		{Name: "B", Value: value.New(2, 32, false), Known: true},
	})
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.AllKnown())
	assert.Equal(t, "M", a.String())

	c := NewSignature(sym, GenericMap{}, []ParamValue{{Name: "A"}})
	assert.NotEqual(t, a.Key(), c.Key())
	assert.False(t, c.AllKnown())
}
