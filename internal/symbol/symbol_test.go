package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

func build(t *testing.T, src string) (*Session, diag.List) {
	t.Helper()
	file, err := syntax.Parse("test.veryl", src)
	require.NoError(t, err)
	sess := NewSession("prj")
	return sess, Create(sess, file)
}

func mustResolve(t *testing.T, sess *Session, ns Namespace, path ...string) *Symbol {
	t.Helper()
	res, err := sess.Resolve(path, ns)
	require.NoError(t, err, path)
	return res.Found
}

func TestNamespace(t *testing.T) {
	ns := Namespace{"prj"}.Push("A").Push("g")
	assert.Equal(t, "prj::A::g", ns.String())
	assert.True(t, ns.Included(Namespace{"prj", "A"}))
	assert.False(t, Namespace{"prj", "A"}.Included(ns))
	assert.True(t, ns.Pop().Matched(Namespace{"prj", "A"}))

	// Push on a popped namespace must not alias the original.
	a := ns.Pop().Push("x")
	assert.Equal(t, "g", ns[2])
	assert.Equal(t, "x", a[2])
}

func TestSession_InsertDuplicate(t *testing.T) {
	sess := NewSession("prj")
	tok := syntax.Synthetic("a")
	id, err := sess.Insert(&Symbol{Token: tok, Kind: KindVariable, Namespace: sess.Root()})
	require.NoError(t, err)
	assert.Equal(t, ID(1), id)

	prev, err := sess.Insert(&Symbol{Token: tok, Kind: KindVariable, Namespace: sess.Root()})
	assert.True(t, diag.IsKind(err, diag.DuplicatedIdentifier))
	assert.Equal(t, id, prev)
	assert.Len(t, sess.Symbols(), 1)

	sess.Clear()
	assert.Empty(t, sess.Symbols())
	assert.Nil(t, sess.Get(id))
}

func TestCreate_ModuleScope(t *testing.T) {
	sess, errs := build(t, `
module Top #(
    param W: u32 = 8,
) (
    clk: input clock,
    rst: input reset,
    o: output logic<W>,
) {
    var a: logic;
    var a: logic;
    let b: logic = a;
    inst u: Sub;
    :blk {
        var c: logic;
    }
    for i in 0..2 :g {
        var d: logic;
    }
}
module Sub {}
`)
	assert.Equal(t, []diag.Kind{diag.DuplicatedIdentifier}, errs.Kinds())

	top := mustResolve(t, sess, sess.Root(), "Top")
	assert.Equal(t, KindModule, top.Kind)
	props := top.Props.(*ModuleProps)
	assert.Len(t, props.Ports, 3)
	assert.Len(t, props.Params, 1)
	assert.Equal(t, "clk", sess.Get(props.DefaultClock).Name())
	assert.Equal(t, "rst", sess.Get(props.DefaultReset).Name())

	inner := top.Inner()
	assert.Equal(t, KindLet, mustResolve(t, sess, inner, "b").Kind)
	assert.Equal(t, KindVariable, mustResolve(t, sess, inner, "blk", "c").Kind)
	assert.Equal(t, KindGenvar, mustResolve(t, sess, inner.Push("g"), "i").Kind)
	assert.Equal(t, KindVariable, mustResolve(t, sess, inner.Push("g"), "d").Kind)

	// Lookup is lexical: names inside a block are visible from it, not from
	// the module.
	_, err := sess.Resolve([]string{"c"}, inner)
	var re *ResolveError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, "c", re.Missing)
}

func TestCreate_MissingClockDomain(t *testing.T) {
	_, errs := build(t, `
module A (
    clk_a: input 'a clock,
    clk_b: input clock,
    clk_c: input 'c clock,
) {}
`)
	assert.Equal(t, []diag.Kind{diag.MissingClockDomain}, errs.Kinds())
	assert.Equal(t, "clk_b", errs[0].Token.Text)
}

func TestCreate_NoDefaultClockWithTwoClocks(t *testing.T) {
	sess, _ := build(t, `
module A (
    clk_a: input 'a clock,
    clk_b: input 'b clock,
) {}
`)
	props := mustResolve(t, sess, sess.Root(), "A").Props.(*ModuleProps)
	assert.Equal(t, ID(0), props.DefaultClock)
	assert.Equal(t, KindClockDomain, mustResolve(t, sess, Namespace{"prj", "A"}, "'a").Kind)
}

func TestCreate_MissingDefaultArgument(t *testing.T) {
	_, errs := build(t, `module A::<X: u32 = 1, Y: u32> {}`)
	assert.Equal(t, []diag.Kind{diag.MissingDefaultArgument}, errs.Kinds())
	assert.Equal(t, "Y", errs[0].Token.Text)
}

func TestCreate_InterfaceTypeDeclaration(t *testing.T) {
	_, errs := build(t, `
interface I {
    struct S { a: logic }
    enum E { A }
    var x: logic;
    modport mp { x: input }
}`)
	assert.Equal(t, []diag.Kind{diag.InvalidTypeDeclaration, diag.InvalidTypeDeclaration}, errs.Kinds())
}

func TestCreate_FileImportsReplayed(t *testing.T) {
	sess, errs := build(t, `
package P {
    const C: u32 = 3;
}
import P::*;
module A {
    let x: logic = C;
}
`)
	require.Empty(t, errs)
	c := mustResolve(t, sess, Namespace{"prj", "A"}, "C")
	assert.Equal(t, KindConst, c.Kind)
	assert.Equal(t, Namespace{"prj", "P"}, c.Namespace)
}

func TestResolve_Members(t *testing.T) {
	sess, errs := build(t, `
package P {
    struct S {
        a: logic,
        b: logic<2>,
    }
}
interface I {
    var v: logic;
    modport mp {
        v: output,
    }
}
module A (
    port: modport I::mp,
) {
    var s: P::S;
    inst u: I;
}
`)
	require.Empty(t, errs)
	ns := Namespace{"prj", "A"}
	assert.Equal(t, KindStructMember, mustResolve(t, sess, ns, "s", "b").Kind)
	assert.Equal(t, KindVariable, mustResolve(t, sess, ns, "u", "v").Kind)
	assert.Equal(t, KindVariable, mustResolve(t, sess, ns, "port", "v").Kind)

	mp := mustResolve(t, sess, sess.Root(), "I", "mp")
	members := sess.ModportMembers(mp)
	require.Len(t, members, 1)
	assert.Equal(t, syntax.DirOutput, members[0].Direction)
}

func TestModportMembers_Default(t *testing.T) {
	sess, errs := build(t, `
interface I {
    var a: logic;
    var b: logic;
    var c: logic;
    modport mp {
        a: output,
        ..input
    }
}`)
	require.Empty(t, errs)
	members := sess.ModportMembers(mustResolve(t, sess, sess.Root(), "I", "mp"))
	require.Len(t, members, 3)
	assert.Equal(t, "a", members[0].Name)
	assert.Equal(t, syntax.DirOutput, members[0].Direction)
	assert.Equal(t, "b", members[1].Name)
	assert.Equal(t, syntax.DirInput, members[2].Direction)
}

func TestResolve_GenericParameterStops(t *testing.T) {
	sess, errs := build(t, `module A::<P: PkgProto> { let x: logic = P::C; }
proto package PkgProto { const C: u32; }`)
	require.Empty(t, errs)
	res, err := sess.Resolve([]string{"P", "C"}, Namespace{"prj", "A"})
	require.NoError(t, err)
	assert.Equal(t, KindGenericParameter, res.Found.Kind)
	assert.Equal(t, []string{"C"}, res.Rest)
}

func TestCreate_Enum(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		values []uint64
		width  int
		errs   []diag.Kind
	}{
		{
			name:   "sequential",
			src:    `package P { enum E { A, B = 5, C } }`,
			values: []uint64{0, 5, 6},
			width:  3,
		},
		{
			name:   "onehot",
			src:    `package P { #[enum_encoding(onehot)] enum E { A, B, C } }`,
			values: []uint64{1, 2, 4},
			width:  3,
		},
		{
			name:   "gray",
			src:    `package P { #[enum_encoding(gray)] enum E { A, B, C, D } }`,
			values: []uint64{0, 1, 3, 2},
			width:  2,
		},
		{
			name:   "onehot invalid",
			src:    `package P { #[enum_encoding(onehot)] enum E { A, B = 3 } }`,
			values: []uint64{1, 3},
			width:  2,
			errs:   []diag.Kind{diag.InvalidEnumVariantValue},
		},
		{
			name:   "too large",
			src:    `package P { enum E: logic<2> { A, B = 4 } }`,
			values: []uint64{0, 4},
			width:  3,
			errs:   []diag.Kind{diag.TooLargeEnumVariant},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, errs := build(t, tt.src)
			assert.Equal(t, tt.errs, errs.Kinds())
			e := mustResolve(t, sess, sess.Root(), "P", "E")
			props := e.Props.(*EnumProps)
			assert.Equal(t, tt.width, props.Width)
			for i, id := range props.Members {
				mp := sess.Get(id).Props.(*EnumMemberProps)
				require.True(t, mp.Known)
				u, _ := mp.Value.ToUint()
				assert.Equal(t, tt.values[i], u, sess.Get(id).Name())
			}
		})
	}
}

func TestCreate_EnumMangledMember(t *testing.T) {
	sess, errs := build(t, `package P { enum E { A, B } }`)
	require.Empty(t, errs)
	m := mustResolve(t, sess, Namespace{"prj", "P"}, "E_B")
	assert.Equal(t, KindEnumMemberMangled, m.Kind)

	v, ok := NewEvaluator(sess, Namespace{"prj", "P"}).Eval(&syntax.IdentExpr{
		Path: &syntax.ScopedIdent{Segments: []syntax.PathSegment{{Name: syntax.Synthetic("E_B")}}},
	})
	require.True(t, ok)
	assert.Equal(t, value.New(1, 1, false), v)
}

func TestCreate_TestEmbed(t *testing.T) {
	sess, errs := build(t, `
#[test(check_a)]
embed (inline) sv {{{
module test; endmodule
}}}
#[test(bad)]
embed (other) sv {{{ }}}
`)
	assert.Equal(t, []diag.Kind{diag.InvalidTestEmbed}, errs.Kinds())
	sym := mustResolve(t, sess, sess.Root(), "check_a")
	assert.Equal(t, KindTest, sym.Kind)
	assert.Equal(t, "inline", sym.Props.(*TestProps).Way)
}

func TestCreate_AnonymousBlocksNamed(t *testing.T) {
	file, err := syntax.Parse("t.veryl", `
module A {
    var x: logic;
    always_comb {
        let y: logic = 1;
        x = y;
    }
}`)
	require.NoError(t, err)
	sess := NewSession("prj")
	require.Empty(t, Create(sess, file))

	comb := file.Items[0].(*syntax.ModuleDecl).Body[1]
	name := sess.NameBlock(comb)
	assert.Equal(t, "@0", name)
	assert.Equal(t, KindLet, mustResolve(t, sess, Namespace{"prj", "A", name}, "y").Kind)
}
