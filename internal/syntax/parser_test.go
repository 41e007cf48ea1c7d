package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/value"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse("test.veryl", src)
	require.NoError(t, err)
	return f
}

func mustExpr(t *testing.T, src string) Expr {
	t.Helper()
	e, err := ParseExpr(src)
	require.NoError(t, err)
	return e
}

func TestParseExpr_Precedence(t *testing.T) {
	e := mustExpr(t, "1 + 2 * 3 ** 4")
	add, ok := e.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, value.Add, add.Op)

	mul, ok := add.Y.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, value.Mul, mul.Op)

	pow, ok := mul.Y.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, value.Pow, pow.Op)
}

func TestParseExpr_LeftAssociative(t *testing.T) {
	e := mustExpr(t, "a - b - c").(*BinaryExpr)
	assert.Equal(t, value.Sub, e.Op)
	inner, ok := e.X.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, value.Sub, inner.Op)
}

func TestParseExpr_LogicalBelowBitwise(t *testing.T) {
	e := mustExpr(t, "a | b && c == d").(*BinaryExpr)
	assert.Equal(t, value.LogicAnd, e.Op)
	assert.Equal(t, value.BitOr, e.X.(*BinaryExpr).Op)
	assert.Equal(t, value.Eq, e.Y.(*BinaryExpr).Op)
}

func TestParseExpr_UnaryAndAs(t *testing.T) {
	e := mustExpr(t, "-a as u32")
	as, ok := e.(*AsExpr)
	require.True(t, ok)
	assert.Equal(t, TypeU32, as.Type.Kind)
	un, ok := as.X.(*UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, value.Sub, un.Op)

	red := mustExpr(t, "~& a").(*UnaryExpr)
	assert.Equal(t, value.BitNand, red.Op)
}

func TestParseExpr_IfExpression(t *testing.T) {
	e := mustExpr(t, "if a ? 1 : if b ? 2 : 3").(*IfExpr)
	_, ok := e.Else.(*IfExpr)
	assert.True(t, ok)

	nested := mustExpr(t, "if if a ? b : c ? 1 : 2").(*IfExpr)
	_, ok = nested.Cond.(*IfExpr)
	assert.True(t, ok)
}

func TestParseExpr_CaseSwitchInside(t *testing.T) {
	c := mustExpr(t, "case x { 0, 1: a, 2..=4: b, default: c }").(*CaseExpr)
	require.Len(t, c.Items, 2)
	assert.Len(t, c.Items[0].Conds, 2)
	assert.True(t, c.Items[1].Conds[0].IsRange())
	assert.True(t, c.Items[1].Conds[0].Inclusive)
	assert.NotNil(t, c.Default)

	s := mustExpr(t, "switch { a == 1: x, default: y }").(*SwitchExpr)
	assert.Len(t, s.Items, 1)

	in := mustExpr(t, "outside x { 1, 3..5 }").(*InsideExpr)
	assert.True(t, in.Outside)
	assert.Len(t, in.Items, 2)
	assert.False(t, in.Items[1].Inclusive)

	_, err := ParseExpr("case x { 0: a }")
	assert.Error(t, err)
}

func TestParseExpr_ConcatAndArrayLiteral(t *testing.T) {
	c := mustExpr(t, "{a repeat 2, b[3:0]}").(*ConcatExpr)
	require.Len(t, c.Items, 2)
	assert.NotNil(t, c.Items[0].Repeat)
	sel := c.Items[1].X.(*IdentExpr).Selects
	require.Len(t, sel, 1)
	assert.Equal(t, SelectColon, sel[0].Kind)

	a := mustExpr(t, "'{1, 2 repeat 3, default: 0}").(*ArrayLitExpr)
	require.Len(t, a.Items, 3)
	assert.True(t, a.Items[2].Default)
}

func TestParseExpr_Identifiers(t *testing.T) {
	id := mustExpr(t, "Pkg::<8, logic>::A").(*IdentExpr)
	assert.Equal(t, []string{"Pkg", "A"}, id.Path.Names())
	require.Len(t, id.Path.Segments[0].Args, 2)
	assert.NotNil(t, id.Path.Segments[0].Args[0].Expr)
	assert.NotNil(t, id.Path.Segments[0].Args[1].Type)

	m := mustExpr(t, "a[1].b[msb:lsb]").(*IdentExpr)
	require.Len(t, m.Members, 1)
	_, ok := m.Members[0].Selects[0].Msb.(*MsbExpr)
	assert.True(t, ok)

	sv := mustExpr(t, "$sv::pkg::X").(*IdentExpr)
	assert.True(t, sv.Path.IsSystemVerilog())
}

func TestParseExpr_NestedGenericSplitsShift(t *testing.T) {
	id := mustExpr(t, "A::<B::<1>>::C").(*IdentExpr)
	assert.Equal(t, []string{"A", "C"}, id.Path.Names())
	inner := id.Path.Segments[0].Args[0].Expr.(*IdentExpr)
	assert.Equal(t, "B", inner.Path.First().Text)
	assert.Len(t, inner.Path.Segments[0].Args, 1)

	shift := mustExpr(t, "logic<(8 >> 1)>").(*TypeValueExpr)
	assert.Len(t, shift.Type.Width, 1)
}

func TestParseExpr_Calls(t *testing.T) {
	c := mustExpr(t, "$clog2(16)").(*CallExpr)
	require.NotNil(t, c.System)
	assert.Equal(t, "$clog2", c.System.Text)

	b := mustExpr(t, "$bits(logic<8, 2>)").(*CallExpr)
	tv := b.Args[0].X.(*TypeValueExpr)
	assert.Len(t, tv.Type.Width, 2)

	f := mustExpr(t, "Pkg::f(a: 1, 2)").(*CallExpr)
	require.Len(t, f.Args, 2)
	require.NotNil(t, f.Args[0].Name)
	assert.Equal(t, "a", f.Args[0].Name.Text)
	assert.Nil(t, f.Args[1].Name)
}

func TestParseExpr_StructLiteral(t *testing.T) {
	s := mustExpr(t, "Pkg::S'{a: 1, b: 2, ..default(0)}").(*StructLitExpr)
	assert.Equal(t, "Pkg::S", s.Type.String())
	assert.Len(t, s.Items, 2)
	assert.NotNil(t, s.Default)
}

const moduleSrc = `
/// Counter with generic width.
#[sv("keep")]
pub module Counter::<W: u32 = 8, T: type = logic> for ProtoA #(
    param N: u32 = 4,
    const M: u32 = N * 2,
) (
    i_clk: input clock,
    i_rst: input reset,
    i_d  : input 'a logic<W>[2],
    o_q  : output logic<W>,
    bus  : modport IfA::mp,
) {
    var r: logic<W>;
    let s: logic = i_d[0][0];
    assign o_q = r;
    assign {a, b} = 2'b10;

    always_ff (i_clk, i_rst) {
        if_reset {
            r = 0;
        } else if s {
            r += 1;
        } else {
            r = r;
        }
    }

    always_comb {
        case r {
            0, 1: x = 1;
            2..=3: {
                x = 2;
            }
            default: {a, b} = 0;
        }
        for i: u32 in rev 0..N step += 2 {
            $display("%d", i);
        }
    }

    inst u: Sub::<W> [2] #(X: 1, Y) (a: r, b);

    if W == 8 :g {
        var t: logic;
    } else :h {
        var t: bit;
    }

    for i in 0..4 :gen {
        assign w[i] = 0;
    }

    function add (a: input logic<W>, b: output logic<W>) -> logic<W> {
        return a + b;
    }

    connect bus <> 0;
}
`

func TestParse_Module(t *testing.T) {
	f := mustParse(t, moduleSrc)
	require.Len(t, f.Items, 1)

	m, ok := f.Items[0].(*ModuleDecl)
	require.True(t, ok)
	assert.Equal(t, "Counter", m.Name.Text)
	assert.True(t, m.Public)
	assert.Equal(t, []string{"Counter with generic width."}, m.Doc)

	attr, ok := FindAttr(m.Attrs, "sv")
	require.True(t, ok)
	assert.Equal(t, "keep", attr.Arg(0))

	require.Len(t, m.Generics, 2)
	assert.Equal(t, BoundConst, m.Generics[0].Bound)
	assert.Equal(t, TypeU32, m.Generics[0].Type.Kind)
	assert.Equal(t, BoundType, m.Generics[1].Bound)
	assert.Equal(t, "ProtoA", m.ForProto.String())

	require.Len(t, m.Params, 2)
	assert.True(t, m.Params[1].Const)

	require.Len(t, m.Ports, 5)
	assert.Equal(t, DirInput, m.Ports[2].Direction)
	require.NotNil(t, m.Ports[2].ClockDomain)
	assert.Equal(t, "a", m.Ports[2].ClockDomain.Text)
	assert.Len(t, m.Ports[2].Type.Array, 1)
	assert.Equal(t, DirModport, m.Ports[4].Direction)
	assert.Equal(t, "IfA::mp", m.Ports[4].Modport.String())

	kinds := make([]string, 0, len(m.Body))
	for _, d := range m.Body {
		switch d.(type) {
		case *VarDecl:
			kinds = append(kinds, "var")
		case *LetDecl:
			kinds = append(kinds, "let")
		case *AssignDecl:
			kinds = append(kinds, "assign")
		case *AlwaysFfDecl:
			kinds = append(kinds, "always_ff")
		case *AlwaysCombDecl:
			kinds = append(kinds, "always_comb")
		case *InstDecl:
			kinds = append(kinds, "inst")
		case *GenerateIfDecl:
			kinds = append(kinds, "gen_if")
		case *GenerateForDecl:
			kinds = append(kinds, "gen_for")
		case *FunctionDecl:
			kinds = append(kinds, "function")
		case *ConnectDecl:
			kinds = append(kinds, "connect")
		}
	}
	assert.Equal(t, []string{
		"var", "let", "assign", "assign", "always_ff", "always_comb",
		"inst", "gen_if", "gen_for", "function", "connect",
	}, kinds)

	concat := m.Body[3].(*AssignDecl)
	assert.Len(t, concat.Dst, 2)

	ff := m.Body[4].(*AlwaysFfDecl)
	assert.Equal(t, "i_rst", ff.Reset.Path.First().Text)
	rst := ff.Body[0].(*IfResetStmt)
	assert.Len(t, rst.Branches, 1)
	assert.True(t, rst.HasElse)
	assert.Equal(t, "+=", rst.Branches[0].Body[0].(*AssignStmt).Op)

	comb := m.Body[5].(*AlwaysCombDecl)
	cs := comb.Body[0].(*CaseStmt)
	require.Len(t, cs.Items, 3)
	assert.Len(t, cs.Items[1].Body, 1)
	assert.True(t, cs.Items[2].Default)
	assert.Len(t, cs.Items[2].Body[0].(*AssignStmt).Dst, 2)

	loop := comb.Body[1].(*ForStmt)
	assert.True(t, loop.Range.Rev)
	assert.Equal(t, "+=", loop.Range.StepOp)
	_, ok = loop.Body[0].(*CallStmt)
	assert.True(t, ok)

	inst := m.Body[6].(*InstDecl)
	assert.Equal(t, "Sub", inst.Component.First().Text)
	assert.Len(t, inst.Component.Segments[0].Args, 1)
	assert.Len(t, inst.Array, 1)
	assert.Len(t, inst.Params, 2)
	assert.Nil(t, inst.Params[1].Value)
	assert.True(t, inst.HasPorts)
	assert.Nil(t, inst.Ports[1].Value)

	gif := m.Body[7].(*GenerateIfDecl)
	require.Len(t, gif.Branches, 2)
	assert.Nil(t, gif.Branches[1].Cond)
	assert.Equal(t, "h", gif.Branches[1].Label.Text)

	fn := m.Body[9].(*FunctionDecl)
	assert.Len(t, fn.Args, 2)
	assert.Equal(t, TypeLogic, fn.Ret.Kind)
}

func TestParse_ProtoAndPackage(t *testing.T) {
	src := `
proto module ProtoA #(param N: u32 = 1) (a: input logic);
proto package ProtoPkg {
    const W: u32;
    type T;
}
package Pkg::<W: u32> for ProtoPkg {
    const X: u32 = W;
    type T = logic<W>;
    enum E: logic<2> { A, B = 2, C }
    struct S { a: logic, b: bit<2> }
    union U { a: logic<2>, b: bit<2> }
}
interface IfA::<T: type> {
    var a: T;
    modport mp { a: input, ..output }
}
import Pkg::*;
embed (inline) sv {{{ // raw }}}
`
	f := mustParse(t, src)
	require.Len(t, f.Items, 6)

	pm := f.Items[0].(*ModuleDecl)
	assert.True(t, pm.Proto)
	assert.Nil(t, pm.Body)

	pp := f.Items[1].(*PackageDecl)
	assert.True(t, pp.Proto)
	assert.Nil(t, pp.Body[0].(*ConstDecl).Value)
	assert.Nil(t, pp.Body[1].(*TypeDefDecl).Type)

	pkg := f.Items[2].(*PackageDecl)
	enum := pkg.Body[2].(*EnumDecl)
	assert.Len(t, enum.Members, 3)
	assert.NotNil(t, enum.Members[1].Value)
	assert.True(t, pkg.Body[4].(*StructDecl).Union)

	ifc := f.Items[3].(*InterfaceDecl)
	mp := ifc.Body[1].(*ModportDecl)
	require.NotNil(t, mp.Default)
	assert.Equal(t, DirOutput, *mp.Default)

	imp := f.Items[4].(*ImportDecl)
	assert.True(t, imp.Wildcard)

	emb := f.Items[5].(*EmbedDecl)
	assert.Equal(t, "inline", emb.Way.Text)
}

func TestParse_GenericBounds(t *testing.T) {
	src := `module M::<A: type, B: const, C: inst ProtoIf, D: ProtoPkg = Pkg, E: u32 = 1> {}`
	m := mustParse(t, src).Items[0].(*ModuleDecl)
	require.Len(t, m.Generics, 5)
	assert.Equal(t, BoundType, m.Generics[0].Bound)
	assert.Equal(t, BoundConst, m.Generics[1].Bound)
	assert.Equal(t, BoundInst, m.Generics[2].Bound)
	assert.Equal(t, "ProtoIf", m.Generics[2].Proto.String())
	assert.Equal(t, BoundProto, m.Generics[3].Bound)
	require.NotNil(t, m.Generics[3].Default)
	assert.Equal(t, BoundConst, m.Generics[4].Bound)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing semicolon", "module A { var a: logic }"},
		{"bad item", "var a: logic;"},
		{"unterminated body", "module A {"},
		{"bad port direction", "module A (a: wire logic) {}"},
		{"missing assign op", "module A { always_comb { a 1; } }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("e.veryl", tt.src)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Positive(t, se.Line)
		})
	}
}

func TestFile_Line(t *testing.T) {
	f, err := Parse("a.veryl", "module A {\r\n    var a: logic;\n}")
	require.NoError(t, err)
	assert.Equal(t, "module A {", f.Line(1))
	assert.Equal(t, "    var a: logic;", f.Line(2))
	assert.Equal(t, "}", f.Line(3))
	assert.Equal(t, "", f.Line(0))
	assert.Equal(t, "", f.Line(4))
}
