package conv

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/ir"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

func convert(t *testing.T, src string, cfg Config) (*ir.Ir, diag.List) {
	t.Helper()
	file, err := syntax.Parse("test.veryl", src)
	require.NoError(t, err)
	sess := symbol.NewSession("prj")
	require.Empty(t, symbol.Create(sess, file))
	return Convert(sess, cfg)
}

func mustConvert(t *testing.T, src string) *ir.Ir {
	t.Helper()
	out, errs := convert(t, src, DefaultConfig())
	require.Empty(t, errs, errs.Error())
	return out
}

func findBody(t *testing.T, out *ir.Ir, name string) *ir.Body {
	t.Helper()
	for _, c := range out.Components {
		switch c := c.(type) {
		case *ir.Module:
			if c.Name == name {
				return &c.Body
			}
		case *ir.Interface:
			if c.Name == name {
				return &c.Body
			}
		}
	}
	t.Fatalf("component %s not found", name)
	return nil
}

func findVar(t *testing.T, b *ir.Body, path string) *ir.Variable {
	t.Helper()
	for _, v := range b.Variables {
		if v.Path.String() == path {
			return v
		}
	}
	t.Fatalf("variable %s not found in %s", path, b.Name)
	return nil
}

func combStatements(t *testing.T, b *ir.Body) []ir.Statement {
	t.Helper()
	var out []ir.Statement
	for _, d := range b.Declarations {
		if comb, ok := d.(*ir.CombDeclaration); ok {
			out = append(out, comb.Statements...)
		}
	}
	return out
}

func instances(b *ir.Body) []*ir.InstDeclaration {
	var out []*ir.InstDeclaration
	for _, d := range b.Declarations {
		if inst, ok := d.(*ir.InstDeclaration); ok {
			out = append(out, inst)
		}
	}
	return out
}

func TestConvert_Params(t *testing.T) {
	out := mustConvert(t, `
module A #(
    param W: u32 = 8,
) {
    const X: u32 = W * 2;
    var a: logic<X>;
}`)
	b := findBody(t, out, "A")

	x := findVar(t, b, "X")
	assert.Equal(t, ir.VarConst, x.Kind)
	v, ok := x.Value(0)
	require.True(t, ok)
	n, ok := v.ToInteger()
	require.True(t, ok)
	assert.Equal(t, 16, n)

	w, ok := findVar(t, b, "a").Type.TotalWidth()
	require.True(t, ok)
	assert.Equal(t, 16, w)
}

func TestConvert_InstanceMemo(t *testing.T) {
	out := mustConvert(t, `
module Top (
    a: output logic,
    b: output logic,
    c: output logic<2>,
) {
    inst u0: Sub (o: a);
    inst u1: Sub (o: b);
    inst u2: Sub #(N: 2) (o: c);
}
module Sub #(
    param N: u32 = 1,
) (
    o: output logic<N>,
) {
    assign o = 0;
}`)
	insts := instances(findBody(t, out, "Top"))
	require.Len(t, insts, 3)
	assert.Same(t, insts[0].Component, insts[1].Component)
	assert.NotSame(t, insts[0].Component, insts[2].Component)

	wide := insts[2].Component.(*ir.Module)
	w, ok := findVar(t, &wide.Body, "o").Type.TotalWidth()
	require.True(t, ok)
	assert.Equal(t, 2, w)

	// The top level Sub is the same elaboration as u0.
	for _, c := range out.Components {
		if c.ComponentName() == "Sub" {
			assert.Same(t, insts[0].Component, c)
		}
	}
}

func TestConvert_GenericInstance(t *testing.T) {
	out := mustConvert(t, `
module G::<W: u32> (
    o: output logic<W>,
) {
    assign o = 0;
}
module Top (
    a: output logic<4>,
) {
    inst u: G::<4> (o: a);
}`)
	// Generic components only appear through their instances.
	require.Len(t, out.Components, 1)
	insts := instances(findBody(t, out, "Top"))
	require.Len(t, insts, 1)
	assert.Equal(t, "__G__4", insts[0].Component.ComponentName())
}

func TestConvert_InfiniteRecursion(t *testing.T) {
	_, errs := convert(t, `
module A {
    inst u: A;
}`, DefaultConfig())
	assert.Equal(t, []diag.Kind{diag.InfiniteRecursion}, errs.Kinds())
}

func TestConvert_HierarchyDepthLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HierarchyDepth = 1
	_, errs := convert(t, `
module A {
    inst u: B;
}
module B {
    inst u: C;
}
module C {}`, cfg)
	assert.True(t, errs.Has(diag.ExceedLimit))
}

func TestConvert_EvaluateSizeLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvaluateSize = 8
	_, errs := convert(t, `
module A (
    o: output logic<32>,
) {
    always_comb {
        for i: u32 in 0..100 {
            o = i;
        }
    }
}`, cfg)
	assert.Equal(t, []diag.Kind{diag.ExceedLimit}, errs.Kinds())
}

func TestConvert_ForUnroll(t *testing.T) {
	out := mustConvert(t, `
module A (
    o: output logic<4>,
) {
    always_comb {
        for i: u32 in 0..4 {
            o[i] = 1;
        }
    }
}`)
	stmts := combStatements(t, findBody(t, out, "A"))
	assert.Len(t, stmts, 4)
}

func TestConvert_InvalidForStep(t *testing.T) {
	_, errs := convert(t, `
module A (
    o: output logic<32>,
) {
    always_comb {
        for i: u32 in 0..4 step *= 1 {
            o = i;
        }
    }
}`, DefaultConfig())
	assert.Equal(t, []diag.Kind{diag.InvalidForStep}, errs.Kinds())
}

func TestConvert_ArrayLiteral(t *testing.T) {
	out := mustConvert(t, `
module A {
    var a: logic<8>[4];
    assign a = '{1, 2, default: 0};
}`)
	stmts := combStatements(t, findBody(t, out, "A"))
	assert.Len(t, stmts, 4)
}

func TestConvert_ArrayLiteralErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Kind
	}{
		{
			name: "multiple default",
			src:  "module A { var a: logic[4]; assign a = '{default: 0, default: 1}; }",
			want: diag.MultipleDefault,
		},
		{
			name: "too few items",
			src:  "module A { var a: logic[3]; assign a = '{1, 2}; }",
			want: diag.MismatchArrayLiteral,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := convert(t, tt.src, DefaultConfig())
			assert.Equal(t, []diag.Kind{tt.want}, errs.Kinds())
		})
	}
}

func TestConvert_CaseLowering(t *testing.T) {
	out := mustConvert(t, `
module A (
    s: input logic<2>,
    o: output logic<2>,
) {
    always_comb {
        case s {
            0: o = 1;
            1, 2: o = 2;
            default: o = 3;
        }
    }
}`)
	stmts := combStatements(t, findBody(t, out, "A"))
	require.Len(t, stmts, 1)
	first, ok := stmts[0].(*ir.IfStatement)
	require.True(t, ok)
	require.Len(t, first.FalseSide, 1)
	second, ok := first.FalseSide[0].(*ir.IfStatement)
	require.True(t, ok)
	require.Len(t, second.FalseSide, 1)
	_, ok = second.FalseSide[0].(*ir.AssignStatement)
	assert.True(t, ok, "default becomes the innermost else")
}

func TestConvert_GenerateIf(t *testing.T) {
	out := mustConvert(t, `
module A #(
    param W: u32 = 8,
) {
    if W == 8 :g {
        var t: logic;
    } else :h {
        var t: bit;
    }
}`)
	b := findBody(t, out, "A")
	assert.Equal(t, ir.TypeLogic, findVar(t, b, "g.t").Type.Kind)
	for _, v := range b.Variables {
		assert.NotEqual(t, "h.t", v.Path.String())
	}
}

func TestConvert_GenerateFor(t *testing.T) {
	out := mustConvert(t, `
module A {
    for i in 0..3 :gen {
        var v: logic;
    }
}`)
	b := findBody(t, out, "A")
	for _, p := range []string{"gen[0].v", "gen[1].v", "gen[2].v"} {
		findVar(t, b, p)
	}
}

func TestConvert_ReferringBeforeDefinition(t *testing.T) {
	_, errs := convert(t, `
module A {
    var a: logic;
    assign a = b;
    var b: logic;
}`, DefaultConfig())
	require.Equal(t, []diag.Kind{diag.ReferringBeforeDefinition}, errs.Kinds())
	assert.Equal(t, "b", errs[0].Token.Text)
}

func TestConvert_AlwaysFfChecks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Kind
	}{
		{
			name: "no clock",
			src: `module A (i: input logic) {
    var r: logic;
    always_ff { r = i; }
}`,
			want: diag.MissingClockSignal,
		},
		{
			name: "if_reset without reset",
			src: `module A (clk: input clock) {
    var r: logic;
    always_ff (clk) {
        if_reset { r = 0; }
    }
}`,
			want: diag.MissingResetSignal,
		},
		{
			name: "reset without if_reset",
			src: `module A (clk: input clock, rst: input reset) {
    var r: logic;
    always_ff (clk, rst) { r = 0; }
}`,
			want: diag.MissingIfReset,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := convert(t, tt.src, DefaultConfig())
			assert.Equal(t, []diag.Kind{tt.want}, errs.Kinds())
		})
	}
}

func TestConvert_AlwaysFf(t *testing.T) {
	out := mustConvert(t, `
module A (
    clk: input clock,
    rst: input reset,
    o: output logic,
) {
    always_ff {
        if_reset {
            o = 0;
        } else {
            o = ~o;
        }
    }
}`)
	b := findBody(t, out, "A")
	require.Len(t, b.Declarations, 1)
	ff, ok := b.Declarations[0].(*ir.FfDeclaration)
	require.True(t, ok)
	assert.Equal(t, findVar(t, b, "clk").ID, ff.Clock.ID)
	require.NotNil(t, ff.Reset)
	assert.Equal(t, findVar(t, b, "rst").ID, ff.Reset.ID)
	require.Len(t, ff.Statements, 1)
	_, ok = ff.Statements[0].(*ir.IfResetStatement)
	assert.True(t, ok)
}

func TestConvert_ClockDomainCrossing(t *testing.T) {
	_, errs := convert(t, `
module A (
    clk_a: input 'a clock,
    clk_b: input 'b clock,
    i: input 'a logic,
    o: output 'b logic,
) {
    assign o = i;
}`, DefaultConfig())
	assert.Equal(t, []diag.Kind{diag.MismatchClockDomain}, errs.Kinds())
}

func TestConvert_FunctionCall(t *testing.T) {
	out := mustConvert(t, `
module A (
    x: input logic<8>,
    y: input logic<8>,
    o: output logic<8>,
) {
    function add (a: input logic<8>, b: input logic<8>) -> logic<8> {
        return a + b;
    }
    assign o = add(x, y);
}`)
	b := findBody(t, out, "A")
	require.Len(t, b.Functions, 1)
	for _, f := range b.Functions {
		assert.Equal(t, "add", f.Path.String())
		assert.Len(t, f.Args, 2)
		assert.NotNil(t, f.Ret)
		assert.Len(t, f.Statements, 1)
	}
}

func TestConvert_FunctionCallErrors(t *testing.T) {
	const fn = `
module A (
    x: input logic<8>,
    y: input logic<8>,
    o: output logic<8>,
) {
    function add (a: input logic<8>, b: input logic<8>) -> logic<8> {
        return a + b;
    }
    assign o = %s;
}`
	tests := []struct {
		name string
		call string
		want diag.Kind
	}{
		{"arity", "add(x)", diag.MismatchFunctionArity},
		{"mixed", "add(a: x, y)", diag.MixedFunctionArgument},
		{"unknown argument", "add(a: x, c: y)", diag.UndefinedIdentifier},
		{"not a function", "x(y)", diag.CallNonFunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf(fn, tt.call)
			_, errs := convert(t, src, DefaultConfig())
			assert.Equal(t, []diag.Kind{tt.want}, errs.Kinds())
		})
	}
}

func TestConvert_UnenclosedIfExpression(t *testing.T) {
	_, errs := convert(t, `
module A (
    c: input logic,
    d: input logic,
    o: output logic<2>,
) {
    assign o = if c ? if d ? 1 : 2 : 3;
}`, DefaultConfig())
	assert.Equal(t, []diag.Kind{diag.UnenclosedInnerIfExpression}, errs.Kinds())
}

func TestConvert_ConnectConstant(t *testing.T) {
	out := mustConvert(t, `
interface I {
    var a: logic;
    var b: logic;
    modport mp {
        a: output,
        b: input,
    }
}
module A (
    p: modport I::mp,
) {
    connect p <> 0;
}`)
	stmts := combStatements(t, findBody(t, out, "A"))
	require.Len(t, stmts, 1)
	as, ok := stmts[0].(*ir.AssignStatement)
	require.True(t, ok)
	assert.Equal(t, "p.a", as.Dst[0].Path.String())
}

func TestConvert_ConnectInout(t *testing.T) {
	out := mustConvert(t, `
interface I {
    var a: logic;
    var b: logic;
    modport mst {
        a: output,
        b: inout,
    }
    modport slv {
        a: input,
        b: inout,
    }
}
module A (
    m: modport I::mst,
    s: modport I::slv,
) {
    connect s <> m;
}`)
	stmts := combStatements(t, findBody(t, out, "A"))
	require.Len(t, stmts, 1)
	as, ok := stmts[0].(*ir.AssignStatement)
	require.True(t, ok)
	assert.Equal(t, "m.a", as.Dst[0].Path.String())
}

func TestConvert_MissingPort(t *testing.T) {
	_, errs := convert(t, `
module Top {
    inst u: Sub;
}
module Sub (
    i: input logic,
) {}`, DefaultConfig())
	assert.Equal(t, []diag.Kind{diag.MissingPort}, errs.Kinds())
}
