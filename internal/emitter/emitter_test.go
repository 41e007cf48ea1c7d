package emitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/config"
	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/symbol"
	"github.com/roach88/veryl-go/internal/syntax"
)

func emit(t *testing.T, src string, tweak func(*config.Build)) (Output, diag.List) {
	t.Helper()
	file, err := syntax.Parse("test.veryl", src)
	require.NoError(t, err)
	sess := symbol.NewSession("prj")
	require.Empty(t, symbol.Create(sess, file))
	cfg := config.Default("prj")
	cfg.Build.Sourcemap = config.SourceMapNone
	if tweak != nil {
		tweak(&cfg.Build)
	}
	return New(sess, cfg, Options{SourcePath: "test.veryl", DestPath: "test.sv"}).Emit(file)
}

func mustEmit(t *testing.T, src string, tweak func(*config.Build)) string {
	t.Helper()
	out, errs := emit(t, src, tweak)
	require.Empty(t, errs, errs.Error())
	return out.Text
}

func TestEmit_ModuleWithReset(t *testing.T) {
	src := `module A (
    clk: input clock,
    rst: input reset,
    d  : input logic<8>,
    q  : output logic<8>,
) {
    var r: logic<8>;
    always_ff {
        if_reset {
            r = 0;
        } else {
            r = d;
        }
    }
    assign q = r;
}
`
	want := `module prj_A (
    input  var logic         clk,
    input  var logic         rst,
    input  var logic [8-1:0] d  ,
    output var logic [8-1:0] q
);
    logic [8-1:0] r;

    always_ff @ (posedge clk, negedge rst) begin
        if (!rst) begin
            r <= 0;
        end else begin
            r <= d;
        end
    end

    always_comb q = r;
endmodule
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_SyncResetLeavesSensitivity(t *testing.T) {
	src := `module A (
    clk: input clock,
    rst: input reset_sync_high,
) {
    var r: logic;
    always_ff {
        if_reset {
            r = 0;
        }
    }
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "always_ff @ (posedge clk) begin\n")
	assert.Contains(t, text, "        if (rst) begin\n")
}

func TestEmit_ResetTypeConfig(t *testing.T) {
	src := `module A (
    clk: input clock,
    rst: input reset,
) {
    var r: logic;
    always_ff {
        if_reset {
            r = 0;
        }
    }
}
`
	text := mustEmit(t, src, func(b *config.Build) {
		b.ClockType = config.ClockNegedge
		b.ResetType = config.ResetAsyncHigh
		b.ResetHighSuffix = "_h"
	})
	assert.Contains(t, text, "always_ff @ (negedge clk, posedge rst_h) begin\n")
	assert.Contains(t, text, "if (rst_h) begin\n")
	assert.Contains(t, text, "input var logic rst_h\n")
}

func TestEmit_AlignedDeclarations(t *testing.T) {
	src := `module B {
    var a: logic;
    var bb: logic<2>;
    let c: logic = a;
    const W: u32 = 4;
}
`
	want := `module prj_B;
    logic         a;
    logic [2-1:0] bb;
    logic         c; always_comb c = a;
    localparam int unsigned W = 4;
endmodule
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_PackageEnum(t *testing.T) {
	src := `package Pkg {
    enum E: logic<2> { A, B }
}
module M (
    o: output logic<2>,
) {
    assign o = Pkg::E::B;
}
`
	want := `package prj_Pkg;
    typedef enum logic [2-1:0] {
        E_A = 2'h0,
        E_B = 2'h1
    } E;
endpackage

module prj_M (
    output var logic [2-1:0] o
);
    always_comb o = prj_Pkg::E_B;
endmodule
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_Instance(t *testing.T) {
	src := `module Sub (
    clk: input clock,
    o  : output logic,
) {
    assign o = 1;
}
module Top (
    clk: input clock,
) {
    var x: logic;
    inst u: Sub (
        clk,
        o: x,
    );
}
`
	want := `module prj_Sub (
    input  var logic clk,
    output var logic o
);
    always_comb o = 1;
endmodule

module prj_Top (
    input var logic clk
);
    logic x;

    prj_Sub u (
        .clk (clk),
        .o   (x  )
    );
endmodule
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_GenericModuleAfterUse(t *testing.T) {
	src := `module Top {
    inst u: Sub::<4>;
}
module Sub::<W: u32> {
    var a: logic<W>;
}
`
	want := `module prj_Top;
    prj___Sub__4 u ();
endmodule

module prj___Sub__4;
    logic [4-1:0] a;
endmodule
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_UninstantiatedGenericIsSkipped(t *testing.T) {
	src := `module Sub::<W: u32> {
    var a: logic<W>;
}
`
	assert.Empty(t, mustEmit(t, src, nil))
}

func TestEmit_FunctionAndCase(t *testing.T) {
	src := `module F (
    s: input logic<2>,
    o: output logic,
) {
    function inv (a: input logic) -> logic {
        return ~a;
    }
    always_comb {
        case s {
            0: o = inv(1);
            1..=2: o = 0;
            default: o = 1;
        }
    }
}
`
	want := `module prj_F (
    input  var logic [2-1:0] s,
    output var logic         o
);
    function automatic logic inv(
        input var logic a
    );
        return ~a;
    endfunction

    always_comb begin
        case (s) inside
            0      : o = inv(1);
            [1:2]  : o = 0;
            default: o = 1;
        endcase
    end
endmodule
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_ExpandedCase(t *testing.T) {
	src := `module F (
    s: input logic<2>,
    o: output logic,
) {
    always_comb {
        case s {
            0: o = 1;
            1..2: o = 0;
            default: o = 1;
        }
    }
}
`
	text := mustEmit(t, src, func(b *config.Build) { b.ExpandInsideOperation = true })
	assert.Contains(t, text, "        case (1'b1)\n")
	assert.Contains(t, text, "(s) ==? (0)")
	assert.Contains(t, text, "((s) >= (1)) && ((s) < (2))")
}

func TestEmit_CondType(t *testing.T) {
	src := `module F (
    s: input logic,
    o: output logic,
) {
    always_comb {
        #[cond_type(unique0)]
        if s {
            o = 1;
        } else {
            o = 0;
        }
    }
}
`
	text := mustEmit(t, src, func(b *config.Build) { b.EmitCondType = true })
	assert.Contains(t, text, "        unique0 if (s) begin\n")

	text = mustEmit(t, src, nil)
	assert.Contains(t, text, "        if (s) begin\n")
	assert.NotContains(t, text, "unique0")
}

func TestEmit_CompoundAssignInFlipFlop(t *testing.T) {
	src := `module A (
    clk: input clock,
) {
    var r: logic<4>;
    always_ff {
        r += 1;
    }
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "always_ff @ (posedge clk) begin\n")
	assert.Contains(t, text, "        r <= r + 1;\n")
}

func TestEmit_MissingClock(t *testing.T) {
	src := `module A {
    var r: logic;
    always_ff {
        r = 1;
    }
}
`
	_, errs := emit(t, src, nil)
	assert.True(t, errs.Has(diag.MissingClockSignal))
}

func TestEmit_InsideOperator(t *testing.T) {
	src := `module A (
    s: input logic<4>,
    o: output logic,
) {
    assign o = inside s { 1, 3..5 };
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "always_comb o = (s inside {1, [3:5-1]});")

	text = mustEmit(t, src, func(b *config.Build) { b.ExpandInsideOperation = true })
	assert.Contains(t, text, "always_comb o = ((s) ==? (1) || ((s) >= (3)) && ((s) < (5)));")
}

func TestEmit_ProjectPrefix(t *testing.T) {
	src := `module A {
    var a: logic;
}
`
	text := mustEmit(t, src, func(b *config.Build) { b.OmitProjectPrefix = true })
	assert.True(t, strings.HasPrefix(text, "module A;\n"))
}

func TestEmit_Interface(t *testing.T) {
	src := `interface IfA {
    var a: logic;
    var bb: logic;
    modport mp {
        a: input,
        bb: output,
    }
}
`
	want := `interface prj_IfA;
    logic a;
    logic bb;

    modport mp (
        input  a,
        output bb
    );
endinterface
`
	assert.Equal(t, want, mustEmit(t, src, nil))
}

func TestEmit_Connect(t *testing.T) {
	src := `interface IfA {
    var a: logic;
    var b: logic;
    var e: logic;
    modport mst {
        a: output,
        b: input,
        e: inout,
    }
    modport slv {
        a: input,
        b: output,
        e: inout,
    }
}
module M (
    p: modport IfA::mst,
    q: modport IfA::slv,
) {
    connect p <> q;
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "    prj_IfA.mst p,\n    prj_IfA.slv q\n")
	assert.Contains(t, text, "    always_comb begin\n        p.a = q.a;\n        q.b = p.b;\n    end\n    tran (p.e, q.e);\n")
}

func TestEmit_ConnectConstant(t *testing.T) {
	src := `interface IfA {
    var a: logic;
    var b: logic;
    var e: logic;
    modport mst {
        a: output,
        b: input,
        e: inout,
    }
}
module M (
    p: modport IfA::mst,
) {
    connect p <> 0;
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "    always_comb begin\n        p.a = 0;\n    end\n    assign p.e = 0;\n")
	assert.NotContains(t, text, "p.b =")
}

func TestEmit_GenerateBlocks(t *testing.T) {
	src := `module G {
    var w: logic<4>;
    for i in 0..4 :gen {
        assign w[i] = 0;
    }
    if 1 == 1 :g {
        var t: logic;
    } else :h {
        var t: bit;
    }
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "    for (genvar i = 0; i < 4; i++) begin :gen\n        always_comb w[i] = 0;\n    end\n")
	assert.Contains(t, text, "    if (1 == 1) begin :g\n        logic t;\n    end else begin :h\n        bit t;\n    end\n")
}

func TestEmit_ForStatementLocals(t *testing.T) {
	src := `module A (
    o: output logic<4>,
) {
    always_comb {
        let x: logic = 1;
        o = 0;
        for i: u32 in 0..4 {
            o[i] = x;
        }
    }
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "    always_comb begin\n        logic x;\n        x = 1;\n        o = 0;\n")
	assert.Contains(t, text, "        for (int unsigned i = 0; i < 4; i++) begin\n            o[i] = x;\n        end\n")
}

func TestEmit_FlattenArrayInterface(t *testing.T) {
	src := `interface IfA {
    var a: logic;
    modport mp {
        a: input,
    }
}
module M (
    p: modport IfA::mp [3, 4],
) {
    inst u: IfA [2, 3, 4];
    var x: logic;
    assign x = p[1][2].a;
}
`
	text := mustEmit(t, src, func(b *config.Build) { b.FlattenArrayInterface = true })
	assert.Contains(t, text, "    prj_IfA.mp p [0:(3)*(4)-1]\n")
	assert.Contains(t, text, "    prj_IfA u [0:(2)*(3)*(4)-1] ();\n")
	assert.Contains(t, text, "always_comb x = p[(1)*(4)+(2)].a;")
}

func TestEmit_EmbedAndImport(t *testing.T) {
	src := `package Pkg {
    const W: u32 = 1;
}
import Pkg::*;
embed (inline) sv {{{
module raw;
endmodule
}}}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "endpackage\n\nimport prj_Pkg::*;\n\nmodule raw;\nendmodule\n")
}

func TestEmit_GenericFunction(t *testing.T) {
	src := `package Pkg {
    function Add::<N: u32> (a: input logic<N>) -> logic<N> {
        return a + 1;
    }
}
module M (
    x: input logic<4>,
    y: output logic<4>,
) {
    assign y = Pkg::Add::<4>(x);
}
`
	text := mustEmit(t, src, nil)
	assert.Contains(t, text, "    function automatic logic [4-1:0] __Add__4(\n        input var logic [4-1:0] a\n    );\n")
	assert.Contains(t, text, "always_comb y = prj_Pkg::__Add__4(x);")
}

func TestEmit_SourceMap(t *testing.T) {
	src := `module A {
    var a: logic;
}
`
	file, err := syntax.Parse("test.veryl", src)
	require.NoError(t, err)
	sess := symbol.NewSession("prj")
	require.Empty(t, symbol.Create(sess, file))
	out, errs := New(sess, config.Default("prj"), Options{SourcePath: "test.veryl", DestPath: "test.sv"}).Emit(file)
	require.Empty(t, errs)

	assert.Equal(t, "module prj_A;\n    logic a;\nendmodule\n//# sourceMappingURL=test.sv.map\n", out.Text)
	require.NotNil(t, out.SourceMap)
	assert.Equal(t, "test.sv", out.SourceMap.File)
	assert.Equal(t, "test.veryl", out.SourceMap.Source)
	assert.Equal(t, 4, out.SourceMap.Len())

	line, col, ok := out.SourceMap.Lookup(1, 4)
	require.True(t, ok)
	assert.Equal(t, 1, line)
	assert.Equal(t, 4, col)

	line, col, ok = out.SourceMap.Lookup(1, 12)
	require.True(t, ok)
	assert.Equal(t, 1, line)
	assert.Equal(t, 8, col)

	_, _, ok = out.SourceMap.Lookup(2, 0)
	assert.False(t, ok)
}
