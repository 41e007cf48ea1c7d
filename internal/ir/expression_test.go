package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/veryl-go/internal/diag"
	"github.com/roach88/veryl-go/internal/syntax"
	"github.com/roach88/veryl-go/internal/value"
)

type testEnv struct {
	cache *value.MaskCache
	errs  diag.List
}

func newTestEnv() *testEnv { return &testEnv{cache: value.NewMaskCache()} }

func (e *testEnv) MaskCache() *value.MaskCache          { return e.cache }
func (e *testEnv) InsertError(err *diag.AnalyzerError) { e.errs = append(e.errs, err) }

func lit(s string) *Term { return NewTerm(value.MustParse(s), syntax.Token{Text: s}) }

func variable(id VarID, t Type, domain ClockDomain) *Term {
	c := Comptime{Type: t, ClockDomain: domain}
	return &Term{Factor: NewVariableFactor(id, nil, nil, c)}
}

func TestExpression_String(t *testing.T) {
	// 1 ** 1 + 1 - 1 / 1 % 1 with binary minus lowered to + (- y)
	e := &Binary{
		X: &Binary{
			X:  &Binary{X: lit("1"), Op: value.Pow, Y: lit("1")},
			Op: value.Add,
			Y:  lit("1"),
		},
		Op: value.Add,
		Y: &Unary{Op: value.Sub, X: &Binary{
			X:  &Binary{X: lit("1"), Op: value.Div, Y: lit("1")},
			Op: value.Rem,
			Y:  lit("1"),
		}},
	}
	assert.Equal(t,
		"(((00000001 ** 00000001) + 00000001) + (- ((00000001 / 00000001) % 00000001)))",
		e.String())

	env := newTestEnv()
	c := e.EvalComptime(env, 0)
	v, ok := c.ConstValue()
	require.True(t, ok)
	assert.Equal(t, uint64(2), mustUint(t, v))
	assert.Empty(t, env.errs)
}

func mustUint(t *testing.T, v value.Value) uint64 {
	t.Helper()
	u, ok := v.ToUint()
	require.True(t, ok, v.Hex())
	return u
}

func TestExpression_Strings(t *testing.T) {
	tern := &Ternary{Cond: lit("1'b1"), Then: lit("8'h0a"), Else: lit("8'h0b")}
	assert.Equal(t, "(1 ? 0a : 0b)", tern.String())

	cat := &Concatenation{Items: []ConcatItem{
		{X: lit("4'h1")},
		{X: lit("4'h2"), Repeat: lit("2")},
	}}
	assert.Equal(t, "{1, 2 repeat 00000002}", cat.String())

	arr := &ArrayLiteral{Items: []ArrayLiteralItem{
		{X: lit("4'h1")},
		{X: lit("4'h2"), Default: true},
	}}
	assert.Equal(t, "'{1, default: 2}", arr.String())

	v := &Term{Factor: NewVariableFactor(3, []Expression{lit("0")}, &VarSelect{Kind: SelectColon, Msb: lit("3'd3"), Lsb: lit("3'd0")}, Comptime{})}
	assert.Equal(t, "var3[00000000][3:0]", v.String())
}

func TestExpression_ContextWidth(t *testing.T) {
	env := newTestEnv()
	// (8'hff + 8'h01) in a 16-bit context keeps the carry.
	sum := &Binary{X: lit("8'hff"), Op: value.Add, Y: lit("8'h01")}
	outer := &Binary{X: sum, Op: value.Add, Y: lit("16'h0000")}
	c := outer.EvalComptime(env, 0)
	v, ok := c.ConstValue()
	require.True(t, ok)
	assert.Equal(t, 16, v.Width())
	assert.Equal(t, uint64(0x100), mustUint(t, v))

	self := (&Binary{X: lit("8'hff"), Op: value.Add, Y: lit("8'h01")}).EvalComptime(env, 0)
	sv, _ := self.ConstValue()
	assert.Equal(t, uint64(0), mustUint(t, sv))
}

func TestExpression_ComptimeTypes(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{"bit add", &Binary{X: lit("8'h1"), Op: value.Add, Y: lit("4'h1")}, "bit<8>"},
		{"logic on x", &Binary{X: lit("8'hx"), Op: value.BitOr, Y: lit("4'h1")}, "logic<8>"},
		{"compare", &Binary{X: lit("8'h1"), Op: value.Less, Y: lit("8'h2")}, "bit"},
		{"signed add", &Binary{X: lit("1"), Op: value.Add, Y: lit("2")}, "signed bit<32>"},
		{"shift keeps left", &Binary{X: lit("8'h1"), Op: value.LogicShiftL, Y: lit("32'h2")}, "bit<8>"},
		{"reduction", &Unary{Op: value.BitAnd, X: lit("8'hff")}, "bit"},
		{"concat", &Concatenation{Items: []ConcatItem{{X: lit("4'h1")}, {X: lit("3'h1"), Repeat: lit("2")}}}, "bit<10>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			c := tt.expr.EvalComptime(env, 0)
			assert.Equal(t, tt.want, c.Type.String())
			assert.True(t, c.IsConst)
			assert.Empty(t, env.errs)
		})
	}
}

func TestExpression_OperandErrors(t *testing.T) {
	clk := variable(0, Type{Kind: TypeClock}, ClockDomain{})
	arr := variable(1, Type{Kind: TypeLogic, Array: Shape{2}}, ClockDomain{})
	wide := variable(2, NewLogic(4), ClockDomain{})
	str := NewValueFactor(Comptime{Value: ValueVariant{Kind: ValueString, Text: "a"}, Type: Type{Kind: TypeString}, IsConst: true})
	tests := []struct {
		name string
		expr Expression
		kind diag.Kind
	}{
		{"clock add", &Binary{X: clk, Op: value.Add, Y: lit("1")}, diag.InvalidOperand},
		{"array operand", &Unary{Op: value.BitNot, X: arr}, diag.InvalidOperand},
		{"logical wide", &Binary{X: wide, Op: value.LogicAnd, Y: lit("1'b1")}, diag.InvalidLogicalOperand},
		{"not wide", &Unary{Op: value.LogicNot, X: wide}, diag.InvalidLogicalOperand},
		{"string add", &Binary{X: &Term{Factor: str}, Op: value.Add, Y: lit("1")}, diag.InvalidOperand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			tt.expr.EvalComptime(env, 0)
			require.Len(t, env.errs, 1)
			assert.Equal(t, tt.kind, env.errs[0].Kind)
		})
	}

	env := newTestEnv()
	(&Unary{Op: value.BitNot, X: clk}).EvalComptime(env, 0)
	(&Binary{X: &Term{Factor: str}, Op: value.Eq, Y: &Term{Factor: str}}).EvalComptime(env, 0)
	assert.Empty(t, env.errs)
}

func TestExpression_ClockDomain(t *testing.T) {
	a := variable(0, NewLogic(1), Explicit("a"))
	b := variable(1, NewLogic(1), Explicit("b"))
	imp := variable(2, NewLogic(1), ClockDomain{Kind: DomainImplicit})

	env := newTestEnv()
	(&Binary{X: a, Op: value.BitAnd, Y: b}).EvalComptime(env, 0)
	require.Len(t, env.errs, 1)
	assert.Equal(t, diag.MismatchClockDomain, env.errs[0].Kind)

	env = newTestEnv()
	c := (&Binary{X: a, Op: value.BitAnd, Y: imp}).EvalComptime(env, 0)
	assert.Empty(t, env.errs)
	assert.Equal(t, Explicit("a"), c.ClockDomain)
}

func TestExpression_Cast(t *testing.T) {
	resetType := NewTypeValue(Type{Kind: TypeResetAsyncLow}, syntax.Token{})
	clockType := NewTypeValue(Type{Kind: TypeClock}, syntax.Token{})
	rst := variable(0, Type{Kind: TypeReset}, ClockDomain{})
	bit := variable(1, NewLogic(1), ClockDomain{})

	env := newTestEnv()
	c := (&Binary{X: rst, Op: value.As, Y: &Term{Factor: NewValueFactor(resetType)}}).EvalComptime(env, 0)
	assert.Empty(t, env.errs)
	assert.Equal(t, TypeResetAsyncLow, c.Type.Kind)

	(&Binary{X: bit, Op: value.As, Y: &Term{Factor: NewValueFactor(clockType)}}).EvalComptime(env, 0)
	assert.Empty(t, env.errs)

	(&Binary{X: rst, Op: value.As, Y: &Term{Factor: NewValueFactor(clockType)}}).EvalComptime(env, 0)
	require.Len(t, env.errs, 1)
	assert.Equal(t, diag.InvalidCast, env.errs[0].Kind)

	v, ok := (&Binary{X: lit("8'hff"), Op: value.As, Y: &Term{Factor: NewValueFactor(NewTypeValue(NewBit(4), syntax.Token{}))}}).EvalComptime(env, 0).ConstValue()
	require.True(t, ok)
	assert.Equal(t, "4'hf", v.Hex())
}

func TestFold(t *testing.T) {
	x := variable(0, NewLogic(8), ClockDomain{})
	e := &Binary{
		X:  x,
		Op: value.Add,
		Y:  &Binary{X: lit("8'h02"), Op: value.Mul, Y: lit("8'h03")},
	}
	env := newTestEnv()
	e.EvalComptime(env, 0)
	folded := Fold(e)
	assert.Equal(t, "(var0 + 06)", folded.String())

	xz := &Binary{X: lit("8'h0x"), Op: value.BitOr, Y: lit("8'h00")}
	xz.EvalComptime(env, 0)
	assert.Equal(t, "(0x | 00)", Fold(xz).String())
}
