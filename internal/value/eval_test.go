package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvalBinary_AddContextWidth(t *testing.T) {
	cache := NewMaskCache()

	x := MustParse("8'hf2")
	got := EvalBinary(Add, x, x, 16, Add.BinarySigned(x.Signed(), x.Signed()), cache)
	assert.Equal(t, "16'b0000000111100100", got.Binary())

	s := MustParse("8'shf2")
	got = EvalBinary(Add, s, s, 16, Add.BinarySigned(s.Signed(), s.Signed()), cache)
	assert.Equal(t, "16'sb1111111111100100", got.Binary())
}

func TestEvalBinary_Table(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		x, y string
		want string
	}{
		{"add", Add, "1", "2", "32'sh00000003"},
		{"mul", Mul, "3", "4", "32'sh0000000c"},
		{"div", Div, "8", "3", "32'sh00000002"},
		{"rem", Rem, "8", "3", "32'sh00000002"},
		{"signed div", Div, "8'shf8", "8'sh02", "8'shfc"},
		{"pow", Pow, "2", "3", "32'sh00000008"},
		{"div by zero", Div, "8'h10", "8'h00", "8'hxx"},
		{"div by x", Div, "8'h10", "8'h0x", "8'hxx"},
		{"rem by zero", Rem, "8'h10", "8'h00", "8'hxx"},
		{"pow x base", Pow, "8'h0x", "2", "8'hxx"},
		{"add x", Add, "8'h0x", "8'h01", "8'hxx"},
		{"lshl", LogicShiftL, "1", "2", "32'h00000004"},
		{"ashl", ArithShiftL, "1", "2", "32'sh00000004"},
		{"lshr", LogicShiftR, "32'shfffffff8", "2", "32'h3ffffffe"},
		{"ashr", ArithShiftR, "32'shfffffff8", "2", "32'shfffffffe"},
		{"ashr unsigned", ArithShiftR, "8'hf8", "2", "8'h3e"},
		{"shift by x", LogicShiftL, "8'h01", "8'h0x", "8'hxx"},
		{"and", BitAnd, "4'b1100", "4'b1010", "4'h8"},
		{"and x with 0", BitAnd, "4'b000x", "4'b0000", "4'h0"},
		{"and x with 1", BitAnd, "4'b000x", "4'b0001", "4'hX"},
		{"or x with 1", BitOr, "4'b000x", "4'b0001", "4'h1"},
		{"or z with 0", BitOr, "4'b000z", "4'b0000", "4'hX"},
		{"xor", BitXor, "4'b1100", "4'b1010", "4'h6"},
		{"xnor", BitXnor, "4'b0001", "4'b0101", "4'hb"},
		{"eq", Eq, "1", "1", "1'h1"},
		{"eq false", Eq, "1", "2", "1'h0"},
		{"eq x", Eq, "4'b000x", "4'b0000", "1'hx"},
		{"eq x definite mismatch", Eq, "4'b100x", "4'b0000", "1'h0"},
		{"ne", Ne, "1", "2", "1'h1"},
		{"ne x", Ne, "4'b000x", "4'b0000", "1'hx"},
		{"eq wildcard", EqWildcard, "4'b0011", "4'b00xx", "1'h1"},
		{"eq wildcard mismatch", EqWildcard, "4'b0100", "4'b00xx", "1'h0"},
		{"ne wildcard", NeWildcard, "4'b0100", "4'b00xx", "1'h1"},
		{"eq wildcard x lhs", EqWildcard, "4'b0x00", "4'b00xx", "1'hx"},
		{"less", Less, "1", "2", "1'h1"},
		{"less signed", Less, "32'shffffffff", "2", "1'h1"},
		{"less eq", LessEq, "2", "2", "1'h1"},
		{"greater", Greater, "3", "2", "1'h1"},
		{"greater eq", GreaterEq, "1", "2", "1'h0"},
		{"compare x", Less, "4'b000x", "4'b0001", "1'hx"},
		{"logic and", LogicAnd, "10", "0", "1'h0"},
		{"logic or", LogicOr, "10", "0", "1'h1"},
		{"logic and x", LogicAnd, "4'b000x", "1", "1'hx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := MustParse(tt.x)
			y := MustParse(tt.y)
			signed := tt.op.BinarySigned(x.Signed(), y.Signed())
			got := EvalBinary(tt.op, x, y, 0, signed, nil)
			assert.Equal(t, tt.want, got.Hex())
		})
	}
}

func TestEvalUnary_Table(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		x    string
		want string
	}{
		{"neg", Sub, "1", "32'shffffffff"},
		{"plus", Add, "3'b101", "3'h5"},
		{"neg x", Sub, "4'b00x1", "4'hx"},
		{"not", BitNot, "4'b0101", "4'ha"},
		{"not xz", BitNot, "4'b01xz", "4'b10xx"},
		{"and 0", BitAnd, "4'b1110", "1'h0"},
		{"and 1", BitAnd, "4'b1111", "1'h1"},
		{"and definite zero beats x", BitAnd, "8'h1x", "1'h0"},
		{"and x", BitAnd, "8'hfx", "1'hx"},
		{"nand", BitNand, "4'b1111", "1'h0"},
		{"nand x", BitNand, "4'b111x", "1'hx"},
		{"or", BitOr, "4'b0100", "1'h1"},
		{"or x", BitOr, "4'b000x", "1'hx"},
		{"or definite one beats x", BitOr, "4'b100x", "1'h1"},
		{"nor", BitNor, "4'b0000", "1'h1"},
		{"xor", BitXor, "4'b1000", "1'h1"},
		{"xor even", BitXor, "4'b1010", "1'h0"},
		{"xnor", BitXnor, "4'b1000", "1'h0"},
		{"xor x", BitXor, "4'b100x", "1'hx"},
		{"logic not", LogicNot, "1'b0", "1'h1"},
		{"logic not x", LogicNot, "1'bx", "1'hx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := MustParse(tt.x)
			got := EvalUnary(tt.op, x, 0, tt.op.UnarySigned(x.Signed()), nil)
			if tt.name == "not xz" {
				assert.Equal(t, tt.want, got.Binary())
				return
			}
			assert.Equal(t, tt.want, got.Hex())
		})
	}
}

func TestEvalUnary_ReductionWide(t *testing.T) {
	cache := NewMaskCache()

	got := EvalUnary(BitAnd, MustParse("8'hfx"), 68, false, cache)
	assert.Equal(t, "68'h0000000000000000X", got.Hex())

	got = EvalUnary(BitAnd, MustParse("8'h1x"), 68, false, cache)
	assert.Equal(t, "68'h00000000000000000", got.Hex())

	got = EvalUnary(BitOr, NewX(100, false), 0, false, cache)
	assert.Equal(t, "1'hx", got.Hex())
}

func TestEval_NarrowAndWideAgree(t *testing.T) {
	cache := NewMaskCache()
	ops := []Op{Add, Sub, Mul, Div, Rem, BitAnd, BitOr, BitXor, BitXnor, LogicShiftL, ArithShiftR, Pow}
	x := MustParse("16'sh8a5x")
	y := MustParse("16'sh0003")
	a := MustParse("16'sh8a53")

	for _, op := range ops {
		for _, lhs := range []Value{x, a} {
			signed := op.BinarySigned(lhs.Signed(), y.Signed())
			narrow := EvalBinary(op, lhs, y, 60, signed, cache)
			wide := EvalBinary(op, lhs, y, 120, signed, cache)
			assert.Equal(t, narrow.Select(59, 0).Binary(), wide.Select(59, 0).Binary(), op.String())
		}
	}
}

func TestOp_Widths(t *testing.T) {
	assert.Equal(t, 8, Add.BinaryResultWidth(4, 8, 0))
	assert.Equal(t, 16, Add.BinaryResultWidth(4, 8, 16))
	assert.Equal(t, 1, Eq.BinaryResultWidth(4, 8, 0))
	assert.Equal(t, 4, LogicShiftL.BinaryResultWidth(4, 8, 0))
	assert.Equal(t, 1, BitAnd.UnaryResultWidth(8, 0))
	assert.Equal(t, 8, BitNot.UnaryResultWidth(8, 0))

	assert.Equal(t, 0, LogicAnd.BinaryXContextWidth(8))
	assert.Equal(t, 0, Pow.BinaryYContextWidth(8))
	assert.Equal(t, 8, Add.BinaryYContextWidth(8))
	assert.Equal(t, 0, BitXor.UnaryContextWidth(8))

	assert.True(t, Add.BinarySigned(true, true))
	assert.False(t, Add.BinarySigned(true, false))
	assert.True(t, ArithShiftR.BinarySigned(true, false))
	assert.False(t, BitAnd.BinarySigned(true, true))
	assert.True(t, Sub.UnarySigned(true))
	assert.False(t, BitAnd.UnarySigned(true))

	assert.True(t, Eq.BinaryOpSelfDetermined())
	assert.True(t, LogicShiftL.BinaryYSelfDetermined())
	assert.False(t, LogicShiftL.BinaryXSelfDetermined())
}

func TestOp_EvalInt(t *testing.T) {
	r, ok := Add.EvalInt(3, 2)
	assert.True(t, ok)
	assert.Equal(t, 5, r)

	r, ok = LogicShiftL.EvalInt(1, 3)
	assert.True(t, ok)
	assert.Equal(t, 8, r)

	_, ok = Div.EvalInt(1, 0)
	assert.False(t, ok)

	_, ok = Eq.EvalInt(1, 1)
	assert.False(t, ok)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "**", Pow.String())
	assert.Equal(t, "<:", Less.String())
	assert.Equal(t, "<", Less.SVString())
	assert.Equal(t, "~^", BitXnor.String())
	assert.Equal(t, "unknown", Op(999).String())
}
