package value

// Op enumerates every operator the evaluator understands.
type Op int

const (
	Pow Op = iota
	Div
	Rem
	Mul
	Add
	Sub
	ArithShiftL
	ArithShiftR
	LogicShiftL
	LogicShiftR
	LessEq
	GreaterEq
	Less
	Greater
	Eq
	EqWildcard
	Ne
	NeWildcard
	LogicAnd
	LogicOr
	LogicNot
	BitAnd
	BitOr
	BitXor
	BitXnor
	BitNand
	BitNor
	BitNot
	As
	Ternary
	Concatenation
	ArrayLiteral
	Condition
	Repeat
)

var opNames = [...]string{
	Pow:           "**",
	Div:           "/",
	Rem:           "%",
	Mul:           "*",
	Add:           "+",
	Sub:           "-",
	ArithShiftL:   "<<<",
	ArithShiftR:   ">>>",
	LogicShiftL:   "<<",
	LogicShiftR:   ">>",
	LessEq:        "<=",
	GreaterEq:     ">=",
	Less:          "<:",
	Greater:       ">:",
	Eq:            "==",
	EqWildcard:    "==?",
	Ne:            "!=",
	NeWildcard:    "!=?",
	LogicAnd:      "&&",
	LogicOr:       "||",
	LogicNot:      "!",
	BitAnd:        "&",
	BitOr:         "|",
	BitXor:        "^",
	BitXnor:       "~^",
	BitNand:       "~&",
	BitNor:        "~|",
	BitNot:        "~",
	As:            "as",
	Ternary:       "ternary",
	Concatenation: "concatenation",
	ArrayLiteral:  "array literal",
	Condition:     "condition",
	Repeat:        "repeat",
}

// String returns the source spelling of the operator.
func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// SVString returns the SystemVerilog spelling of the operator.
func (o Op) SVString() string {
	switch o {
	case Less:
		return "<"
	case Greater:
		return ">"
	default:
		return o.String()
	}
}

// IsReduction reports whether a unary use of o reduces to one bit.
func (o Op) IsReduction() bool {
	switch o {
	case BitAnd, BitNand, BitOr, BitNor, BitXor, BitXnor:
		return true
	}
	return false
}

// IsShift reports whether o is a shift operator.
func (o Op) IsShift() bool {
	switch o {
	case ArithShiftL, ArithShiftR, LogicShiftL, LogicShiftR:
		return true
	}
	return false
}

// IsCompare reports whether o yields a 1-bit relational result.
func (o Op) IsCompare() bool {
	switch o {
	case Eq, EqWildcard, Ne, NeWildcard, Less, LessEq, Greater, GreaterEq:
		return true
	}
	return false
}

// IsLogical reports whether o is && or ||.
func (o Op) IsLogical() bool {
	return o == LogicAnd || o == LogicOr
}

// IsArithmetic reports whether o is + - * / %.
func (o Op) IsArithmetic() bool {
	switch o {
	case Add, Sub, Mul, Div, Rem:
		return true
	}
	return false
}

// IsBitwise reports whether o is a binary bitwise operator.
func (o Op) IsBitwise() bool {
	switch o {
	case BitAnd, BitOr, BitXor, BitXnor:
		return true
	}
	return false
}

// EvalInt applies o to plain integers. It is used for loop steps.
// ok is false for operators without an integer meaning or on division by zero.
func (o Op) EvalInt(x, y int) (r int, ok bool) {
	switch o {
	case Add:
		return x + y, true
	case Sub:
		return x - y, true
	case Mul:
		return x * y, true
	case Div:
		if y == 0 {
			return 0, false
		}
		return x / y, true
	case Rem:
		if y == 0 {
			return 0, false
		}
		return x % y, true
	case BitAnd:
		return x & y, true
	case BitOr:
		return x | y, true
	case BitXor:
		return x ^ y, true
	case ArithShiftL, LogicShiftL:
		if y < 0 {
			return 0, false
		}
		return x << uint(y), true
	case ArithShiftR, LogicShiftR:
		if y < 0 {
			return 0, false
		}
		return x >> uint(y), true
	}
	return 0, false
}

// UnarySigned reports whether a unary use of o preserves the operand sign.
func (o Op) UnarySigned(x bool) bool {
	switch o {
	case Add, Sub, BitNot:
		return x
	}
	return false
}

// BinarySigned reports whether a binary use of o is evaluated signed.
func (o Op) BinarySigned(x, y bool) bool {
	switch o {
	case Add, Sub, Mul, Div, Rem, Greater, GreaterEq, Less, LessEq:
		return x && y
	case LogicShiftL, LogicShiftR, ArithShiftL, ArithShiftR, Pow:
		return x
	}
	return false
}

// UnaryContextWidth returns the context width propagated to a unary
// operand. 0 means the operand is self-determined.
func (o Op) UnaryContextWidth(ctx int) int {
	if o.IsReduction() || o == LogicNot {
		return 0
	}
	return ctx
}

// BinaryXContextWidth returns the context width propagated to the left
// operand. 0 means the operand is self-determined.
func (o Op) BinaryXContextWidth(ctx int) int {
	if o.IsLogical() {
		return 0
	}
	return ctx
}

// BinaryYContextWidth returns the context width propagated to the right
// operand. 0 means the operand is self-determined.
func (o Op) BinaryYContextWidth(ctx int) int {
	if o.IsLogical() || o.IsShift() || o == Pow {
		return 0
	}
	return ctx
}

// BinaryOpSelfDetermined reports whether the result of o ignores the
// surrounding width context for its operands.
func (o Op) BinaryOpSelfDetermined() bool {
	return o.IsCompare() || o.IsLogical()
}

// BinaryXSelfDetermined reports whether the left operand is sized on its own.
func (o Op) BinaryXSelfDetermined() bool {
	return o.IsLogical()
}

// BinaryYSelfDetermined reports whether the right operand is sized on its own.
func (o Op) BinaryYSelfDetermined() bool {
	return o.IsLogical() || o.IsShift() || o == Pow
}

// UnaryResultWidth returns the result width of a unary use of o.
func (o Op) UnaryResultWidth(x, ctx int) int {
	switch o {
	case Add, Sub, BitNot:
		return max(x, ctx)
	}
	return max(1, ctx)
}

// BinaryResultWidth returns the result width of a binary use of o.
func (o Op) BinaryResultWidth(x, y, ctx int) int {
	switch {
	case o.IsArithmetic() || o.IsBitwise():
		return max(x, y, ctx)
	case o.IsCompare() || o.IsLogical():
		return max(1, ctx)
	case o.IsShift() || o == Pow:
		return max(x, ctx)
	}
	return max(x, y, ctx)
}
