package value

import "math/big"

// EvalUnary evaluates a unary operator. ctx is the context width (0 when
// self-determined) and signed is the result of Op.UnarySigned.
func EvalUnary(op Op, x Value, ctx int, signed bool, cache *MaskCache) Value {
	width := op.UnaryResultWidth(x.width, ctx)

	switch op {
	case Add:
		return x.Expand(width, signed)
	case Sub:
		x = x.Expand(width, signed)
		if x.IsXZ() {
			return NewX(x.width, x.signed)
		}
		if !x.IsWide() {
			m := mask64(x.width)
			return Value{width: x.width, signed: x.signed, payload: ((x.payload ^ m) + 1) & m}
		}
		p := new(big.Int).Neg(x.Payload())
		return fromBig(p, new(big.Int), x.width, x.signed, cache)
	case BitNot:
		x = x.Expand(width, signed)
		if !x.IsWide() {
			m := mask64(x.width)
			x.payload = (x.payload ^ m) &^ x.mask
			return x
		}
		p := new(big.Int).Xor(x.bigPayload, cache.Get(x.width))
		p.AndNot(p, x.bigMask)
		x.bigPayload = p
		return x
	}

	if x.width == 0 {
		x = x.fill(1)
	}
	all := cache.Get(x.width)
	p, m := x.Payload(), x.MaskXZ()
	isX := m.Sign() != 0
	definite := new(big.Int).AndNot(p, m)

	var r Value
	switch op {
	case BitAnd:
		isZero := new(big.Int).Or(p, m).Cmp(all) != 0
		r = NewBit0X(isZero, isX)
	case BitNand:
		isOne := new(big.Int).Or(p, m).Cmp(all) != 0
		r = NewBit1X(isOne, isX)
	case BitOr:
		r = NewBit1X(definite.Sign() != 0, isX)
	case BitNor, LogicNot:
		r = NewBit0X(definite.Sign() != 0, isX)
	case BitXor, BitXnor:
		if isX {
			r = NewX(1, false)
		} else {
			odd := x.OnesCount()%2 == 1
			r = NewBool(odd == (op == BitXor))
		}
	default:
		return NewX(width, false)
	}
	return r.Expand(width, false)
}

// EvalBinary evaluates a binary operator. ctx is the context width (0 when
// self-determined) and signed is the result of Op.BinarySigned.
func EvalBinary(op Op, x, y Value, ctx int, signed bool, cache *MaskCache) Value {
	width := op.BinaryResultWidth(x.width, y.width, ctx)

	switch op {
	case Add, Sub, Mul:
		return evalArith(op, x.Expand(width, signed), y.Expand(width, signed), width, signed, cache)
	case Div, Rem:
		return evalDivRem(op, x.Expand(width, signed), y.Expand(width, signed), width, signed, cache)
	case BitAnd, BitOr, BitXor, BitXnor:
		return evalBitwise(op, x.Expand(width, false), y.Expand(width, false), width, cache)
	case Eq, Ne, EqWildcard, NeWildcard:
		w := max(x.width, y.width, 1)
		r := evalEquality(op, x.Expand(w, false), y.Expand(w, false), w, cache)
		return r.Expand(width, false)
	case Less, LessEq, Greater, GreaterEq:
		w := max(x.width, y.width, 1)
		r := evalCompare(op, x.Expand(w, signed), y.Expand(w, signed), signed)
		return r.Expand(width, false)
	case LogicAnd, LogicOr:
		xt, xx := truth(x)
		yt, yx := truth(y)
		var r Value
		if op == LogicAnd {
			r = NewBit1X(xt && yt, xx || yx)
		} else {
			r = NewBit1X(xt || yt, xx || yx)
		}
		return r.Expand(width, false)
	case LogicShiftL, LogicShiftR, ArithShiftL, ArithShiftR:
		return evalShift(op, x.Expand(width, signed), y, width, cache)
	case Pow:
		return evalPow(x.Expand(width, signed), y, width, cache)
	}
	return NewX(width, false)
}

func truth(v Value) (isTrue, isX bool) {
	d := new(big.Int).AndNot(v.Payload(), v.MaskXZ())
	return d.Sign() != 0, v.IsXZ()
}

func evalArith(op Op, x, y Value, width int, signed bool, cache *MaskCache) Value {
	if x.IsXZ() || y.IsXZ() {
		return NewX(width, signed)
	}
	if width <= 64 {
		var r uint64
		switch op {
		case Add:
			r = x.payload + y.payload
		case Sub:
			r = x.payload - y.payload
		default:
			r = x.payload * y.payload
		}
		return Value{width: width, signed: signed, payload: r & mask64(width)}
	}
	xp, yp := x.Payload(), y.Payload()
	switch op {
	case Add:
		xp.Add(xp, yp)
	case Sub:
		xp.Sub(xp, yp)
	default:
		xp.Mul(xp, yp)
	}
	return fromBig(xp, new(big.Int), width, signed, cache)
}

func evalDivRem(op Op, x, y Value, width int, signed bool, cache *MaskCache) Value {
	if x.IsXZ() || y.IsXZ() || y.IsZero() {
		return NewX(width, signed)
	}
	var xv, yv *big.Int
	if signed {
		xv, _ = x.ToBig()
		yv, _ = y.ToBig()
	} else {
		xv, yv = x.Payload(), y.Payload()
	}
	r := new(big.Int)
	if op == Div {
		r.Quo(xv, yv)
	} else {
		r.Rem(xv, yv)
	}
	return fromBig(r, new(big.Int), width, signed, cache)
}

func evalBitwise(op Op, x, y Value, width int, cache *MaskCache) Value {
	if width <= 64 {
		xp, xm, yp, ym := x.payload, x.mask, y.payload, y.mask
		var p, m uint64
		switch op {
		case BitAnd:
			p = xp & yp
			m = (xm & ym) | (xm &^ ym & yp) | (ym &^ xm & xp)
		case BitOr:
			p = xp | yp
			m = (xm & ym) | (xm &^ ym &^ yp) | (ym &^ xm &^ xp)
		case BitXor:
			p = xp ^ yp
			m = xm | ym
		default:
			p = ^(xp ^ yp) & mask64(width)
			m = xm | ym
		}
		return Value{width: width, payload: p &^ m, mask: m}
	}

	xp, xm, yp, ym := x.Payload(), x.MaskXZ(), y.Payload(), y.MaskXZ()
	p, m := new(big.Int), new(big.Int)
	t := new(big.Int)
	switch op {
	case BitAnd:
		p.And(xp, yp)
		m.And(xm, ym)
		t.AndNot(xm, ym)
		m.Or(m, t.And(t, yp))
		t.AndNot(ym, xm)
		m.Or(m, t.And(t, xp))
	case BitOr:
		p.Or(xp, yp)
		m.And(xm, ym)
		t.AndNot(xm, ym)
		m.Or(m, t.AndNot(t, yp))
		t.AndNot(ym, xm)
		m.Or(m, t.AndNot(t, xp))
	case BitXor:
		p.Xor(xp, yp)
		m.Or(xm, ym)
	default:
		p.Xor(xp, yp)
		p.Xor(p, cache.Get(width))
		m.Or(xm, ym)
	}
	p.AndNot(p, m)
	return fromBig(p, m, width, false, cache)
}

func evalEquality(op Op, x, y Value, width int, cache *MaskCache) Value {
	xp, xm, yp, ym := x.Payload(), x.MaskXZ(), y.Payload(), y.MaskXZ()

	switch op {
	case Eq, Ne:
		xz := new(big.Int).Or(xm, ym)
		xd := new(big.Int).AndNot(xp, xz)
		yd := new(big.Int).AndNot(yp, xz)
		differ := xd.Cmp(yd) != 0
		isX := xz.Sign() != 0
		if op == Eq {
			return NewBit0X(differ, isX)
		}
		return NewBit1X(differ, isX)
	default:
		w := new(big.Int).AndNot(cache.Get(width), ym)
		xd := new(big.Int).And(xp, w)
		yd := new(big.Int).And(yp, w)
		differ := xd.Cmp(yd) != 0
		isX := new(big.Int).And(xm, w).Sign() != 0
		if op == EqWildcard {
			return NewBitX0(isX, differ)
		}
		return NewBitX1(isX, differ)
	}
}

func evalCompare(op Op, x, y Value, signed bool) Value {
	if x.IsXZ() || y.IsXZ() {
		return NewX(1, false)
	}
	var xv, yv *big.Int
	if signed {
		xv, _ = x.ToBig()
		yv, _ = y.ToBig()
	} else {
		xv, yv = x.Payload(), y.Payload()
	}
	c := xv.Cmp(yv)
	var r bool
	switch op {
	case Less:
		r = c < 0
	case LessEq:
		r = c <= 0
	case Greater:
		r = c > 0
	default:
		r = c >= 0
	}
	return NewBitX1(false, r)
}

func evalShift(op Op, x, y Value, width int, cache *MaskCache) Value {
	n, ok := y.ToInteger()
	if !ok {
		return NewX(width, false)
	}
	p, m := x.Payload(), x.MaskXZ()
	switch op {
	case LogicShiftL, ArithShiftL:
		p.Lsh(p, uint(n))
		m.Lsh(m, uint(n))
		keep := false
		if op == ArithShiftL {
			keep = x.signed
		}
		return fromBig(p, m, width, keep, cache)
	case LogicShiftR:
		p.Rsh(p, uint(n))
		m.Rsh(m, uint(n))
		return fromBig(p, m, width, false, cache)
	default:
		p.Rsh(p, uint(n))
		m.Rsh(m, uint(n))
		if x.signed && x.width > 0 {
			ext := new(big.Int).Xor(cache.Get(width), cache.Get(max(width-n, 0)))
			pm, mm := x.Bit(x.width - 1)
			if pm {
				p.Or(p, ext)
			}
			if mm {
				m.Or(m, ext)
			}
		}
		return fromBig(p, m, width, x.signed, cache)
	}
}

func evalPow(x, y Value, width int, cache *MaskCache) Value {
	n, ok := y.ToUint()
	if !ok {
		return NewX(width, false)
	}
	if x.IsXZ() {
		return NewX(width, x.signed)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	r := new(big.Int).Exp(x.Payload(), new(big.Int).SetUint64(n), mod)
	return fromBig(r, new(big.Int), width, x.signed, cache)
}
