package value

import (
	"fmt"
	"math"
	"math/big"
)

// Value is an immutable 4-state bit-vector.
//
// Widths up to 64 use the narrow fields; wider values use the big fields.
// The zero Value is a 0-width '0.
type Value struct {
	width  int
	signed bool

	payload uint64
	mask    uint64

	bigPayload *big.Int
	bigMask    *big.Int
}

// New creates a 2-state value. payload is truncated to width.
func New(payload uint64, width int, signed bool) Value {
	if width > 64 {
		return Value{
			width:      width,
			signed:     signed,
			bigPayload: new(big.Int).SetUint64(payload),
			bigMask:    new(big.Int),
		}
	}
	return Value{width: width, signed: signed, payload: payload & mask64(width)}
}

// NewBig creates a 2-state value from an arbitrary integer.
// Negative integers are stored in two's complement.
func NewBig(payload *big.Int, width int, signed bool) Value {
	return fromBig(payload, new(big.Int), width, signed, nil)
}

// NewXZ creates a value from explicit payload and mask integers.
func NewXZ(payload, mask *big.Int, width int, signed bool) Value {
	return fromBig(payload, mask, width, signed, nil)
}

// NewX creates an all-X value.
func NewX(width int, signed bool) Value {
	if width > 64 {
		return Value{width: width, signed: signed, bigPayload: new(big.Int), bigMask: genMask(width)}
	}
	return Value{width: width, signed: signed, mask: mask64(width)}
}

// NewZ creates an all-Z value.
func NewZ(width int, signed bool) Value {
	if width > 64 {
		return Value{width: width, signed: signed, bigPayload: genMask(width), bigMask: genMask(width)}
	}
	m := mask64(width)
	return Value{width: width, signed: signed, payload: m, mask: m}
}

// NewAllBit creates a widthless all-bit literal: '0, '1, 'x or 'z.
func NewAllBit(bit byte) Value {
	switch bit {
	case '1':
		return Value{payload: 1}
	case 'x', 'X':
		return Value{mask: 1}
	case 'z', 'Z':
		return Value{payload: 1, mask: 1}
	default:
		return Value{}
	}
}

// NewBool creates an unsigned 1-bit value.
func NewBool(b bool) Value {
	if b {
		return New(1, 1, false)
	}
	return New(0, 1, false)
}

// NewBit1X returns 1 if isOne, else X if isX, else 0.
func NewBit1X(isOne, isX bool) Value {
	switch {
	case isOne:
		return NewBool(true)
	case isX:
		return NewX(1, false)
	default:
		return NewBool(false)
	}
}

// NewBit0X returns 0 if isZero, else X if isX, else 1.
func NewBit0X(isZero, isX bool) Value {
	switch {
	case isZero:
		return NewBool(false)
	case isX:
		return NewX(1, false)
	default:
		return NewBool(true)
	}
}

// NewBitX1 returns X if isX, else 1 if isOne, else 0.
func NewBitX1(isX, isOne bool) Value {
	switch {
	case isX:
		return NewX(1, false)
	case isOne:
		return NewBool(true)
	default:
		return NewBool(false)
	}
}

// NewBitX0 returns X if isX, else 0 if isZero, else 1.
func NewBitX0(isX, isZero bool) Value {
	switch {
	case isX:
		return NewX(1, false)
	case isZero:
		return NewBool(false)
	default:
		return NewBool(true)
	}
}

// fromBig masks p and m to width and picks the backing form.
func fromBig(p, m *big.Int, width int, signed bool, cache *MaskCache) Value {
	if width <= 64 {
		mm := mask64(width)
		return Value{
			width:   width,
			signed:  signed,
			payload: lowUint64(p) & mm,
			mask:    lowUint64(m) & mm,
		}
	}
	w := cache.Get(width)
	return Value{
		width:      width,
		signed:     signed,
		bigPayload: new(big.Int).And(p, w),
		bigMask:    new(big.Int).And(m, w),
	}
}

// lowUint64 returns the low 64 bits of x in two's complement.
func lowUint64(x *big.Int) uint64 {
	if x.Sign() >= 0 && x.IsUint64() {
		return x.Uint64()
	}
	return new(big.Int).And(x, genMask(64)).Uint64()
}

// Width returns the bit width. 0 marks a widthless all-bit literal.
func (v Value) Width() int { return v.width }

// Signed reports whether the value is signed.
func (v Value) Signed() bool { return v.signed }

// IsWide reports whether the value uses the arbitrary-precision form.
func (v Value) IsWide() bool { return v.width > 64 }

// IsAllBit reports whether the value is a widthless all-bit literal.
func (v Value) IsAllBit() bool { return v.width == 0 }

// WithSigned returns a copy with the signedness flag replaced.
func (v Value) WithSigned(signed bool) Value {
	v.signed = signed
	return v
}

// Payload returns a copy of the payload bits.
func (v Value) Payload() *big.Int {
	if v.IsWide() {
		return new(big.Int).Set(v.bigPayload)
	}
	return new(big.Int).SetUint64(v.payload)
}

// MaskXZ returns a copy of the X/Z mask bits.
func (v Value) MaskXZ() *big.Int {
	if v.IsWide() {
		return new(big.Int).Set(v.bigMask)
	}
	return new(big.Int).SetUint64(v.mask)
}

// IsXZ reports whether any bit is X or Z.
func (v Value) IsXZ() bool {
	if v.IsWide() {
		return v.bigMask.Sign() != 0
	}
	return v.mask != 0
}

// IsZero reports whether the value is a definite zero.
func (v Value) IsZero() bool {
	if v.IsXZ() {
		return false
	}
	if v.IsWide() {
		return v.bigPayload.Sign() == 0
	}
	return v.payload == 0
}

// Bit returns the payload and mask bit at position i.
func (v Value) Bit(i int) (payload, mask bool) {
	if i < 0 || (v.width != 0 && i >= v.width) {
		return false, false
	}
	if v.width == 0 {
		return v.payload != 0, v.mask != 0
	}
	if v.IsWide() {
		return v.bigPayload.Bit(i) == 1, v.bigMask.Bit(i) == 1
	}
	return (v.payload>>uint(i))&1 == 1, (v.mask>>uint(i))&1 == 1
}

// OnesCount returns the number of definite one bits.
func (v Value) OnesCount() int {
	p := new(big.Int).AndNot(v.Payload(), v.MaskXZ())
	n := 0
	for _, w := range p.Bits() {
		for x := uint64(w); x != 0; x &= x - 1 {
			n++
		}
	}
	return n
}

// ToUint returns the value as uint64 if it is 2-state and fits.
func (v Value) ToUint() (uint64, bool) {
	if v.IsXZ() {
		return 0, false
	}
	if v.IsWide() {
		if !v.bigPayload.IsUint64() {
			return 0, false
		}
		return v.bigPayload.Uint64(), true
	}
	return v.payload, true
}

// ToInt returns the value as int64, honoring the sign flag.
func (v Value) ToInt() (int64, bool) {
	b, ok := v.ToBig()
	if !ok || !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// ToBig returns the integer value, sign-extended when the value is signed.
func (v Value) ToBig() (*big.Int, bool) {
	if v.IsXZ() {
		return nil, false
	}
	p := v.Payload()
	if v.signed && v.width > 0 && p.Bit(v.width-1) == 1 {
		p.Sub(p, new(big.Int).Lsh(big.NewInt(1), uint(v.width)))
	}
	return p, true
}

// ToInteger returns a non-negative int usable as an index, count or width.
func (v Value) ToInteger() (int, bool) {
	u, ok := v.ToUint()
	if !ok || u > math.MaxInt32 {
		return 0, false
	}
	return int(u), true
}

// ToFloat reinterprets a 64-bit payload as IEEE-754 double.
func (v Value) ToFloat() (float64, bool) {
	u, ok := v.ToUint()
	if !ok {
		return 0, false
	}
	return math.Float64frombits(u), true
}

// Equal reports bit-exact equality including width and signedness.
func (v Value) Equal(o Value) bool {
	if v.width != o.width || v.signed != o.signed {
		return false
	}
	if v.IsWide() {
		return v.bigPayload.Cmp(o.bigPayload) == 0 && v.bigMask.Cmp(o.bigMask) == 0
	}
	return v.payload == o.payload && v.mask == o.mask
}

// Key returns a stable string usable as a map key.
func (v Value) Key() string {
	s := "u"
	if v.signed {
		s = "s"
	}
	return fmt.Sprintf("%d%s:%s:%s", v.width, s, v.Payload().Text(16), v.MaskXZ().Text(16))
}

// ClearXZ returns a copy with every X/Z bit turned into its payload bit.
func (v Value) ClearXZ() Value {
	if v.IsWide() {
		v.bigMask = new(big.Int)
		return v
	}
	v.mask = 0
	return v
}

// Expand widens the value to width. Narrower or equal targets return v
// unchanged. With useSign, a signed value is sign-extended (an X/Z MSB
// extends as X/Z) and keeps its sign; otherwise the result is unsigned.
// A widthless all-bit literal fills every bit of the target width.
func (v Value) Expand(width int, useSign bool) Value {
	if v.width == 0 {
		if width == 0 {
			return v
		}
		return v.fill(width)
	}
	if v.width >= width {
		return v
	}
	signed := v.signed && useSign
	if width <= 64 {
		p, m := v.payload, v.mask
		if signed {
			ext := mask64(width) ^ mask64(v.width)
			if (p>>uint(v.width-1))&1 == 1 {
				p |= ext
			}
			if (m>>uint(v.width-1))&1 == 1 {
				m |= ext
			}
		}
		return Value{width: width, signed: signed, payload: p, mask: m}
	}
	p, m := v.Payload(), v.MaskXZ()
	if signed {
		ext := new(big.Int).Xor(genMask(width), genMask(v.width))
		if p.Bit(v.width-1) == 1 {
			p.Or(p, ext)
		}
		if m.Bit(v.width-1) == 1 {
			m.Or(m, ext)
		}
	}
	return Value{width: width, signed: signed, bigPayload: p, bigMask: m}
}

func (v Value) fill(width int) Value {
	var p, m *big.Int
	if v.payload != 0 {
		p = genMask(width)
	} else {
		p = new(big.Int)
	}
	if v.mask != 0 {
		m = genMask(width)
	} else {
		m = new(big.Int)
	}
	return fromBig(p, m, width, false, nil)
}

// Trunc narrows the value to width. Wider or equal targets return v
// unchanged, except that a widthless literal fills to width.
func (v Value) Trunc(width int) Value {
	if v.width == 0 {
		return v.fill(width)
	}
	if v.width <= width {
		return v
	}
	return fromBig(v.Payload(), v.MaskXZ(), width, v.signed, nil)
}

// Resize truncates or zero/sign-extends to exactly width.
func (v Value) Resize(width int) Value {
	if v.width > width {
		return v.Trunc(width)
	}
	return v.Expand(width, true).WithSigned(v.signed)
}

// Select returns bits [beg:end] (inclusive, beg >= end) as an unsigned value.
// beg < end yields the zero Value.
func (v Value) Select(beg, end int) Value {
	if beg < end {
		return Value{}
	}
	width := beg - end + 1
	if !v.IsWide() && width <= 64 {
		var p, m uint64
		if end < 64 {
			p, m = v.payload>>uint(end), v.mask>>uint(end)
		}
		mm := mask64(width)
		return Value{width: width, payload: p & mm, mask: m & mm}
	}
	p := new(big.Int).Rsh(v.Payload(), uint(end))
	m := new(big.Int).Rsh(v.MaskXZ(), uint(end))
	return fromBig(p, m, width, false, nil)
}

// Concat returns {v, y}: v occupies the upper bits. The result is unsigned.
func (v Value) Concat(y Value) Value {
	width := v.width + y.width
	if width <= 64 {
		var p, m uint64
		if y.width < 64 {
			p, m = v.payload<<uint(y.width), v.mask<<uint(y.width)
		}
		return Value{width: width, payload: p | y.payload, mask: m | y.mask}
	}
	p := new(big.Int).Lsh(v.Payload(), uint(y.width))
	m := new(big.Int).Lsh(v.MaskXZ(), uint(y.width))
	p.Or(p, y.Payload())
	m.Or(m, y.MaskXZ())
	return Value{width: width, bigPayload: p, bigMask: m}
}

// Assign returns a copy with bits [beg:end] replaced by x.
func (v Value) Assign(x Value, beg, end int) Value {
	if beg < end || v.width == 0 {
		return v
	}
	rng := new(big.Int).Xor(genMask(beg+1), genMask(end))
	keep := new(big.Int).AndNot(genMask(v.width), rng)
	xp := new(big.Int).Lsh(x.Expand(beg-end+1, false).Payload(), uint(end))
	xm := new(big.Int).Lsh(x.Expand(beg-end+1, false).MaskXZ(), uint(end))
	xp.And(xp, rng)
	xm.And(xm, rng)
	p := new(big.Int).And(v.Payload(), keep)
	m := new(big.Int).And(v.MaskXZ(), keep)
	return fromBig(p.Or(p, xp), m.Or(m, xm), v.width, v.signed, nil)
}
