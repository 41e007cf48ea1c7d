package value

import (
	"fmt"
	"math/big"
	"strings"
)

func (v Value) allBitString() string {
	switch {
	case v.mask == 0 && v.payload == 0:
		return "'0"
	case v.mask == 0:
		return "'1"
	case v.payload == 0:
		return "'x"
	default:
		return "'z"
	}
}

func (v Value) prefix(base byte) string {
	if v.signed {
		return fmt.Sprintf("%d's%c", v.width, base)
	}
	return fmt.Sprintf("%d'%c", v.width, base)
}

// digits renders payload, X mask and Z mask as zero-padded strings in base.
func (v Value) digits(base, length int) (payload, maskX, maskZ string) {
	p, m := v.Payload(), v.MaskXZ()
	x := new(big.Int).AndNot(m, p)
	z := new(big.Int).And(m, p)
	pad := func(b *big.Int) string {
		s := b.Text(base)
		if len(s) < length {
			s = strings.Repeat("0", length-len(s)) + s
		}
		return s
	}
	return pad(p), pad(x), pad(z)
}

// Hex formats the value as a SystemVerilog hex literal such as 8'hf2.
//
// A nibble whose bits are all X prints as x; a nibble with some X bits
// prints as X. The same rule applies to z/Z.
func (v Value) Hex() string {
	if v.width == 0 {
		return v.allBitString()
	}
	n := (v.width + 3) / 4
	full := [4]byte{'f', '1', '3', '7'}[v.width%4]
	payload, maskX, maskZ := v.digits(16, n)

	var sb strings.Builder
	sb.WriteString(v.prefix('h'))
	for i := 0; i < n; i++ {
		switch {
		case maskX[i] != '0':
			if maskX[i] == 'f' || (i == 0 && maskX[i] == full) {
				sb.WriteByte('x')
			} else {
				sb.WriteByte('X')
			}
		case maskZ[i] != '0':
			if maskZ[i] == 'f' || (i == 0 && maskZ[i] == full) {
				sb.WriteByte('z')
			} else {
				sb.WriteByte('Z')
			}
		default:
			sb.WriteByte(payload[i])
		}
	}
	return sb.String()
}

// Binary formats the value as a SystemVerilog binary literal.
func (v Value) Binary() string {
	if v.width == 0 {
		return v.allBitString()
	}
	payload, maskX, maskZ := v.digits(2, v.width)

	var sb strings.Builder
	sb.WriteString(v.prefix('b'))
	for i := 0; i < v.width; i++ {
		switch {
		case maskX[i] != '0':
			sb.WriteByte('x')
		case maskZ[i] != '0':
			sb.WriteByte('z')
		default:
			sb.WriteByte(payload[i])
		}
	}
	return sb.String()
}

// HexDigits returns hex digits without width or base: any X bit in a
// nibble prints x, otherwise any Z bit prints z.
func (v Value) HexDigits() string {
	if v.width == 0 {
		return strings.TrimPrefix(v.allBitString(), "'")
	}
	n := (v.width + 3) / 4
	payload, maskX, maskZ := v.digits(16, n)

	var sb strings.Builder
	for i := 0; i < n; i++ {
		switch {
		case maskX[i] != '0':
			sb.WriteByte('x')
		case maskZ[i] != '0':
			sb.WriteByte('z')
		default:
			sb.WriteByte(payload[i])
		}
	}
	return sb.String()
}

// String implements fmt.Stringer using the hex form.
func (v Value) String() string {
	return v.Hex()
}
