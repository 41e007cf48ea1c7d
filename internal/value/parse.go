package value

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ParseError is returned when a numeric literal cannot be decoded.
type ParseError struct {
	Literal string
	Reason  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid numeric literal %q: %s", e.Literal, e.Reason)
}

// Parse decodes a numeric literal.
//
// Supported forms:
//
//	8'hff  10'sb101  'hx      based (optional width, optional s)
//	123                       baseless, 32-bit signed
//	'0 '1 'x 'z  10'1         all-bit
//	1.0  1.5e3                fixed point / exponent, IEEE-754 double bits
//
// Underscores are ignored.
func Parse(s string) (Value, error) {
	if i := strings.IndexByte(s, '\''); i >= 0 {
		rest := s[i+1:]
		if rest == "" {
			return Value{}, &ParseError{Literal: s, Reason: "missing base"}
		}
		switch rest[0] {
		case 's', 'S', 'b', 'B', 'o', 'O', 'd', 'D', 'h', 'H':
			return parseBased(s)
		default:
			return parseAllBit(s)
		}
	}
	if strings.ContainsAny(s, ".eE") {
		return parseReal(s)
	}
	return parseBaseless(s)
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseBased(s string) (Value, error) {
	x := strings.ReplaceAll(s, "_", "")
	i := strings.IndexByte(x, '\'')
	widthStr, rest := x[:i], x[i+1:]

	signed := false
	if rest[0] == 's' || rest[0] == 'S' {
		signed = true
		rest = rest[1:]
	}
	if rest == "" {
		return Value{}, &ParseError{Literal: s, Reason: "missing base"}
	}

	var radix, charLen int
	var all1 byte
	switch rest[0] {
	case 'b', 'B':
		radix, charLen, all1 = 2, 1, '1'
	case 'o', 'O':
		radix, charLen, all1 = 8, 3, '7'
	case 'd', 'D':
		radix, charLen, all1 = 10, 0, '0'
	case 'h', 'H':
		radix, charLen, all1 = 16, 4, 'f'
	default:
		return Value{}, &ParseError{Literal: s, Reason: "unknown base"}
	}
	digits := rest[1:]
	if digits == "" {
		return Value{}, &ParseError{Literal: s, Reason: "missing digits"}
	}
	lexicalWidth := len(digits) * charLen

	payloadStr := make([]byte, len(digits))
	maskXStr := make([]byte, len(digits))
	maskZStr := make([]byte, len(digits))
	for j := 0; j < len(digits); j++ {
		c := digits[j]
		payloadStr[j], maskXStr[j], maskZStr[j] = c, '0', '0'
		switch c {
		case 'x', 'X':
			payloadStr[j], maskXStr[j] = '0', all1
		case 'z', 'Z', '?':
			payloadStr[j], maskZStr[j] = '0', all1
		}
	}

	payload, ok := new(big.Int).SetString(string(payloadStr), radix)
	if !ok {
		return Value{}, &ParseError{Literal: s, Reason: "invalid digit"}
	}
	maskX, _ := new(big.Int).SetString(string(maskXStr), radix)
	maskZ, _ := new(big.Int).SetString(string(maskZStr), radix)

	actualWidth := max(payload.BitLen(), maskX.BitLen(), maskZ.BitLen())

	width := actualWidth
	if widthStr != "" {
		w, err := strconv.Atoi(widthStr)
		if err != nil || w < 0 {
			return Value{}, &ParseError{Literal: s, Reason: "invalid width"}
		}
		if w > lexicalWidth && lexicalWidth != 0 {
			ext := new(big.Int).Xor(genMask(w), genMask(lexicalWidth))
			if maskX.Bit(lexicalWidth-1) == 1 {
				maskX.Or(maskX, ext)
			}
			if maskZ.Bit(lexicalWidth-1) == 1 {
				maskZ.Or(maskZ, ext)
			}
		}
		width = w
	}

	mask := new(big.Int).Or(maskX, maskZ)
	inv := new(big.Int).Xor(mask, genMask(actualWidth))
	payload.And(payload, inv)
	payload.Or(payload, maskZ)

	return fromBig(payload, mask, width, signed, nil), nil
}

func parseAllBit(s string) (Value, error) {
	i := strings.IndexByte(s, '\'')
	widthStr, rest := s[:i], s[i+1:]
	if len(rest) != 1 || !strings.ContainsRune("01xXzZ", rune(rest[0])) {
		return Value{}, &ParseError{Literal: s, Reason: "invalid all-bit literal"}
	}
	v := NewAllBit(rest[0])
	if widthStr == "" {
		return v, nil
	}
	w, err := strconv.Atoi(strings.ReplaceAll(widthStr, "_", ""))
	if err != nil || w <= 0 {
		return Value{}, &ParseError{Literal: s, Reason: "invalid width"}
	}
	return v.fill(w), nil
}

func parseBaseless(s string) (Value, error) {
	x := strings.ReplaceAll(s, "_", "")
	u, err := strconv.ParseUint(x, 10, 64)
	if err != nil {
		return Value{}, &ParseError{Literal: s, Reason: "invalid decimal"}
	}
	return New(u, 32, true), nil
}

func parseReal(s string) (Value, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
	if err != nil {
		return Value{}, &ParseError{Literal: s, Reason: "invalid real"}
	}
	return New(math.Float64bits(f), 64, false), nil
}
