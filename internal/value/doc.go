// Package value implements 4-state (0/1/X/Z) bit-vector values and the
// operator evaluator used for compile-time evaluation.
//
// A Value carries a payload, an X/Z mask, a width and a signedness flag.
// Each bit is encoded by the pair (mask, payload):
//
//	mask=0 payload=0  -> 0
//	mask=0 payload=1  -> 1
//	mask=1 payload=0  -> X
//	mask=1 payload=1  -> Z
//
// Values up to 64 bits are stored in a uint64 pair; wider values use
// math/big. Both forms are observably identical: every operation returns
// the same logical result regardless of which form backs its operands.
//
// Width 0 denotes a widthless all-bit literal ('0, '1, 'x, 'z) that fills
// whatever width the surrounding context requests.
//
// Operators are modelled by Op. Each Op answers three independent
// questions:
//
//  1. How wide is the result, and which operands are self-determined?
//     (UnaryResultWidth, BinaryResultWidth, BinaryXContextWidth, ...)
//  2. Is the evaluation signed? (UnarySigned, BinarySigned)
//  3. What is the 4-state result? (EvalUnary, EvalBinary)
//
// The rules follow IEEE 1800 expression width and X-propagation semantics.
package value
