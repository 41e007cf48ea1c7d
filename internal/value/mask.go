package value

import "math/big"

// MaskCache memoizes 2^w-1 masks for wide values.
//
// A nil *MaskCache is valid and allocates a fresh mask per call.
// Returned masks are shared and must not be mutated.
type MaskCache struct {
	masks map[int]*big.Int
}

// NewMaskCache creates an empty cache.
func NewMaskCache() *MaskCache {
	return &MaskCache{masks: make(map[int]*big.Int)}
}

// Get returns the all-ones mask for width.
func (c *MaskCache) Get(width int) *big.Int {
	if c == nil {
		return genMask(width)
	}
	if m, ok := c.masks[width]; ok {
		return m
	}
	m := genMask(width)
	c.masks[width] = m
	return m
}

// Len returns the number of cached widths.
func (c *MaskCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.masks)
}

func genMask(width int) *big.Int {
	if width <= 0 {
		return new(big.Int)
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

func mask64(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	if width <= 0 {
		return 0
	}
	return (uint64(1) << uint(width)) - 1
}
