/*
Package bitint provides the power-of-two arithmetic used to size FFT
windows and audio periods.

Analysis resolution only ever moves by factors of two, so every size the
pipeline handles is a power of two and every ratio between two sizes is
one too. These helpers keep that arithmetic branch-light and allocation
free.

Usage:

	// Validate a requested FFT size
	ok := bitint.IsPowerOfTwo(8192)

	// Number of periods in a window
	chunks := 8192 >> bitint.Log2(128) // 64

----------------------------------------------------------------------

What NextPowerOfTwo does:

	The subtraction (size-1) is critical, without it powers of 2
	would be doubled.

	For input 8 (already a power of 2):
	  size-1 = 7 (binary 0111)
	  bits.Len(7) = 3
	  1 << 3 = 8

	For input 9:
	  size-1 = 8 (binary 1000)
	  bits.Len(8) = 4
	  1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns floor(log2(n)) for n > 0 and -1 otherwise.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}

// ClampPowerOfTwo rounds n up to a power of two and clamps it into
// [lo, hi]. lo and hi are expected to be powers of two themselves.
func ClampPowerOfTwo(n, lo, hi int) int {
	p := NextPowerOfTwo(n)
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}
