/*
Package bitint provides power-of-2 helpers for buffer and analysis-frame
sizing. All operations are O(1), allocation-free, and safe to call from
the capture hot path.

	frame := bitint.PrevPowerOfTwo(len(samples)) // largest frame that fits
	ok := bitint.IsPowerOfTwo(framesPerBuffer)   // validate configured size
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Exact powers of 2 are preserved (the size-1 before bits.Len is what
// keeps 8 from becoming 16). Non-positive input returns 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of 2 <= size, or 0 when
// size <= 0. Used to pick the biggest analysis frame a short signal
// can still fill.
func PrevPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
