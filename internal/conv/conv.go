// Package conv provides checked integer narrowing for the regex engine.
//
// Narrowing happens where program sizes (ints) meet the uint32 program
// counters used by the engines. Overflow indicates a program far beyond
// the compiler's size limits, so these helpers panic rather than return
// an error.
package conv

import "math"

// IntToUint32 converts n to uint32, panicking if n is negative or too large.
func IntToUint32(n int) uint32 {
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("conv: int value out of uint32 range")
	}
	return uint32(n)
}
