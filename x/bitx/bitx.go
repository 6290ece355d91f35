// Package bitx holds small bit-scan helpers used on interrupt paths.
package bitx

import "math/bits"

// Highest returns the index of the most significant set bit, or -1 if x is 0.
func Highest(x uint32) int {
	return 31 - bits.LeadingZeros32(x)
}

// EachHighToLow calls fn for every set bit of x, most significant first.
func EachHighToLow(x uint32, fn func(bit int)) {
	for x != 0 {
		b := Highest(x)
		x &^= 1 << uint(b)
		fn(b)
	}
}
