package mathx

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
func RoundDiv[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// MulDiv returns a*b/c with a 64-bit intermediate, truncating toward zero.
// c == 0 yields 0.
func MulDiv[T ~int | ~int32 | ~uint16 | ~uint32](a, b, c T) T {
	if c == 0 {
		return 0
	}
	return T(int64(a) * int64(b) / int64(c))
}
