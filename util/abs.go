// Package util provides generic integer helpers shared by the quantizer
// packages.
package util

// Signed is a constraint for signed integer types.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Abs returns the absolute value of x. The most negative value of T has no
// positive counterpart and is returned unchanged.
func Abs[T Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp limits x to [lo, hi]. lo must not exceed hi.
func Clamp[T Signed](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
