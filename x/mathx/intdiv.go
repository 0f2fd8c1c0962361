package mathx

import "golang.org/x/exp/constraints"

// RoundDiv returns floor((a + b/2)/b), classic rounding for unsigned values.
// b == 0 yields 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// Percent returns 100*part/total as a float. total == 0 yields 0.
func Percent[T constraints.Unsigned](part, total T) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
