package utils

// CeilDiv divides pool by n rounding up. Settlement uses it so a pool
// that does not divide evenly rounds in the participants' favor.
func CeilDiv(pool, n int) int {
	if n <= 0 {
		return 0
	}
	return (pool + n - 1) / n
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
