// Package interval computes overlaps between millisecond time ranges.
package interval

// OverlapMs returns how long [a0,a1] and [b0,b1] share, or 0 when they are disjoint.
func OverlapMs(a0, a1, b0, b1 int64) int64 {
	s, e := max(a0, b0), min(a1, b1)
	return max(0, e-s)
}

// MidpointWithin returns the floor midpoint of the overlap of the two ranges.
// The result is meaningless unless OverlapMs(a0, a1, b0, b1) > 0.
func MidpointWithin(a0, a1, b0, b1 int64) int64 {
	s, e := max(a0, b0), min(a1, b1)
	return s + floorDiv(e-s, 2)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
