package coords

import (
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

type number interface {
	constraints.Integer | constraints.Float
}

func cmpOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// median of vals; vals is not modified. Integer medians truncate.
func median[T number](vals []T) T {
	if len(vals) == 0 {
		return 0
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1] + (sorted[mid]-sorted[mid-1])/2
}

// diffs returns consecutive differences
func diffs[T number](vals []T) []T {
	if len(vals) < 2 {
		return nil
	}
	out := make([]T, len(vals)-1)
	for i := range out {
		out[i] = vals[i+1] - vals[i]
	}
	return out
}

// allClose reports whether every value is within rtol of target
func allClose[T number](vals []T, target T, rtol float64) bool {
	tol := rtol * math.Abs(float64(target))
	for _, v := range vals {
		if math.Abs(float64(v)-float64(target)) > tol {
			return false
		}
	}
	return true
}

// strictlyMonotonic reports increasing / decreasing order of vals
func strictlyMonotonic[T number](vals []T) (increasing, decreasing bool) {
	increasing, decreasing = true, true
	for i := 1; i < len(vals); i++ {
		if !(vals[i] > vals[i-1]) {
			increasing = false
		}
		if !(vals[i] < vals[i-1]) {
			decreasing = false
		}
		if !increasing && !decreasing {
			return
		}
	}
	return
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloatIndex converts a floating point index into an int within [lo, hi]
func clampFloatIndex(f float64, lo, hi int) int {
	if math.IsNaN(f) {
		return lo
	}
	if f <= float64(lo) {
		return lo
	}
	if f >= float64(hi) {
		return hi
	}
	return int(f)
}

// floatToInt64 saturates at the int64 limits
const nanosPerSecond int64 = 1e9

// secondsToNanos multiplies by 1e9, saturating like floatToInt64
func secondsToNanos(s int64) int64 {
	switch {
	case s > math.MaxInt64/nanosPerSecond:
		return math.MaxInt64
	case s < (math.MinInt64+1)/nanosPerSecond:
		return math.MinInt64 + 1
	}
	return s * nanosPerSecond
}

func floatToInt64(f float64) int64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64+1 {
		return math.MinInt64 + 1
	}
	return int64(f)
}
