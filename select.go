package coords

import (
	"math"
	"sort"
)

// window is a selection range resolved into a coordinate's storage space.
// Integer storage compares exactly, float storage uses widened limits.
type window struct {
	ints   bool
	il, ih int64
	fl, fh float64
	empty  bool
}

func newWindow(dt DType, unitStr string, r Range, tol float64) (window, error) {
	lo, hi, err := coerceRange(dt, unitStr, r)
	if err != nil {
		return window{}, err
	}
	w := window{ints: dt.storesInts()}
	if w.ints {
		var ok bool
		w.il, w.ih, ok = intBounds(lo, hi)
		w.empty = !ok
		return w, nil
	}
	w.fl, w.fh = floatBounds(lo, hi, math.Abs(tol))
	w.empty = w.fl > w.fh
	return w, nil
}

// contains reports whether element i of a lies inside the window. Nulls
// never do.
func (w window) contains(a *Array, i int) bool {
	if w.empty || a.nullAt(i) {
		return false
	}
	if w.ints {
		v := a.ints[i]
		return v >= w.il && v <= w.ih
	}
	v := a.floatAt(i)
	return v >= w.fl && v <= w.fh
}

// searchSorted returns the [start, stop) positions of monotonic vals that
// lie inside [lo, hi]. Descending values mirror the comparisons.
func searchSorted[T number](vals []T, lo, hi T, descending bool) (int, int) {
	n := len(vals)
	if descending {
		start := sort.Search(n, func(i int) bool { return vals[i] <= hi })
		stop := sort.Search(n, func(i int) bool { return vals[i] < lo })
		return start, stop
	}
	start := sort.Search(n, func(i int) bool { return vals[i] >= lo })
	stop := sort.Search(n, func(i int) bool { return vals[i] > hi })
	return start, stop
}

// searchWindow applies searchSorted to the storage buffer of a
func searchWindow(a *Array, w window, descending bool) (int, int) {
	if w.empty {
		return 0, 0
	}
	if w.ints {
		return searchSorted(a.ints, w.il, w.ih, descending)
	}
	return searchSorted(a.floats, w.fl, w.fh, descending)
}

// spacing is the average sample distance of a 1-D array, used to scale the
// float selection tolerance of array coordinates.
func spacing(a *Array) float64 {
	lo, hi := minMax(a)
	if lo.IsNull() || a.Len() < 2 {
		return 0
	}
	return (hi.Float64() - lo.Float64()) / float64(a.Len()-1)
}
