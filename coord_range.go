package coords

import (
	"fmt"
	"math"
)

// RangeCoord is an evenly sampled coordinate described by its first value,
// step and length. Values are generated on demand; the step may be negative.
type RangeCoord struct {
	start Scalar
	step  Scalar
	n     int
	units string
}

// NewRangeCoord builds an evenly sampled coordinate covering [start, stop).
// Datetime ranges take a duration step (plain numbers are seconds). A range
// holding no values is degenerate.
func NewRangeCoord(start, stop, step interface{}, opts ...CoordOption) (Coord, error) {
	cfg := newCoordConfig(opts)
	s0, err := ParseScalar(start)
	if err != nil {
		return nil, err
	}
	s1, err := ParseScalar(stop)
	if err != nil {
		return nil, err
	}
	ds, err := ParseScalar(step)
	if err != nil {
		return nil, err
	}
	if !s0.IsSet() || !s1.IsSet() || !ds.IsSet() {
		return nil, fmt.Errorf("%w: range coordinates need start, stop and step", ErrParameter)
	}
	if s0.IsNull() || s1.IsNull() || ds.IsNull() {
		return nil, fmt.Errorf("%w: range limits can't be NaN or NaT", ErrParameter)
	}

	var n int
	switch {
	case s0.dtype.IsTemporal():
		if s1.dtype != s0.dtype {
			return nil, fmt.Errorf("%w: range start is %s but stop is %s", ErrParameter, s0.dtype.Human(), s1.dtype.Human())
		}
		if ds, err = stepFor(s0.dtype, ds); err != nil {
			return nil, err
		}
		n = rangeLenInt(s0.i, s1.i, ds.i)
	case s1.dtype.IsTemporal() || ds.dtype.IsTemporal():
		return nil, fmt.Errorf("%w: can't mix %s start with %s stop and %s step", ErrParameter, s0.dtype.Human(), s1.dtype.Human(), ds.dtype.Human())
	case s0.dtype.IsFloat() || s1.dtype.IsFloat() || ds.dtype.IsFloat():
		s0, ds = Float(s0.Float64()), Float(ds.Float64())
		n = rangeLenFloat(s0.f, s1.Float64(), ds.f)
	default:
		n = rangeLenInt(s0.i, s1.i, ds.i)
	}
	return makeRange(cfg.units, s0, ds, n), nil
}

// rangeLenFloat is the number of samples start + k*step below stop
func rangeLenFloat(start, stop, step float64) int {
	if step == 0 {
		return 1
	}
	r := (stop - start) / step
	if !(r > 0) || math.IsInf(r, 0) {
		return 0
	}
	return int(math.Ceil(r - 1e-9))
}

func rangeLenInt(start, stop, step int64) int {
	if step == 0 {
		return 1
	}
	n := ceilDiv(stop-start, step)
	if n < 0 {
		return 0
	}
	return int(n)
}

// stepFor converts a step into the delta type of dt. Numbers used as
// temporal steps are seconds.
func stepFor(dt DType, step Scalar) (Scalar, error) {
	if !dt.IsTemporal() {
		if step.dtype.IsTemporal() {
			return Scalar{}, fmt.Errorf("%w: can't use a %s step on a %s coordinate", ErrParameter, step.dtype.Human(), dt.Human())
		}
		return step, nil
	}
	switch step.dtype.BasicType {
	case BTTimedelta:
		return step, nil
	case BTDatetime:
		return Scalar{}, fmt.Errorf("%w: step must be a duration, got a datetime", ErrParameter)
	}
	ns := math.Round(step.Float64() * 1e9)
	return Scalar{dtype: TimeDelta64, i: floatToInt64(ns), set: true}, nil
}

// deltaDType is the type of differences between values of dt
func deltaDType(dt DType) DType {
	if dt.BasicType == BTDatetime {
		return TimeDelta64
	}
	return dt
}

// makeRange builds a range coordinate from a first value and a step, which
// are already in value space. Integer coordinates whose first value or step
// isn't integral become float coordinates.
func makeRange(unitStr string, first, step Scalar, n int) Coord {
	dt := first.dtype
	switch {
	case dt.IsTemporal():
		if !step.dtype.storesInts() {
			step = Scalar{dtype: deltaDType(dt), i: floatToInt64(math.Round(step.f)), set: true}
		}
		step.dtype = deltaDType(dt)
	case dt.storesInts() && step.dtype.storesInts():
		step.dtype = dt
	default:
		if dt.storesInts() && first.integral() && step.integral() {
			first, step = Int(first.Int64()), Int(step.Int64())
			break
		}
		first, step = Float(first.Float64()), Float(step.Float64())
	}
	if n <= 0 {
		return &DegenerateCoord{dtype: first.dtype, units: unitStr, step: step, shape: []int{0}}
	}
	return &RangeCoord{start: first, step: step, n: n, units: unitStr}
}

// advance returns start + k*step
func advance(start, step Scalar, k int) Scalar {
	if start.dtype.storesInts() && step.dtype.storesInts() {
		return rawScalar(start.dtype, start.i+int64(k)*step.i, 0)
	}
	return Float(start.Float64() + float64(k)*step.Float64())
}

func (c *RangeCoord) sealed() {}

func (c *RangeCoord) Values() *Array {
	out := Zeros(c.start.dtype, c.n)
	for k := 0; k < c.n; k++ {
		v := advance(c.start, c.step, k)
		if out.dtype.storesInts() {
			out.ints[k] = v.i
		} else {
			out.floats[k] = v.f
		}
	}
	return out
}

func (c *RangeCoord) DType() DType  { return c.start.dtype }
func (c *RangeCoord) Units() string { return c.units }
func (c *RangeCoord) Len() int      { return c.n }
func (c *RangeCoord) Shape() []int  { return []int{c.n} }
func (c *RangeCoord) NDim() int     { return 1 }

// Start is the first value
func (c *RangeCoord) Start() Scalar { return c.start }

// Stop is the exclusive end of the range, one step past the last value
func (c *RangeCoord) Stop() Scalar { return advance(c.start, c.step, c.n) }

func (c *RangeCoord) Step() Scalar { return c.step }

func (c *RangeCoord) last() Scalar { return advance(c.start, c.step, c.n-1) }

func (c *RangeCoord) descending() bool { return c.step.Float64() < 0 && c.n > 1 }

func (c *RangeCoord) Min() Scalar {
	if c.descending() {
		return c.last()
	}
	return c.start
}

func (c *RangeCoord) Max() Scalar {
	if c.descending() {
		return c.start
	}
	return c.last()
}

func (c *RangeCoord) EvenlySampled() bool { return true }
func (c *RangeCoord) Sorted() bool        { return !c.descending() }
func (c *RangeCoord) ReverseSorted() bool { return c.descending() }
func (c *RangeCoord) Degenerate() bool    { return false }

// Select computes the kept run of samples arithmetically
func (c *RangeCoord) Select(r Range) (Coord, Indexer, error) {
	w, err := newWindow(c.DType(), c.units, r, selectTolerance*c.step.Float64())
	if err != nil {
		return nil, Indexer{}, err
	}
	var i0, i1 int
	switch {
	case w.empty:
	case c.n == 1 || c.step.Float64() == 0:
		if w.contains(c.Values(), 0) {
			i0, i1 = 0, c.n
		}
	case w.ints:
		i0, i1 = c.intSpan(w)
	default:
		i0, i1 = c.floatSpan(w)
	}
	if i1 <= i0 {
		return c.Empty(), SliceIndexer(0, 0), nil
	}
	if i0 == 0 && i1 == c.n {
		return c, FullIndexer(), nil
	}
	out := &RangeCoord{start: advance(c.start, c.step, i0), step: c.step, n: i1 - i0, units: c.units}
	return out, boundedSlice(i0, i1, c.n), nil
}

func (c *RangeCoord) intSpan(w window) (int, int) {
	lo, hi := c.Min().i, c.Max().i
	l, h := w.il, w.ih
	if l < lo {
		l = lo
	}
	if h > hi {
		h = hi
	}
	if l > h {
		return 0, 0
	}
	start, step := c.start.i, c.step.i
	var i0, i1 int64
	if step > 0 {
		i0, i1 = ceilDiv(l-start, step), floorDiv(h-start, step)+1
	} else {
		i0, i1 = ceilDiv(h-start, step), floorDiv(l-start, step)+1
	}
	return clampInt(int(i0), 0, c.n), clampInt(int(i1), 0, c.n)
}

func (c *RangeCoord) floatSpan(w window) (int, int) {
	start, step := c.start.f, c.step.f
	var f0, f1 float64
	if step > 0 {
		f0, f1 = math.Ceil((w.fl-start)/step), math.Floor((w.fh-start)/step)+1
	} else {
		f0, f1 = math.Ceil((w.fh-start)/step), math.Floor((w.fl-start)/step)+1
	}
	return clampFloatIndex(f0, 0, c.n), clampFloatIndex(f1, 0, c.n)
}

// Sort reverses the range when it runs the other way
func (c *RangeCoord) Sort(reverse bool) (Coord, Indexer, error) {
	if c.n < 2 || c.descending() == reverse {
		return c, FullIndexer(), nil
	}
	neg := c.step
	neg.i, neg.f = -neg.i, -neg.f
	return &RangeCoord{start: c.last(), step: neg, n: c.n, units: c.units}, StrideIndexer(-1), nil
}

func (c *RangeCoord) Snap() (Coord, error) { return c, nil }

func (c *RangeCoord) SetUnits(u string) Coord {
	out := *c
	out.units = u
	return &out
}

func (c *RangeCoord) ConvertUnits(u string) (Coord, error) {
	if c.DType().IsTemporal() {
		return c.SetUnits(u), nil
	}
	f, err := convertFactor(c.units, u)
	if err != nil {
		return nil, err
	}
	if f == 1 {
		return c.SetUnits(u), nil
	}
	return makeRange(u, scaleScalar(c.start, f), scaleScalar(c.step, f), c.n), nil
}

// UpdateLimits moves or stretches the range while keeping its length. Min
// and Max together derive the step; either one alone shifts the range.
func (c *RangeCoord) UpdateLimits(l Limits) (Coord, error) {
	switch l.count() {
	case 0:
		return c, nil
	case 3:
		return nil, errTooManyLimits
	}
	lim, err := resolveLimits(c.DType(), l)
	if err != nil {
		return nil, err
	}
	step := c.step
	if lim.Step.IsSet() {
		step = lim.Step
	}
	if lim.Min.IsSet() && lim.Max.IsSet() {
		if c.n < 2 {
			return makeRange(c.units, lim.Min, step, c.n), nil
		}
		span := valueSub(lim.Max, lim.Min)
		if span.divisibleBy(int64(c.n - 1)) {
			step = rawScalar(span.dtype, span.i/int64(c.n-1), 0)
		} else {
			step = Float(span.Float64() / float64(c.n-1))
		}
		if c.descending() {
			step.i, step.f = -step.i, -step.f
			return makeRange(c.units, lim.Max, step, c.n), nil
		}
		return makeRange(c.units, lim.Min, step, c.n), nil
	}
	return rangeWithLimit(c.units, c.start, lim, step, c.n), nil
}

// rangeWithLimit places a range of n samples with the given step so that
// its min (or max) matches lim. Without either, the range starts at first.
func rangeWithLimit(unitStr string, first Scalar, lim Limits, step Scalar, n int) Coord {
	back := advance(zeroLike(first), step, n-1)
	descending := step.Float64() < 0
	switch {
	case lim.Min.IsSet() && descending:
		return makeRange(unitStr, valueSub(lim.Min, back).as(first.dtype), step, n)
	case lim.Min.IsSet():
		return makeRange(unitStr, lim.Min, step, n)
	case lim.Max.IsSet() && descending:
		return makeRange(unitStr, lim.Max, step, n)
	case lim.Max.IsSet():
		return makeRange(unitStr, valueSub(lim.Max, back).as(first.dtype), step, n)
	}
	return makeRange(unitStr, first, step, n)
}

// resolveLimits moves limits into the value space of dt
func resolveLimits(dt DType, l Limits) (Limits, error) {
	var out Limits
	for _, p := range []struct {
		in  Scalar
		out *Scalar
	}{{l.Min, &out.Min}, {l.Max, &out.Max}} {
		if !p.in.IsSet() {
			continue
		}
		b, err := scalarBound(dt, p.in)
		if err != nil {
			return Limits{}, err
		}
		if b.open {
			return Limits{}, fmt.Errorf("%w: limits can't be NaN or NaT", ErrParameter)
		}
		*p.out = b.val.as(dt)
	}
	if l.Step.IsSet() {
		if l.Step.IsNull() {
			return Limits{}, fmt.Errorf("%w: step can't be NaN or NaT", ErrParameter)
		}
		step, err := stepFor(dt, l.Step)
		if err != nil {
			return Limits{}, err
		}
		out.Step = step.as(deltaDType(dt))
	}
	return out, nil
}

// valueSub returns a - b; two datetimes subtract to a timedelta
func valueSub(a, b Scalar) Scalar {
	if a.dtype.storesInts() && b.dtype.storesInts() {
		dt := a.dtype
		if a.dtype.BasicType == BTDatetime && b.dtype.BasicType == BTDatetime {
			dt = TimeDelta64
		}
		return Scalar{dtype: dt, i: a.i - b.i, set: true}
	}
	return Float(a.Float64() - b.Float64())
}

// divisibleBy reports whether s is an integer multiple of d
func (s Scalar) divisibleBy(d int64) bool {
	return s.dtype.storesInts() && d != 0 && s.i%d == 0
}

// as reinterprets the value of s under dt's storage
func (s Scalar) as(dt DType) Scalar {
	if dt.storesInts() {
		if s.dtype.storesInts() {
			return Scalar{dtype: dt, i: s.i, set: true}
		}
		if !dt.IsTemporal() && !s.integral() {
			return s
		}
		return Scalar{dtype: dt, i: floatToInt64(math.Round(s.f)), set: true}
	}
	return Float(s.Float64())
}

func zeroLike(s Scalar) Scalar { return Scalar{dtype: s.dtype, set: true} }

// scaleScalar multiplies s by factor, keeping integers integral when the
// factor allows it.
func scaleScalar(s Scalar, f float64) Scalar {
	if s.dtype.storesInts() && f == math.Trunc(f) {
		return Scalar{dtype: s.dtype, i: s.i * int64(f), set: true}
	}
	return Float(s.Float64() * f)
}

func (c *RangeCoord) Empty() Coord {
	return &DegenerateCoord{dtype: c.DType(), units: c.units, step: c.step, shape: []int{0}}
}

func (c *RangeCoord) Equal(o Coord) bool { return coordsEqual(c, o) }

func (c *RangeCoord) String() string { return describe("RangeCoord", c) }
