package coords

import (
	"fmt"
	"math"
)

// SortedCoord holds explicit monotonic values that aren't evenly spaced
type SortedCoord struct {
	values     *Array
	descending bool
	units      string
}

func (c *SortedCoord) sealed() {}

func (c *SortedCoord) Values() *Array { return c.values }
func (c *SortedCoord) DType() DType   { return c.values.dtype }
func (c *SortedCoord) Units() string  { return c.units }
func (c *SortedCoord) Len() int       { return c.values.Len() }
func (c *SortedCoord) Shape() []int   { return c.values.Shape() }
func (c *SortedCoord) NDim() int      { return 1 }

func (c *SortedCoord) first() Scalar { return c.values.at(0) }
func (c *SortedCoord) last() Scalar  { return c.values.at(c.values.Len() - 1) }

func (c *SortedCoord) Min() Scalar {
	if c.descending {
		return c.last()
	}
	return c.first()
}

func (c *SortedCoord) Max() Scalar {
	if c.descending {
		return c.first()
	}
	return c.last()
}

// Step is null: sorted coordinates aren't evenly sampled
func (c *SortedCoord) Step() Scalar { return NullOf(deltaDType(c.DType())) }

func (c *SortedCoord) EvenlySampled() bool { return false }
func (c *SortedCoord) Sorted() bool        { return !c.descending }
func (c *SortedCoord) ReverseSorted() bool { return c.descending }
func (c *SortedCoord) Degenerate() bool    { return false }

func (c *SortedCoord) Select(r Range) (Coord, Indexer, error) {
	w, err := newWindow(c.DType(), c.units, r, selectTolerance*spacing(c.values))
	if err != nil {
		return nil, Indexer{}, err
	}
	n := c.Len()
	i0, i1 := searchWindow(c.values, w, c.descending)
	if i1 <= i0 {
		return c.Empty(), SliceIndexer(0, 0), nil
	}
	if i0 == 0 && i1 == n {
		return c, FullIndexer(), nil
	}
	ix := boundedSlice(i0, i1, n)
	vals, err := c.values.Take(0, ix)
	if err != nil {
		return nil, Indexer{}, err
	}
	return &SortedCoord{values: vals, descending: c.descending, units: c.units}, ix, nil
}

func (c *SortedCoord) Sort(reverse bool) (Coord, Indexer, error) {
	if c.Len() < 2 || c.descending == reverse {
		return c, FullIndexer(), nil
	}
	ix := StrideIndexer(-1)
	vals, err := c.values.Take(0, ix)
	if err != nil {
		return nil, Indexer{}, err
	}
	return &SortedCoord{values: vals, descending: reverse, units: c.units}, ix, nil
}

// Snap keeps the first value and uses the median spacing as step
func (c *SortedCoord) Snap() (Coord, error) {
	return snapValues(c.values, c.units)
}

// snapValues builds a range from sorted 1-D values using their median
// spacing.
func snapValues(vals *Array, unitStr string) (Coord, error) {
	n := vals.Len()
	if n == 0 {
		return &DegenerateCoord{dtype: vals.dtype, units: unitStr, shape: []int{0}}, nil
	}
	first := vals.at(0)
	var step Scalar
	if vals.dtype.storesInts() {
		step = Scalar{dtype: deltaDType(vals.dtype), i: median(diffs(vals.ints)), set: true}
	} else {
		step = Float(median(diffs(vals.floats)))
	}
	if step.IsNull() || (step.Float64() == 0 && n > 1) {
		return nil, fmt.Errorf("%w: can't snap coordinate without a nonzero spacing", ErrCoord)
	}
	return makeRange(unitStr, first, step, n), nil
}

func (c *SortedCoord) SetUnits(u string) Coord {
	out := *c
	out.units = u
	return &out
}

func (c *SortedCoord) ConvertUnits(u string) (Coord, error) {
	return convertArrayCoord(c, c.values, c.units, u)
}

// convertArrayCoord rescales explicit values into new units
func convertArrayCoord(c Coord, vals *Array, from, to string) (Coord, error) {
	if vals.dtype.IsTemporal() {
		return c.SetUnits(to), nil
	}
	f, err := convertFactor(from, to)
	if err != nil {
		return nil, err
	}
	if f == 1 {
		return c.SetUnits(to), nil
	}
	return NewCoord(vals.scaled(f), WithUnits(to))
}

// UpdateLimits on explicit values accepts a single limit. A step builds an
// evenly sampled coordinate from the first value; a min or max shifts the
// values.
func (c *SortedCoord) UpdateLimits(l Limits) (Coord, error) {
	return updateArrayLimits(c, c.values, c.first(), c.units, l)
}

func updateArrayLimits(c Coord, vals *Array, first Scalar, unitStr string, l Limits) (Coord, error) {
	switch l.count() {
	case 0:
		return c, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: only one of min, max and step may be specified for a coordinate that isn't evenly sampled", ErrParameter)
	}
	lim, err := resolveLimits(vals.dtype, l)
	if err != nil {
		return nil, err
	}
	if lim.Step.IsSet() {
		return makeRange(unitStr, first, lim.Step, vals.Len()), nil
	}
	var delta Scalar
	if lim.Min.IsSet() {
		delta = valueSub(lim.Min, c.Min())
	} else {
		delta = valueSub(lim.Max, c.Max())
	}
	if delta.IsNull() || math.IsInf(delta.Float64(), 0) {
		return nil, fmt.Errorf("%w: can't shift a coordinate without finite limits", ErrParameter)
	}
	return NewCoord(vals.shifted(delta), WithUnits(unitStr))
}

func (c *SortedCoord) Empty() Coord {
	return &DegenerateCoord{dtype: c.DType(), units: c.units, step: c.Step(), shape: []int{0}}
}

func (c *SortedCoord) Equal(o Coord) bool { return coordsEqual(c, o) }

func (c *SortedCoord) String() string { return describe("SortedCoord", c) }
