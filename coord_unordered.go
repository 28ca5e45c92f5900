package coords

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// UnorderedCoord holds explicit values without an ordering guarantee. It's
// also the variant used for multi-dimensional (auxiliary) coordinates.
type UnorderedCoord struct {
	values *Array
	units  string
}

func (c *UnorderedCoord) sealed() {}

func (c *UnorderedCoord) Values() *Array { return c.values }
func (c *UnorderedCoord) DType() DType   { return c.values.dtype }
func (c *UnorderedCoord) Units() string  { return c.units }
func (c *UnorderedCoord) Len() int       { return c.values.Len() }
func (c *UnorderedCoord) Shape() []int   { return c.values.Shape() }
func (c *UnorderedCoord) NDim() int      { return c.values.NDim() }

func (c *UnorderedCoord) Min() Scalar {
	lo, _ := minMax(c.values)
	return lo
}

func (c *UnorderedCoord) Max() Scalar {
	_, hi := minMax(c.values)
	return hi
}

func (c *UnorderedCoord) Step() Scalar { return NullOf(deltaDType(c.DType())) }

func (c *UnorderedCoord) EvenlySampled() bool { return false }
func (c *UnorderedCoord) Sorted() bool        { return false }
func (c *UnorderedCoord) ReverseSorted() bool { return false }
func (c *UnorderedCoord) Degenerate() bool    { return false }

func (c *UnorderedCoord) oneDim(op string) error {
	if c.values.NDim() != 1 {
		return fmt.Errorf("%w: %s only supports 1-dimensional coordinates, got shape %v", ErrCoord, op, c.values.shape)
	}
	return nil
}

// Select keeps values inside r with a boolean mask
func (c *UnorderedCoord) Select(r Range) (Coord, Indexer, error) {
	if err := c.oneDim("select"); err != nil {
		return nil, Indexer{}, err
	}
	w, err := newWindow(c.DType(), c.units, r, selectTolerance*spacing(c.values))
	if err != nil {
		return nil, Indexer{}, err
	}
	n := c.Len()
	mask := make([]bool, n)
	kept := 0
	for i := range mask {
		if w.contains(c.values, i) {
			mask[i] = true
			kept++
		}
	}
	switch kept {
	case n:
		return c, FullIndexer(), nil
	case 0:
		return c.Empty(), MaskIndexer(mask), nil
	}
	ix := MaskIndexer(mask)
	vals, err := c.values.Take(0, ix)
	if err != nil {
		return nil, Indexer{}, err
	}
	return &UnorderedCoord{values: vals, units: c.units}, ix, nil
}

// argsort returns the stable sort permutation of 1-D values. Nulls sort
// last in both directions.
func argsort(a *Array, reverse bool) []int {
	pos := make([]int, a.Len())
	for i := range pos {
		pos[i] = i
	}
	slices.SortStableFunc(pos, func(i, j int) int {
		ni, nj := a.nullAt(i), a.nullAt(j)
		switch {
		case ni && nj:
			return 0
		case ni:
			return 1
		case nj:
			return -1
		}
		var c int
		if a.dtype.storesInts() {
			c = cmpOrdered(a.ints[i], a.ints[j])
		} else {
			c = cmpOrdered(a.floats[i], a.floats[j])
		}
		if reverse {
			return -c
		}
		return c
	})
	return pos
}

func (c *UnorderedCoord) Sort(reverse bool) (Coord, Indexer, error) {
	if err := c.oneDim("sort"); err != nil {
		return nil, Indexer{}, err
	}
	ix := TakeIndexer(argsort(c.values, reverse))
	vals, err := c.values.Take(0, ix)
	if err != nil {
		return nil, Indexer{}, err
	}
	out, err := NewCoord(vals, WithUnits(c.units))
	if err != nil {
		return nil, Indexer{}, err
	}
	if _, ok := out.(*UnorderedCoord); ok {
		// repeated values aren't strictly monotonic but are still in order
		out = &SortedCoord{values: vals, descending: reverse, units: c.units}
	}
	return out, ix, nil
}

// Snap builds an ascending range from the minimum using the median spacing
// of the sorted values.
func (c *UnorderedCoord) Snap() (Coord, error) {
	if err := c.oneDim("snap"); err != nil {
		return nil, err
	}
	pos := argsort(c.values, false)
	valid := 0
	for _, p := range pos {
		if !c.values.nullAt(p) {
			valid++
		}
	}
	sorted := c.values.takePositions(0, pos[:valid])
	snapped, err := snapValues(sorted, c.units)
	if err != nil {
		return nil, err
	}
	if valid == c.Len() {
		return snapped, nil
	}
	rc, ok := snapped.(*RangeCoord)
	if !ok || rc.step.Float64() == 0 {
		return nil, fmt.Errorf("%w: can't snap coordinate without a nonzero spacing", ErrCoord)
	}
	return makeRange(c.units, rc.start, rc.step, c.Len()), nil
}

func (c *UnorderedCoord) SetUnits(u string) Coord {
	out := *c
	out.units = u
	return &out
}

func (c *UnorderedCoord) ConvertUnits(u string) (Coord, error) {
	return convertArrayCoord(c, c.values, c.units, u)
}

// UpdateLimits accepts a single limit; a step builds an ascending range
// from the minimum.
func (c *UnorderedCoord) UpdateLimits(l Limits) (Coord, error) {
	if err := c.oneDim("update limits"); err != nil {
		return nil, err
	}
	return updateArrayLimits(c, c.values, c.Min(), c.units, l)
}

func (c *UnorderedCoord) Empty() Coord {
	shape := c.values.Shape()
	shape[0] = 0
	return &DegenerateCoord{dtype: c.DType(), units: c.units, step: c.Step(), shape: shape}
}

func (c *UnorderedCoord) Equal(o Coord) bool { return coordsEqual(c, o) }

func (c *UnorderedCoord) String() string { return describe("UnorderedCoord", c) }
