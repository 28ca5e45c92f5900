package coords

import "golang.org/x/exp/slices"

// DegenerateCoord is a coordinate without values. It keeps the dtype, units
// and step of the coordinate it came from and is the result of every empty
// selection.
type DegenerateCoord struct {
	dtype DType
	units string
	step  Scalar
	shape []int
}

func (c *DegenerateCoord) sealed() {}

func (c *DegenerateCoord) Values() *Array { return Zeros(c.dtype, c.shape...) }
func (c *DegenerateCoord) DType() DType   { return c.dtype }
func (c *DegenerateCoord) Units() string  { return c.units }
func (c *DegenerateCoord) Shape() []int   { return slices.Clone(c.shape) }
func (c *DegenerateCoord) NDim() int      { return len(c.shape) }

func (c *DegenerateCoord) Len() int {
	if len(c.shape) == 0 {
		return 0
	}
	return c.shape[0]
}

func (c *DegenerateCoord) Min() Scalar { return NullOf(c.dtype) }
func (c *DegenerateCoord) Max() Scalar { return NullOf(c.dtype) }

// Step is the step of the coordinate this one was emptied from, if any
func (c *DegenerateCoord) Step() Scalar {
	if !c.step.IsSet() {
		return NullOf(deltaDType(c.dtype))
	}
	return c.step
}

func (c *DegenerateCoord) EvenlySampled() bool { return false }
func (c *DegenerateCoord) Sorted() bool        { return false }
func (c *DegenerateCoord) ReverseSorted() bool { return false }
func (c *DegenerateCoord) Degenerate() bool    { return true }

// Select on an empty coordinate is always empty. Bounds are still checked.
func (c *DegenerateCoord) Select(r Range) (Coord, Indexer, error) {
	if _, _, err := coerceRange(c.dtype, c.units, r); err != nil {
		return nil, Indexer{}, err
	}
	return c, SliceIndexer(0, 0), nil
}

func (c *DegenerateCoord) Sort(bool) (Coord, Indexer, error) { return c, FullIndexer(), nil }

func (c *DegenerateCoord) Snap() (Coord, error) { return c, nil }

func (c *DegenerateCoord) SetUnits(u string) Coord {
	out := *c
	out.units = u
	return &out
}

func (c *DegenerateCoord) ConvertUnits(u string) (Coord, error) {
	if c.dtype.IsTemporal() {
		return c.SetUnits(u), nil
	}
	f, err := convertFactor(c.units, u)
	if err != nil {
		return nil, err
	}
	out := *c
	out.units = u
	if f != 1 && c.step.IsSet() && !c.step.IsNull() {
		out.step = scaleScalar(c.step, f)
		if out.step.dtype.IsFloat() {
			out.dtype = Float64
		}
	}
	return &out, nil
}

// UpdateLimits only records a new step; there are no values to move
func (c *DegenerateCoord) UpdateLimits(l Limits) (Coord, error) {
	if l.count() == 3 {
		return nil, errTooManyLimits
	}
	lim, err := resolveLimits(c.dtype, l)
	if err != nil {
		return nil, err
	}
	out := *c
	if lim.Step.IsSet() {
		out.step = lim.Step
	}
	return &out, nil
}

func (c *DegenerateCoord) Empty() Coord { return c }

func (c *DegenerateCoord) Equal(o Coord) bool { return coordsEqual(c, o) }

func (c *DegenerateCoord) String() string { return describe("DegenerateCoord", c) }
