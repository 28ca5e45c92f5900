// Package coords describes the axes of labelled arrays. A Coord holds the
// sample values of one axis and a Manager keeps the coordinates of an array
// consistent with its shape while it is selected, transposed or reshaped.
package coords

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/qri-io/coords-go/internal/units"
)

// Coord describes the sample values of one array axis (or, for auxiliary
// coordinates, of several axes). It is a closed set of variants:
// *RangeCoord, *SortedCoord, *UnorderedCoord and *DegenerateCoord. Every
// variant is immutable; operations return new coordinates.
type Coord interface {
	// Values returns the coordinate values. Range coordinates generate them.
	Values() *Array
	DType() DType
	// Units is a unit or quantity string, empty when unset
	Units() string
	// Len is the length of the first axis
	Len() int
	Shape() []int
	NDim() int
	// Min and Max ignore NaN/NaT and are null for degenerate coordinates
	Min() Scalar
	Max() Scalar
	// Step is the sample spacing of evenly sampled coordinates, null
	// otherwise.
	Step() Scalar

	EvenlySampled() bool
	Sorted() bool
	ReverseSorted() bool
	Degenerate() bool

	// Select keeps the values inside r, inclusive on both ends. An empty
	// result is a degenerate coordinate, never an error.
	Select(r Range) (Coord, Indexer, error)
	// Sort orders values ascending (or descending when reverse is true) and
	// returns the permutation that was applied.
	Sort(reverse bool) (Coord, Indexer, error)
	// Snap approximates the coordinate with an evenly sampled one
	Snap() (Coord, error)
	// SetUnits replaces the unit metadata without touching values
	SetUnits(units string) Coord
	// ConvertUnits rescales values into the new units. Datetime and
	// timedelta values are unit invariant.
	ConvertUnits(units string) (Coord, error)
	UpdateLimits(l Limits) (Coord, error)
	// Empty returns a degenerate coordinate with the same dtype and units
	Empty() Coord
	Equal(other Coord) bool
	String() string

	sealed()
}

var (
	_ Coord = (*RangeCoord)(nil)
	_ Coord = (*SortedCoord)(nil)
	_ Coord = (*UnorderedCoord)(nil)
	_ Coord = (*DegenerateCoord)(nil)
)

// selectTolerance widens float selections by this fraction of the sample
// spacing so bounds that land on a sample (up to rounding) include it.
const selectTolerance = 1e-9

// evenTolerance is the relative tolerance used to decide that consecutive
// differences are all equal.
const evenTolerance = 1e-3

// equalTolerance is the relative tolerance used when comparing float values
// for equality, scaled by the coordinate's magnitude.
const equalTolerance = 1e-12

// Limits names new limits for UpdateLimits. Min and Max are the smallest and
// largest sample, Step the (signed) spacing. Unset fields are derived.
type Limits struct {
	Min  Scalar
	Max  Scalar
	Step Scalar
}

var errTooManyLimits = fmt.Errorf("%w: at most two of min, max and step may be specified", ErrParameter)

func (l Limits) count() int {
	n := 0
	for _, s := range []Scalar{l.Min, l.Max, l.Step} {
		if s.IsSet() {
			n++
		}
	}
	return n
}

// Quantity is a selection bound carrying its own units. It's converted to
// the coordinate's units before comparison.
type Quantity struct {
	Value float64
	Units string
}

type edge struct{}

// Edge is a selection bound meaning "up to the coordinate's own limit"
var Edge = edge{}

// Range is an inclusive selection range. Each bound may be nil or Edge
// (open), a Go number, time.Time, time.Duration, Scalar, Quantity, or a
// string holding a number, quantity ("100 ft"), date or duration. Plain
// numbers on datetime or timedelta coordinates are seconds.
type Range struct {
	Lo interface{}
	Hi interface{}
}

// NewRange builds a range from exactly two bounds
func NewRange(bounds ...interface{}) (Range, error) {
	if len(bounds) != 2 {
		return Range{}, fmt.Errorf("%w: slice indices must be a length two sequence, got %d values", ErrParameter, len(bounds))
	}
	return Range{Lo: bounds[0], Hi: bounds[1]}, nil
}

// Slice is a slice-like selection. Steps aren't supported by selections.
type Slice struct {
	Start interface{}
	Stop  interface{}
	Step  interface{}
}

// Range converts the slice to a Range, rejecting a step
func (s Slice) Range() (Range, error) {
	if s.Step != nil {
		return Range{}, fmt.Errorf("%w: step not supported in select", ErrParameter)
	}
	return Range{Lo: s.Start, Hi: s.Stop}, nil
}

// bound is a range endpoint converted into a coordinate's value space
type bound struct {
	val  Scalar
	open bool

	// inverse bounds were given in reciprocal units
	inverse bool
}

// coerceRange converts both ends of r for a coordinate of dtype dt and units
// unitStr. Bounds in reciprocal units reverse order on conversion, so the
// ends swap.
func coerceRange(dt DType, unitStr string, r Range) (lo, hi bound, err error) {
	if lo, err = coerceBound(dt, unitStr, r.Lo); err != nil {
		return
	}
	if hi, err = coerceBound(dt, unitStr, r.Hi); err != nil {
		return
	}
	if !lo.inverse && !hi.inverse {
		return lo, hi, nil
	}
	if (!lo.open && !lo.inverse) || (!hi.open && !hi.inverse) {
		return bound{}, bound{}, fmt.Errorf("%w: range mixes reciprocal and direct units", ErrUnit)
	}
	return hi, lo, nil
}

func coerceBound(dt DType, unitStr string, v interface{}) (bound, error) {
	switch x := v.(type) {
	case nil, edge:
		return bound{open: true}, nil
	case *edge:
		return bound{open: true}, nil
	case Quantity:
		return quantityBound(dt, unitStr, x.Value, x.Units)
	case string:
		return stringBound(dt, unitStr, x)
	}
	s, err := ParseScalar(v)
	if err != nil {
		return bound{}, err
	}
	if !s.IsSet() {
		return bound{open: true}, nil
	}
	return scalarBound(dt, s)
}

func stringBound(dt DType, unitStr, str string) (bound, error) {
	str = strings.TrimSpace(str)
	if str == "" || str == "..." {
		return bound{open: true}, nil
	}
	s, err := parseScalarString(str)
	if err == nil {
		return scalarBound(dt, s)
	}
	q, qerr := units.Parse(str)
	if qerr != nil {
		return bound{}, err
	}
	return quantityBound(dt, unitStr, q.Magnitude, strings.TrimSpace(strings.TrimPrefix(q.Text, leadingMagnitude(q.Text))))
}

// leadingMagnitude returns the numeric prefix of a quantity string
func leadingMagnitude(s string) string {
	end := 0
	for end < len(s) && strings.ContainsRune("+-0123456789.eE", rune(s[end])) {
		end++
	}
	return s[:end]
}

// quantityBound converts value (in unitStr q) to the coordinate's units.
// Values in the inverse units, eg. Hz on a coordinate in seconds, convert
// to their reciprocal.
func quantityBound(dt DType, coordUnits string, value float64, q string) (bound, error) {
	target := coordUnits
	if dt.IsTemporal() {
		target = "s"
	} else if coordUnits == "" || q == "" {
		return scalarBound(dt, Float(value))
	}
	v, err := units.Convert(value, q, target)
	if err == nil {
		return scalarBound(dt, Float(v))
	}
	if !errors.Is(err, units.ErrIncompatible) {
		return bound{}, fmt.Errorf("%w: %s", ErrUnit, err)
	}
	v, ierr := units.ConvertInverse(value, q, target)
	if ierr != nil {
		return bound{}, fmt.Errorf("%w: %s", ErrUnit, err)
	}
	b, err := scalarBound(dt, Float(v))
	b.inverse = true
	return b, err
}

// scalarBound moves s into the value space of dt. Numbers used on temporal
// coordinates are seconds; temporal scalars used on numeric coordinates are
// rejected.
func scalarBound(dt DType, s Scalar) (bound, error) {
	if s.IsNull() {
		return bound{open: true}, nil
	}
	switch {
	case dt.IsTemporal() && s.dtype.IsTemporal():
		if s.dtype.BasicType != dt.BasicType {
			return bound{}, fmt.Errorf("%w: can't compare %s with %s coordinate", ErrParameter, s.dtype.Human(), dt.Human())
		}
		return bound{val: s}, nil
	case dt.IsTemporal():
		ns := floatToInt64(math.Round(s.Float64() * 1e9))
		if s.dtype.storesInts() && !s.dtype.IsTemporal() {
			ns = secondsToNanos(s.i)
		}
		return bound{val: Scalar{dtype: dt, i: ns, set: true}}, nil
	case s.dtype.IsTemporal():
		return bound{}, fmt.Errorf("%w: can't compare %s with %s coordinate", ErrParameter, s.dtype.Human(), dt.Human())
	}
	return bound{val: s}, nil
}

// intBounds converts lo/hi into inclusive int64 limits for coordinates
// stored as integers. ok is false when no integer can satisfy the range.
func intBounds(lo, hi bound) (l, h int64, ok bool) {
	l, h = math.MinInt64, math.MaxInt64
	if !lo.open {
		if lo.val.dtype.storesInts() {
			l = lo.val.i
		} else {
			l = floatToInt64(math.Ceil(lo.val.f))
		}
	}
	if !hi.open {
		if hi.val.dtype.storesInts() {
			h = hi.val.i
		} else {
			h = floatToInt64(math.Floor(hi.val.f))
		}
	}
	return l, h, l <= h
}

// floatBounds converts lo/hi into float limits widened by tol
func floatBounds(lo, hi bound, tol float64) (l, h float64) {
	l, h = math.Inf(-1), math.Inf(1)
	if !lo.open {
		l = lo.val.Float64() - tol
	}
	if !hi.open {
		h = hi.val.Float64() + tol
	}
	return l, h
}

// coordsEqual compares dtype, units, shape and values. Floats equal when
// within equalTolerance of the larger magnitude; NaN equals NaN.
func coordsEqual(a, b Coord) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !sameKind(a.DType(), b.DType()) || a.Units() != b.Units() {
		return false
	}
	av, bv := a.Values(), b.Values()
	if !intsEqual(av.shape, bv.shape) {
		return false
	}
	if av.dtype.storesInts() {
		return av.Equal(bv)
	}
	scale := math.Max(magnitude(a), magnitude(b))
	tol := equalTolerance * scale
	for i := range av.floats {
		x, y := av.floats[i], bv.floats[i]
		if x == y || (math.IsNaN(x) && math.IsNaN(y)) {
			continue
		}
		if math.Abs(x-y) > tol {
			return false
		}
	}
	return true
}

func magnitude(c Coord) float64 {
	if c.Degenerate() {
		return 0
	}
	lo, hi := c.Min().Float64(), c.Max().Float64()
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return 0
	}
	return math.Max(math.Abs(lo), math.Abs(hi))
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// minMax scans an array ignoring nulls
func minMax(a *Array) (lo, hi Scalar) {
	lo, hi = NullOf(a.dtype), NullOf(a.dtype)
	for i := 0; i < a.Size(); i++ {
		if a.nullAt(i) {
			continue
		}
		v := a.at(i)
		if lo.IsNull() || a.cmpAt(i, lo) < 0 {
			lo = v
		}
		if hi.IsNull() || a.cmpAt(i, hi) > 0 {
			hi = v
		}
	}
	return lo, hi
}

// convertFactor returns the factor from one unit string to another.
// Converting from no units is just labelling.
func convertFactor(from, to string) (float64, error) {
	if from == "" || to == "" || from == to {
		return 1, nil
	}
	f, err := units.Factor(from, to)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnit, err)
	}
	return f, nil
}

// subsetCoord wraps values taken in order from an explicit-valued
// coordinate. The variant is kept so no sample is regenerated; ok is false
// for other variants.
func subsetCoord(c Coord, vals *Array) (out Coord, ok bool) {
	if vals.Size() == 0 {
		return &DegenerateCoord{dtype: vals.dtype, units: c.Units(), step: c.Step(), shape: vals.Shape()}, true
	}
	switch c := c.(type) {
	case *SortedCoord:
		return &SortedCoord{values: vals, descending: c.descending, units: c.units}, true
	case *UnorderedCoord:
		return &UnorderedCoord{values: vals, units: c.units}, true
	}
	return nil, false
}

func describe(kind string, c Coord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(", kind)
	if !c.Degenerate() {
		fmt.Fprintf(&b, "min: %s, max: %s", c.Min(), c.Max())
		if c.EvenlySampled() {
			fmt.Fprintf(&b, ", step: %s", c.Step())
		}
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "shape: %v, dtype: %s", c.Shape(), c.DType())
	if u := c.Units(); u != "" {
		fmt.Fprintf(&b, ", units: %s", u)
	}
	b.WriteString(")")
	return b.String()
}
