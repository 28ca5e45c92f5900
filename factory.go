package coords

import (
	"fmt"
	"time"
)

// CoordOption configures NewCoord and NewRangeCoord
type CoordOption func(*coordConfig)

type coordConfig struct {
	units    string
	hasUnits bool
	step     interface{}
}

func newCoordConfig(opts []CoordOption) coordConfig {
	var cfg coordConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithUnits sets the unit string of the built coordinate
func WithUnits(units string) CoordOption {
	return func(c *coordConfig) {
		c.units = units
		c.hasUnits = true
	}
}

// WithStep declares values as evenly sampled with the given step. Only the
// first value and the length are kept; it's how single values become
// evenly sampled coordinates.
func WithStep(step interface{}) CoordOption {
	return func(c *coordConfig) { c.step = step }
}

// NewCoord builds the cheapest coordinate describing values. Values may be
// a Coord (returned as is, apart from units), an *Array, a slice of
// numbers, times or durations, a [][]float64 matrix, or a []interface{}
// of mixed scalars.
//
// Evenly spaced values (consecutive differences within 0.1% of their
// median) become a RangeCoord, strictly monotonic values a SortedCoord and
// anything else an UnorderedCoord. Empty input is degenerate and
// multi-dimensional input is always unordered.
func NewCoord(values interface{}, opts ...CoordOption) (Coord, error) {
	cfg := newCoordConfig(opts)
	if c, ok := values.(Coord); ok {
		if cfg.hasUnits && cfg.units != c.Units() {
			return c.SetUnits(cfg.units), nil
		}
		return c, nil
	}
	arr, err := ArrayFrom(values)
	if err != nil {
		return nil, err
	}
	return coordFromArray(arr, cfg)
}

func coordFromArray(arr *Array, cfg coordConfig) (Coord, error) {
	if arr.NDim() == 0 {
		return nil, fmt.Errorf("%w: coordinate values need at least one dimension", ErrCoord)
	}
	if arr.Size() == 0 {
		var step Scalar
		if cfg.step != nil {
			s, err := ParseScalar(cfg.step)
			if err != nil {
				return nil, err
			}
			if step, err = stepFor(arr.dtype, s); err != nil {
				return nil, err
			}
		}
		return &DegenerateCoord{dtype: arr.dtype, units: cfg.units, step: step, shape: arr.Shape()}, nil
	}
	if arr.NDim() > 1 {
		return &UnorderedCoord{values: arr, units: cfg.units}, nil
	}
	if cfg.step != nil {
		s, err := ParseScalar(cfg.step)
		if err != nil {
			return nil, err
		}
		step, err := stepFor(arr.dtype, s)
		if err != nil {
			return nil, err
		}
		if step.IsNull() {
			return nil, fmt.Errorf("%w: step can't be NaN or NaT", ErrParameter)
		}
		return makeRange(cfg.units, arr.at(0), step.as(deltaDType(arr.dtype)), arr.Len()), nil
	}
	if arr.Len() == 1 {
		return &SortedCoord{values: arr, units: cfg.units}, nil
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.nullAt(i) {
			return &UnorderedCoord{values: arr, units: cfg.units}, nil
		}
	}
	if step, ok := evenStep(arr); ok {
		return makeRange(cfg.units, arr.at(0), step, arr.Len()), nil
	}
	var inc, dec bool
	if arr.dtype.storesInts() {
		inc, dec = strictlyMonotonic(arr.ints)
	} else {
		inc, dec = strictlyMonotonic(arr.floats)
	}
	if inc || dec {
		return &SortedCoord{values: arr, descending: dec, units: cfg.units}, nil
	}
	return &UnorderedCoord{values: arr, units: cfg.units}, nil
}

// evenStep returns the median difference of 1-D values when every
// difference is within evenTolerance of it.
func evenStep(arr *Array) (Scalar, bool) {
	if arr.dtype.storesInts() {
		d := diffs(arr.ints)
		med := median(d)
		if med == 0 || !allClose(d, med, evenTolerance) {
			return Scalar{}, false
		}
		return Scalar{dtype: deltaDType(arr.dtype), i: med, set: true}, true
	}
	d := diffs(arr.floats)
	med := median(d)
	if med == 0 || !allClose(d, med, evenTolerance) {
		return Scalar{}, false
	}
	return Float(med), true
}

// ArrayFrom converts supported Go values into an Array
func ArrayFrom(values interface{}) (*Array, error) {
	switch v := values.(type) {
	case nil:
		return nil, fmt.Errorf("%w: coordinate values are missing", ErrCoord)
	case *Array:
		return v, nil
	case []float64:
		return Float64s(v), nil
	case []int64:
		return Int64s(v), nil
	case []int:
		return Ints(v), nil
	case []time.Time:
		return Times(v), nil
	case []time.Duration:
		return Durations(v), nil
	case [][]float64:
		return Matrix(v)
	case []string:
		vals := make([]interface{}, len(v))
		for i, s := range v {
			vals[i] = s
		}
		return scalarsArray(vals)
	case []interface{}:
		if isNested(v) {
			return nestedArray(v)
		}
		return scalarsArray(v)
	}
	return nil, fmt.Errorf("%w: can't build coordinate values from %T", ErrCoord, values)
}

func isNested(v []interface{}) bool {
	if len(v) == 0 {
		return false
	}
	_, ok := v[0].([]interface{})
	return ok
}

// nestedArray builds a 2-D float array from rows of numbers
func nestedArray(rows []interface{}) (*Array, error) {
	m := make([][]float64, len(rows))
	for i, r := range rows {
		row, ok := r.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: row %d is %T, not a list", ErrCoord, i, r)
		}
		m[i] = make([]float64, len(row))
		for j, x := range row {
			s, err := ParseScalar(x)
			if err != nil {
				return nil, err
			}
			if s.dtype.IsTemporal() {
				return nil, fmt.Errorf("%w: multi-dimensional values must be numeric", ErrCoord)
			}
			m[i][j] = s.Float64()
		}
	}
	return Matrix(m)
}

// scalarsArray infers a dtype for mixed scalars: any datetime or timedelta
// makes a temporal array (which then can't hold numbers), any float a float
// array, otherwise integers.
func scalarsArray(vals []interface{}) (*Array, error) {
	scalars := make([]Scalar, len(vals))
	dt := Int64
	for i, v := range vals {
		s, err := ParseScalar(v)
		if err != nil {
			return nil, err
		}
		if !s.IsSet() {
			s = NullOf(Float64)
		}
		scalars[i] = s
	}
	fixed := false
	for _, s := range scalars {
		switch {
		case s.dtype.IsTemporal() && s.IsNull():
			if !dt.IsTemporal() {
				dt = s.dtype
			}
		case s.dtype.IsTemporal():
			if fixed && dt.BasicType != s.dtype.BasicType {
				return nil, fmt.Errorf("%w: values mix datetimes and durations", ErrCoord)
			}
			dt, fixed = s.dtype, true
		case s.dtype.IsFloat() && !dt.IsTemporal():
			dt = Float64
		}
	}
	out := Zeros(dt, len(scalars))
	for i, s := range scalars {
		switch {
		case dt.IsTemporal() && s.IsNull():
			out.ints[i] = nat
		case dt.IsTemporal() != s.dtype.IsTemporal():
			return nil, fmt.Errorf("%w: values mix %s and %s", ErrCoord, dt.Human(), s.dtype.Human())
		case dt.storesInts():
			out.ints[i] = s.i
		default:
			out.floats[i] = s.Float64()
		}
	}
	return out, nil
}
