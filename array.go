package coords

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Array is an immutable n-dimensional buffer stored in "C" (row-major)
// order: the last dimension varies fastest. Integer, datetime and timedelta
// values live in an int64 buffer, floats in a float64 buffer. No accessor
// hands out the backing buffer.
type Array struct {
	dtype  DType
	shape  []int
	ints   []int64
	floats []float64
}

// NewArray builds an array of the given dtype and shape from a flat buffer.
// data must be []int64 for integer and temporal dtypes and []float64 for
// floats. The buffer is copied.
func NewArray(dt DType, shape []int, data interface{}) (*Array, error) {
	if _, err := ParseBasicType(rune(dt.BasicType)); err != nil {
		return nil, err
	}
	size := shapeSize(shape)
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("%w: negative dimension in shape %v", ErrParameter, shape)
		}
	}
	a := &Array{dtype: dt, shape: slices.Clone(shape)}
	switch v := data.(type) {
	case []int64:
		if !dt.storesInts() {
			return nil, fmt.Errorf("%w: dtype %s needs float64 data, got []int64", ErrParameter, dt)
		}
		if len(v) != size {
			return nil, fmt.Errorf("%w: %d values don't fit shape %v", ErrParameter, len(v), shape)
		}
		a.ints = slices.Clone(v)
	case []float64:
		if dt.storesInts() {
			return nil, fmt.Errorf("%w: dtype %s needs int64 data, got []float64", ErrParameter, dt)
		}
		if len(v) != size {
			return nil, fmt.Errorf("%w: %d values don't fit shape %v", ErrParameter, len(v), shape)
		}
		a.floats = slices.Clone(v)
	case nil:
		return a.alloc(shape), nil
	default:
		return nil, fmt.Errorf("%w: unsupported array buffer %T", ErrParameter, data)
	}
	return a, nil
}

// Float64s returns a 1-D float array
func Float64s(v []float64) *Array {
	return &Array{dtype: Float64, shape: []int{len(v)}, floats: slices.Clone(v)}
}

// Int64s returns a 1-D integer array
func Int64s(v []int64) *Array {
	return &Array{dtype: Int64, shape: []int{len(v)}, ints: slices.Clone(v)}
}

// Ints returns a 1-D integer array
func Ints(v []int) *Array {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return &Array{dtype: Int64, shape: []int{len(v)}, ints: out}
}

// Times returns a 1-D datetime array. The zero time.Time is stored as NaT
// and times beyond the nanosecond range saturate.
func Times(v []time.Time) *Array {
	out := make([]int64, len(v))
	for i, t := range v {
		if t.IsZero() {
			out[i] = nat
			continue
		}
		out[i] = unixNanos(t)
	}
	return &Array{dtype: DateTime64, shape: []int{len(v)}, ints: out}
}

// Durations returns a 1-D timedelta array
func Durations(v []time.Duration) *Array {
	out := make([]int64, len(v))
	for i, d := range v {
		out[i] = int64(d)
	}
	return &Array{dtype: TimeDelta64, shape: []int{len(v)}, ints: out}
}

// Matrix returns a 2-D float array from equal length rows
func Matrix(rows [][]float64) (*Array, error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has length %d, expected %d", ErrParameter, i, len(r), cols)
		}
		flat = append(flat, r...)
	}
	return &Array{dtype: Float64, shape: []int{len(rows), cols}, floats: flat}, nil
}

// Zeros returns an array of the given shape filled with zeros
func Zeros(dt DType, shape ...int) *Array {
	a := &Array{dtype: dt, shape: slices.Clone(shape)}
	return a.alloc(shape)
}

// Ones returns an array of the given shape filled with ones
func Ones(dt DType, shape ...int) *Array {
	a := Zeros(dt, shape...)
	for i := range a.ints {
		a.ints[i] = 1
	}
	for i := range a.floats {
		a.floats[i] = 1
	}
	return a
}

// Arange returns evenly spaced floats in [start, stop)
func Arange(start, stop, step float64) *Array {
	n := rangeLenFloat(start, stop, step)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return &Array{dtype: Float64, shape: []int{n}, floats: out}
}

func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the array's dimension lengths
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

func (a *Array) NDim() int { return len(a.shape) }

// Len is the length of the first axis
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// Size is the total number of elements
func (a *Array) Size() int { return shapeSize(a.shape) }

// At returns the element at a multi-dimensional index
func (a *Array) At(idx ...int) Scalar {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("coords: %d indices for %d-d array", len(idx), len(a.shape)))
	}
	flat := 0
	for i, x := range idx {
		if x < 0 || x >= a.shape[i] {
			panic(fmt.Sprintf("coords: index %d exceeds axis %d length %d", x, i, a.shape[i]))
		}
		flat = flat*a.shape[i] + x
	}
	return a.at(flat)
}

func (a *Array) at(i int) Scalar {
	if a.dtype.storesInts() {
		return rawScalar(a.dtype, a.ints[i], 0)
	}
	return rawScalar(a.dtype, 0, a.floats[i])
}

// Float64s copies the values into a float slice. Temporal values are
// nanoseconds, NaT becomes NaN.
func (a *Array) Float64s() []float64 {
	if !a.dtype.storesInts() {
		return slices.Clone(a.floats)
	}
	out := make([]float64, len(a.ints))
	for i, v := range a.ints {
		if a.dtype.IsTemporal() && v == nat {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(v)
	}
	return out
}

// Int64s copies the values into an int slice, truncating floats
func (a *Array) Int64s() []int64 {
	if a.dtype.storesInts() {
		return slices.Clone(a.ints)
	}
	out := make([]int64, len(a.floats))
	for i, v := range a.floats {
		out[i] = int64(v)
	}
	return out
}

// Times interprets the values as datetimes
func (a *Array) Times() []time.Time {
	vals := a.Int64s()
	out := make([]time.Time, len(vals))
	for i, v := range vals {
		if v == nat {
			continue
		}
		out[i] = time.Unix(0, v).UTC()
	}
	return out
}

// Durations interprets the values as timedeltas
func (a *Array) Durations() []time.Duration {
	vals := a.Int64s()
	out := make([]time.Duration, len(vals))
	for i, v := range vals {
		out[i] = time.Duration(v)
	}
	return out
}

// Take selects positions along one axis
func (a *Array) Take(axis int, ix Indexer) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("%w: axis %d out of bounds for %d-d array", ErrParameter, axis, len(a.shape))
	}
	if ix.IsFull(a.shape[axis]) {
		return a, nil
	}
	pos, err := ix.Positions(a.shape[axis])
	if err != nil {
		return nil, err
	}
	return a.takePositions(axis, pos), nil
}

// Index applies one indexer per axis. Missing trailing indexers select the
// whole axis.
func (a *Array) Index(ixs []Indexer) (*Array, error) {
	if len(ixs) > len(a.shape) {
		return nil, fmt.Errorf("%w: %d indexers for %d-d array", ErrParameter, len(ixs), len(a.shape))
	}
	out := a
	for axis, ix := range ixs {
		var err error
		if out, err = out.Take(axis, ix); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// IndexAxis keeps position i of an axis and removes that axis
func (a *Array) IndexAxis(axis, i int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("%w: axis %d out of bounds for %d-d array", ErrParameter, axis, len(a.shape))
	}
	if i < 0 || i >= a.shape[axis] {
		return nil, fmt.Errorf("%w: index %d exceeds axis length %d", ErrParameter, i, a.shape[axis])
	}
	out := a.takePositions(axis, []int{i})
	out.shape = slices.Delete(out.shape, axis, axis+1)
	return out, nil
}

// Transpose permutes the axes: output axis i is input axis perm[i]
func (a *Array) Transpose(perm ...int) (*Array, error) {
	nd := len(a.shape)
	if !isPermutation(perm, nd) {
		return nil, fmt.Errorf("%w: %v is not a permutation of %d axes", ErrParameter, perm, nd)
	}
	shape := make([]int, nd)
	for i, p := range perm {
		shape[i] = a.shape[p]
	}
	out := a.alloc(shape)
	size := out.Size()
	if size == 0 {
		return out, nil
	}
	strides := cStrides(a.shape)
	idx := make([]int, nd)
	for k := 0; k < size; k++ {
		src := 0
		for i := range idx {
			src += idx[i] * strides[perm[i]]
		}
		out.copyFrom(k, a, src, 1)
		for d := nd - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, nil
}

// Equal compares dtype, shape and values. NaN and NaT equal themselves.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !sameKind(a.dtype, b.dtype) || !slices.Equal(a.shape, b.shape) {
		return false
	}
	if a.dtype.storesInts() {
		return slices.Equal(a.ints, b.ints)
	}
	for i := range a.floats {
		x, y := a.floats[i], b.floats[i]
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	dims := make([]string, len(a.shape))
	for i, s := range a.shape {
		dims[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf("<coords.Array dtype=%s shape=(%s)>", a.dtype, strings.Join(dims, ", "))
}

// alloc returns an empty array of the same dtype with the given shape
func (a *Array) alloc(shape []int) *Array {
	out := &Array{dtype: a.dtype, shape: slices.Clone(shape)}
	size := shapeSize(shape)
	switch a.dtype.BasicType {
	case BTFloatingPoint:
		out.floats = make([]float64, size)
	case BTInteger, BTDatetime, BTTimedelta:
		out.ints = make([]int64, size)
	default:
		panic("unsupported array type")
	}
	return out
}

func (a *Array) copyFrom(dst int, src *Array, from, n int) {
	if a.dtype.storesInts() {
		copy(a.ints[dst:dst+n], src.ints[from:from+n])
		return
	}
	copy(a.floats[dst:dst+n], src.floats[from:from+n])
}

func (a *Array) takePositions(axis int, pos []int) *Array {
	outer, inner := 1, 1
	for _, s := range a.shape[:axis] {
		outer *= s
	}
	for _, s := range a.shape[axis+1:] {
		inner *= s
	}
	n := a.shape[axis]
	shape := slices.Clone(a.shape)
	shape[axis] = len(pos)
	out := a.alloc(shape)
	k := 0
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for _, p := range pos {
			out.copyFrom(k, a, base+p*inner, inner)
			k += inner
		}
	}
	return out
}

// scaled multiplies every value by factor, promoting to float when needed
func (a *Array) scaled(factor float64) *Array {
	if a.dtype.storesInts() && factor == math.Trunc(factor) {
		out := &Array{dtype: a.dtype, shape: slices.Clone(a.shape), ints: make([]int64, len(a.ints))}
		f := int64(factor)
		for i, v := range a.ints {
			out.ints[i] = v * f
		}
		return out
	}
	vals := a.Float64s()
	for i := range vals {
		vals[i] *= factor
	}
	return &Array{dtype: Float64, shape: slices.Clone(a.shape), floats: vals}
}

// shifted adds delta (in storage units) to every value
func (a *Array) shifted(delta Scalar) *Array {
	if a.dtype.storesInts() && delta.integral() {
		d := delta.Int64()
		out := &Array{dtype: a.dtype, shape: slices.Clone(a.shape), ints: make([]int64, len(a.ints))}
		for i, v := range a.ints {
			if a.dtype.IsTemporal() && v == nat {
				out.ints[i] = nat
				continue
			}
			out.ints[i] = v + d
		}
		return out
	}
	vals := a.Float64s()
	d := delta.Float64()
	for i := range vals {
		vals[i] += d
	}
	return &Array{dtype: Float64, shape: slices.Clone(a.shape), floats: vals}
}

// nullAt reports whether element i is NaN or NaT
func (a *Array) nullAt(i int) bool {
	if a.dtype.IsTemporal() {
		return a.ints[i] == nat
	}
	if a.dtype.IsFloat() {
		return math.IsNaN(a.floats[i])
	}
	return false
}

// cmpAt compares element i with s, which must already be in the array's
// value space.
func (a *Array) cmpAt(i int, s Scalar) int {
	if a.dtype.storesInts() && s.dtype.storesInts() {
		return cmpOrdered(a.ints[i], s.i)
	}
	return cmpOrdered(a.floatAt(i), s.Float64())
}

func (a *Array) floatAt(i int) float64 {
	if a.dtype.storesInts() {
		return float64(a.ints[i])
	}
	return a.floats[i]
}

func shapeSize(shape []int) int {
	size := 1
	for _, s := range shape {
		size *= s
	}
	return size
}

func cStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func isPermutation(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}
