package coords

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// nat is the int64 used as "not a time" for datetime and timedelta values
const nat = math.MinInt64

const (
	// NaNString is how null floats are written in attributes
	NaNString = "NaN"
	// NaTString is how null datetimes and timedeltas are written in attributes
	NaTString = "NaT"
)

// Scalar is a single coordinate value. The zero Scalar is unset, which is
// distinct from a null (NaN or NaT) value.
type Scalar struct {
	dtype DType
	i     int64
	f     float64
	set   bool
}

// Float returns a float64 scalar
func Float(v float64) Scalar { return Scalar{dtype: Float64, f: v, set: true} }

// Int returns an int64 scalar
func Int(v int64) Scalar { return Scalar{dtype: Int64, i: v, set: true} }

// Time returns a datetime scalar with nanosecond resolution. Times outside
// the representable range saturate at its limits.
func Time(t time.Time) Scalar {
	return Scalar{dtype: DateTime64, i: unixNanos(t), set: true}
}

var (
	minTime = time.Unix(0, math.MinInt64+1)
	maxTime = time.Unix(0, math.MaxInt64)
)

// unixNanos is t.UnixNano clamped to [minTime, maxTime] instead of wrapping.
// The lower limit stays clear of NaT.
func unixNanos(t time.Time) int64 {
	switch {
	case t.Before(minTime):
		return math.MinInt64 + 1
	case t.After(maxTime):
		return math.MaxInt64
	}
	return t.UnixNano()
}

// Duration returns a timedelta scalar
func Duration(d time.Duration) Scalar {
	return Scalar{dtype: TimeDelta64, i: int64(d), set: true}
}

// NullOf returns the null value for a dtype: NaT for temporal types, NaN
// otherwise (integers have no null of their own).
func NullOf(dt DType) Scalar {
	if dt.IsTemporal() {
		return Scalar{dtype: dt, i: nat, set: true}
	}
	return Float(math.NaN())
}

// rawScalar builds a scalar from the storage representation of dt
func rawScalar(dt DType, i int64, f float64) Scalar {
	if dt.storesInts() {
		return Scalar{dtype: dt, i: i, set: true}
	}
	return Scalar{dtype: dt, f: f, set: true}
}

func (s Scalar) DType() DType { return s.dtype }

// IsSet reports whether the scalar holds a value (possibly null)
func (s Scalar) IsSet() bool { return s.set }

// IsNull is true for unset, NaN and NaT scalars
func (s Scalar) IsNull() bool {
	if !s.set {
		return true
	}
	if s.dtype.IsTemporal() {
		return s.i == nat
	}
	if s.dtype.IsFloat() {
		return math.IsNaN(s.f)
	}
	return false
}

// Float64 returns the value as a float. Temporal values are nanoseconds.
func (s Scalar) Float64() float64 {
	if s.IsNull() {
		return math.NaN()
	}
	if s.dtype.storesInts() {
		return float64(s.i)
	}
	return s.f
}

// Int64 returns the value as an integer, truncating floats
func (s Scalar) Int64() int64 {
	if s.dtype.storesInts() {
		return s.i
	}
	return int64(s.f)
}

// Time interprets the scalar as a datetime
func (s Scalar) Time() time.Time {
	return time.Unix(0, s.Int64()).UTC()
}

// Duration interprets the scalar as a timedelta
func (s Scalar) Duration() time.Duration {
	return time.Duration(s.Int64())
}

// integral reports whether the value has no fractional part
func (s Scalar) integral() bool {
	if s.dtype.storesInts() {
		return true
	}
	return !math.IsInf(s.f, 0) && !math.IsNaN(s.f) && s.f == math.Trunc(s.f)
}

// Compare orders two scalars: -1, 0 or +1. Two temporal scalars compare as
// integers, everything else as floats.
func (s Scalar) Compare(o Scalar) int {
	if s.dtype.storesInts() && o.dtype.storesInts() {
		return cmpOrdered(s.i, o.i)
	}
	return cmpOrdered(s.Float64(), o.Float64())
}

// Equal is true when both scalars are null or hold the same value
func (s Scalar) Equal(o Scalar) bool {
	if s.IsNull() || o.IsNull() {
		return s.IsNull() && o.IsNull()
	}
	if s.dtype.IsTemporal() != o.dtype.IsTemporal() {
		return false
	}
	return s.Compare(o) == 0
}

func (s Scalar) String() string {
	if !s.set {
		return "None"
	}
	switch s.dtype.BasicType {
	case BTDatetime:
		if s.i == nat {
			return NaTString
		}
		return s.Time().Format(time.RFC3339Nano)
	case BTTimedelta:
		if s.i == nat {
			return NaTString
		}
		return s.Duration().String()
	case BTFloatingPoint:
		if math.IsNaN(s.f) {
			return NaNString
		}
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	default:
		return strconv.FormatInt(s.i, 10)
	}
}

// Interface returns a plain Go value: float64, int64, time.Time,
// time.Duration, or the NaN / NaT strings for nulls.
func (s Scalar) Interface() interface{} {
	if !s.set {
		return nil
	}
	switch s.dtype.BasicType {
	case BTDatetime:
		if s.i == nat {
			return NaTString
		}
		return s.Time()
	case BTTimedelta:
		if s.i == nat {
			return NaTString
		}
		return s.Duration().String()
	case BTFloatingPoint:
		if math.IsNaN(s.f) {
			return NaNString
		}
		return s.f
	default:
		return s.i
	}
}

// ParseScalar converts plain Go values into a Scalar. Strings are read as
// numbers, then RFC3339-style datetimes, then Go durations.
func ParseScalar(v interface{}) (Scalar, error) {
	switch x := v.(type) {
	case nil:
		return Scalar{}, nil
	case Scalar:
		return x, nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Float(float64(x)), nil
		}
		return Int(int64(x)), nil
	case time.Time:
		return Time(x), nil
	case time.Duration:
		return Duration(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Scalar{}, fmt.Errorf("%w: invalid number %q", ErrParameter, x)
		}
		return Float(f), nil
	case string:
		return parseScalarString(x)
	default:
		return Scalar{}, fmt.Errorf("%w: can't use %T as a coordinate value", ErrParameter, v)
	}
}

func parseScalarString(s string) (Scalar, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return Scalar{}, nil
	case NaNString, "nan":
		return Float(math.NaN()), nil
	case NaTString:
		return NullOf(DateTime64), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f), nil
	}
	if t, ok := parseTime(s); ok {
		return Time(t), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return Duration(d), nil
	}
	return Scalar{}, fmt.Errorf("%w: can't interpret %q as a number, time or duration", ErrParameter, s)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
	"2006-01",
}

// parseTime reads ISO 8601 datetimes of decreasing precision. Times without
// a zone are UTC.
func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
