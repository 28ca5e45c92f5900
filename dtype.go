package coords

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DType describes the element type of coordinate values, written as a NumPy
// array protocol type string (typestr). The format consists of 3 parts:
//   - One character describing the byteorder of the data:
//     "<": little-endian; ">": big-endian; "|": not-relevant)
//   - One character code giving the basic type of the array:
//     "i": integer; "f": floating point; "M": datetime; "m": timedelta
//   - An integer specifying the number of bytes the type uses.
//
// Datetime and timedelta types carry a "[unit]" suffix. Values are always
// stored with 8 bytes, temporal values as integer nanoseconds.
type DType struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*DType)(nil)
	_ json.Marshaler   = (*DType)(nil)
)

var (
	// Int64 is the dtype of integer coordinates
	Int64 = DType{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 8}
	// Float64 is the dtype of floating point coordinates
	Float64 = DType{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}
	// DateTime64 is the dtype of absolute time coordinates (ns since epoch)
	DateTime64 = DType{ByteOrder: BOLittleEndian, BasicType: BTDatetime, ByteSize: 8, Units: "[ns]"}
	// TimeDelta64 is the dtype of relative time coordinates (ns)
	TimeDelta64 = DType{ByteOrder: BOLittleEndian, BasicType: BTTimedelta, ByteSize: 8, Units: "[ns]"}
)

// ParseDType reads a typestr such as "<f8" or "<M8[ns]". Only the 8 byte
// variants of the supported basic types are accepted.
func ParseDType(s string) (dt DType, err error) {
	if len(s) < 3 {
		return dt, fmt.Errorf("invalid dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	var sizeStr, unitStr string
	for i, b := range s {
		if b == '[' {
			unitStr = s[i:]
			break
		}
		sizeStr += string(b)
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, err
	}
	if size != 8 {
		return dt, fmt.Errorf("unsupported dtype size %d: values are stored with 8 bytes", size)
	}
	dt.ByteSize = int(size)

	if dt.IsTemporal() {
		if unitStr == "" {
			unitStr = "[ns]"
		}
		if unitStr != "[ns]" {
			return dt, fmt.Errorf("unsupported time resolution %q, only [ns] is supported", unitStr)
		}
	} else if unitStr != "" {
		return dt, fmt.Errorf("unit suffix %q is only valid for datetime and timedelta types", unitStr)
	}
	dt.Units = unitStr

	return dt, nil
}

func (dt DType) String() string {
	if dt.IsZero() {
		return ""
	}
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

// IsZero reports whether the dtype is unset
func (dt DType) IsZero() bool { return dt.BasicType == 0 }

// IsTemporal is true for datetime and timedelta types, which are stored as
// integer nanoseconds.
func (dt DType) IsTemporal() bool {
	return dt.BasicType == BTDatetime || dt.BasicType == BTTimedelta
}

// IsFloat is true for floating point types
func (dt DType) IsFloat() bool { return dt.BasicType == BTFloatingPoint }

// storesInts reports whether values of this type live in an int64 buffer
func (dt DType) storesInts() bool { return !dt.IsFloat() }

// Human returns a readable name for the dtype
func (dt DType) Human() string {
	return dt.BasicType.Human()
}

func (dt DType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *DType) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDType(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

const (
	BTInteger       BasicType = 'i'
	BTFloatingPoint BasicType = 'f'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
)

var supportedBasicTypes = map[BasicType]string{
	BTInteger:       "int64",
	BTFloatingPoint: "float64",
	BTTimedelta:     "timedelta64[ns]",
	BTDatetime:      "datetime64[ns]",
}

// sameKind compares dtypes ignoring byte order
func sameKind(a, b DType) bool {
	return a.BasicType == b.BasicType && a.ByteSize == b.ByteSize && a.Units == b.Units
}
