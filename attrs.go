package coords

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Attrs is the compact description of a patch: a few descriptive fields
// plus, per dimension, the limits, step and units of its coordinate. It's
// written as a flat mapping where dimension entries use the keys
// "{dim}_min", "{dim}_max", "d_{dim}" and "{dim}_units".
type Attrs struct {
	DataType     string
	DataCategory string
	DataUnits    string
	InstrumentID string
	CableID      string
	Network      string
	Station      string
	Tag          string
	Dims         []string
	History      []string
	// Coords holds the per-dimension entries, keyed by dimension name
	Coords map[string]DimAttrs
	// Extra keeps keys that aren't known fields
	Extra map[string]interface{}
}

// DimAttrs summarises one dimension coordinate
type DimAttrs struct {
	Min   Scalar
	Max   Scalar
	Step  Scalar
	Units string
}

var (
	_ json.Marshaler   = Attrs{}
	_ json.Unmarshaler = (*Attrs)(nil)
	_ yaml.Marshaler   = Attrs{}
	_ yaml.Unmarshaler = (*Attrs)(nil)
)

// attrFields maps the flat keys of the descriptive fields to the struct
var attrFields = []struct {
	key   string
	field func(*Attrs) *string
}{
	{"data_type", func(a *Attrs) *string { return &a.DataType }},
	{"data_category", func(a *Attrs) *string { return &a.DataCategory }},
	{"data_units", func(a *Attrs) *string { return &a.DataUnits }},
	{"instrument_id", func(a *Attrs) *string { return &a.InstrumentID }},
	{"cable_id", func(a *Attrs) *string { return &a.CableID }},
	{"network", func(a *Attrs) *string { return &a.Network }},
	{"station", func(a *Attrs) *string { return &a.Station }},
	{"tag", func(a *Attrs) *string { return &a.Tag }},
}

const (
	keyDims    = "dims"
	keyHistory = "history"

	suffixMin   = "_min"
	suffixMax   = "_max"
	suffixUnits = "_units"
	prefixStep  = "d_"
)

func isKnownKey(key string) bool {
	if key == keyDims || key == keyHistory {
		return true
	}
	for _, f := range attrFields {
		if f.key == key {
			return true
		}
	}
	return false
}

// DimKey splits a per-dimension key into its dimension and field ("min",
// "max", "step" or "units").
func DimKey(key string) (dim, field string, ok bool) {
	if isKnownKey(key) {
		return "", "", false
	}
	switch {
	case strings.HasPrefix(key, prefixStep) && len(key) > len(prefixStep):
		return key[len(prefixStep):], "step", true
	case strings.HasSuffix(key, suffixMin) && len(key) > len(suffixMin):
		return strings.TrimSuffix(key, suffixMin), "min", true
	case strings.HasSuffix(key, suffixMax) && len(key) > len(suffixMax):
		return strings.TrimSuffix(key, suffixMax), "max", true
	case strings.HasSuffix(key, suffixUnits) && len(key) > len(suffixUnits):
		return strings.TrimSuffix(key, suffixUnits), "units", true
	}
	return "", "", false
}

// Clone returns a deep copy
func (a Attrs) Clone() Attrs {
	out := a
	out.Dims = slices.Clone(a.Dims)
	out.History = slices.Clone(a.History)
	if a.Coords != nil {
		out.Coords = make(map[string]DimAttrs, len(a.Coords))
		for k, v := range a.Coords {
			out.Coords[k] = v
		}
	}
	if a.Extra != nil {
		out.Extra = make(map[string]interface{}, len(a.Extra))
		for k, v := range a.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Get returns the value stored under a flat key
func (a Attrs) Get(key string) (interface{}, bool) {
	v, ok := a.Flatten()[key]
	return v, ok
}

// Flatten writes the attributes as a flat mapping. Empty fields are left
// out, dims are joined with commas and null limits are written as "NaN" or
// "NaT".
func (a Attrs) Flatten() map[string]interface{} {
	out := make(map[string]interface{}, len(a.Extra)+len(attrFields)+4*len(a.Coords))
	for k, v := range a.Extra {
		out[k] = v
	}
	for _, f := range attrFields {
		if v := *f.field(&a); v != "" {
			out[f.key] = v
		}
	}
	if len(a.Dims) > 0 {
		out[keyDims] = strings.Join(a.Dims, ",")
	}
	if len(a.History) > 0 {
		out[keyHistory] = slices.Clone(a.History)
	}
	for dim, da := range a.Coords {
		if da.Min.IsSet() {
			out[dim+suffixMin] = da.Min.Interface()
		}
		if da.Max.IsSet() {
			out[dim+suffixMax] = da.Max.Interface()
		}
		if da.Step.IsSet() {
			out[prefixStep+dim] = da.Step.Interface()
		}
		if da.Units != "" {
			out[dim+suffixUnits] = da.Units
		}
	}
	return out
}

// AttrsFromMap reads a flat mapping. Once dims are known only their
// per-dimension keys are recognised; anything unrecognised ends up in Extra.
func AttrsFromMap(m map[string]interface{}) (Attrs, error) {
	var a Attrs
	if v, ok := m[keyDims]; ok {
		dims, err := stringList(v)
		if err != nil {
			return a, fmt.Errorf("reading %q: %w", keyDims, err)
		}
		a.Dims = dims
	}
	if v, ok := m[keyHistory]; ok {
		hist, err := stringList(v)
		if err != nil {
			return a, fmt.Errorf("reading %q: %w", keyHistory, err)
		}
		a.History = hist
	}
	for _, f := range attrFields {
		if v, ok := m[f.key]; ok && v != nil {
			*f.field(&a) = fmt.Sprint(v)
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if isKnownKey(key) {
			continue
		}
		v := m[key]
		dim, field, ok := DimKey(key)
		if ok && len(a.Dims) > 0 && !slices.Contains(a.Dims, dim) {
			ok = false
		}
		if !ok {
			if a.Extra == nil {
				a.Extra = map[string]interface{}{}
			}
			a.Extra[key] = v
			continue
		}
		if a.Coords == nil {
			a.Coords = map[string]DimAttrs{}
		}
		da := a.Coords[dim]
		if field == "units" {
			if v != nil {
				da.Units = fmt.Sprint(v)
			}
			a.Coords[dim] = da
			continue
		}
		s, err := ParseScalar(v)
		if err != nil {
			return a, fmt.Errorf("reading %q: %w", key, err)
		}
		switch field {
		case "min":
			da.Min = s
		case "max":
			da.Max = s
		case "step":
			da.Step = s
		}
		a.Coords[dim] = da
	}
	return a, nil
}

func stringList(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		parts := strings.Split(x, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case []string:
		return slices.Clone(x), nil
	case []interface{}:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got %T", e)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a string or list of strings, got %T", v)
}

func (a Attrs) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Flatten())
}

func (a *Attrs) UnmarshalJSON(d []byte) error {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	m := map[string]interface{}{}
	if err := dec.Decode(&m); err != nil {
		return err
	}
	attrs, err := AttrsFromMap(m)
	if err != nil {
		return err
	}
	*a = attrs
	return nil
}

func (a Attrs) MarshalYAML() (interface{}, error) {
	return a.Flatten(), nil
}

func (a *Attrs) UnmarshalYAML(value *yaml.Node) error {
	m := map[string]interface{}{}
	if err := value.Decode(&m); err != nil {
		return err
	}
	attrs, err := AttrsFromMap(m)
	if err != nil {
		return err
	}
	*a = attrs
	return nil
}

// CoordFromAttrs builds the evenly sampled coordinate described by a
// dimension's min, max and step. A negative step starts at max.
func CoordFromAttrs(attrs Attrs, dim string) (Coord, error) {
	da, ok := attrs.Coords[dim]
	if !ok {
		return nil, fmt.Errorf("%w: no attributes for dimension %q", ErrCoord, dim)
	}
	if da.Min.IsNull() || da.Max.IsNull() || da.Step.IsNull() {
		return nil, fmt.Errorf("%w: can't build coordinate %q, attributes need %s, %s and %s", ErrCoord, dim, dim+suffixMin, dim+suffixMax, prefixStep+dim)
	}
	lo, hi := da.Min, da.Max
	if lo.dtype.IsTemporal() != hi.dtype.IsTemporal() {
		return nil, fmt.Errorf("%w: %q limits mix %s and %s", ErrCoord, dim, lo.dtype.Human(), hi.dtype.Human())
	}
	if !lo.dtype.IsTemporal() && (lo.dtype.IsFloat() || hi.dtype.IsFloat()) {
		lo, hi = Float(lo.Float64()), Float(hi.Float64())
	}
	step, err := stepFor(lo.dtype, da.Step)
	if err != nil {
		return nil, err
	}
	n := 1
	if s := step.Float64(); s != 0 {
		n = int(math.Round(valueSub(hi, lo).Float64()/math.Abs(s))) + 1
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: %q max is below its min", ErrCoord, dim)
	}
	first := lo
	if step.Float64() < 0 {
		first = hi
	}
	return makeRange(da.Units, first, step, n), nil
}
