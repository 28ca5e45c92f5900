package coords

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// Manager is the validated set of coordinates describing the axes of one
// array. dims orders the array axes; every dim has a 1-D coordinate of the
// same name and other (auxiliary) coordinates span one or more dims. A
// Manager is never modified: every operation returns a new one, possibly
// sharing coordinates with the old.
type Manager struct {
	dims   []string
	coords map[string]Coord
	dimMap map[string][]string
}

// CoordSpec attaches coordinate values to the dims they span
type CoordSpec struct {
	Dims   []string
	Values interface{}
}

// Spanning returns a spec for values laid out along dims
func Spanning(values interface{}, dims ...string) CoordSpec {
	return CoordSpec{Dims: dims, Values: values}
}

// ManagerOption configures NewManager
type ManagerOption func(*managerConfig)

type managerConfig struct {
	attrs *Attrs
}

// WithAttrs lets NewManager build dimension coordinates missing from specs
// out of the attributes' min, max and step.
func WithAttrs(attrs Attrs) ManagerOption {
	return func(c *managerConfig) { c.attrs = &attrs }
}

// NewManager builds a manager from coordinate specs and the ordered dims.
// A spec is a Coord, an *Array or slice accepted by NewCoord (which must be
// named after a dim), a CoordSpec, or a two element []interface{} of dims
// (a string or list of strings) and values.
func NewManager(specs map[string]interface{}, dims []string, opts ...ManagerOption) (*Manager, error) {
	var cfg managerConfig
	for _, o := range opts {
		o(&cfg)
	}
	if err := checkDims(dims); err != nil {
		return nil, err
	}
	m := &Manager{
		dims:   slices.Clone(dims),
		coords: make(map[string]Coord, len(specs)),
		dimMap: make(map[string][]string, len(specs)),
	}
	for _, name := range sortedKeys(specs) {
		spanned, c, err := parseSpec(name, specs[name], dims, nil)
		if err != nil {
			return nil, err
		}
		m.coords[name] = c
		m.dimMap[name] = spanned
	}
	var missing []string
	for _, d := range dims {
		if _, ok := m.coords[d]; ok {
			continue
		}
		if cfg.attrs != nil {
			if _, ok := cfg.attrs.Coords[d]; ok {
				c, err := CoordFromAttrs(*cfg.attrs, d)
				if err != nil {
					return nil, err
				}
				m.coords[d] = c
				m.dimMap[d] = []string{d}
				continue
			}
		}
		missing = append(missing, d)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: all dimensions must have coordinates, missing %s", ErrCoord, strings.Join(missing, ", "))
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func checkDims(dims []string) error {
	seen := make(map[string]bool, len(dims))
	for _, d := range dims {
		if d == "" {
			return fmt.Errorf("%w: dimension names can't be empty", ErrCoord)
		}
		if seen[d] {
			return fmt.Errorf("%w: dimension %q is repeated", ErrCoord, d)
		}
		seen[d] = true
	}
	return nil
}

// parseSpec normalises one spec into the dims it spans and its coordinate.
// Bare values keep prior (their existing dims) when given, otherwise they
// must be named after a dim.
func parseSpec(name string, spec interface{}, dims, prior []string) ([]string, Coord, error) {
	var (
		spanned []string
		values  interface{}
	)
	switch s := spec.(type) {
	case CoordSpec:
		spanned, values = s.Dims, s.Values
	case []interface{}:
		if !isNestedSpec(s) {
			spanned, values = nil, s
			break
		}
		if len(s) != 2 {
			return nil, nil, fmt.Errorf("%w: nested coordinate %q must be length two (dims, values), got %d elements", ErrCoord, name, len(s))
		}
		var err error
		if spanned, err = dimNames(s[0]); err != nil {
			return nil, nil, fmt.Errorf("%w: coordinate %q: %s", ErrCoord, name, err)
		}
		values = s[1]
	default:
		values = spec
	}
	if spanned == nil {
		switch {
		case prior != nil:
			spanned = prior
		case slices.Contains(dims, name):
			spanned = []string{name}
		default:
			return nil, nil, fmt.Errorf("%w: coordinate %q is not named the same as dimension; attach it to dims with Spanning", ErrCoord, name)
		}
	}
	for _, d := range spanned {
		if !slices.Contains(dims, d) {
			return nil, nil, fmt.Errorf("%w: coordinate %q spans invalid dimension %q, dims are %v", ErrCoord, name, d, dims)
		}
	}
	if slices.Contains(dims, name) && !(len(spanned) == 1 && spanned[0] == name) {
		return nil, nil, fmt.Errorf("%w: dimension coordinate %q must span only itself, got %v", ErrCoord, name, spanned)
	}
	c, err := NewCoord(values)
	if err != nil {
		return nil, nil, fmt.Errorf("coordinate %q: %w", name, err)
	}
	if c.NDim() != len(spanned) {
		return nil, nil, fmt.Errorf("%w: coordinate %q has %d dimensions but spans %v", ErrCoord, name, c.NDim(), spanned)
	}
	return slices.Clone(spanned), c, nil
}

// isNestedSpec tells a (dims, values) pair from a list of values: the first
// element of a pair is a dim name, or a list of them, that can't be read as
// a coordinate value.
func isNestedSpec(s []interface{}) bool {
	if len(s) == 0 {
		return false
	}
	switch first := s[0].(type) {
	case []string, []interface{}:
		_, err := dimNames(first)
		return err == nil
	case string:
		_, err := parseScalarString(first)
		return err != nil
	}
	return false
}

func dimNames(v interface{}) ([]string, error) {
	switch d := v.(type) {
	case string:
		return []string{d}, nil
	case []string:
		return d, nil
	case []interface{}:
		out := make([]string, len(d))
		for i, x := range d {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("dimension names must be strings, got %T", x)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("dimension names must be a string or list of strings, got %T", v)
}

// validate checks every coordinate against the lengths of the dims it spans
func (m *Manager) validate() error {
	for _, d := range m.dims {
		c, ok := m.coords[d]
		if !ok {
			return fmt.Errorf("%w: dimension %q has no coordinate", ErrCoord, d)
		}
		if c.NDim() != 1 {
			return fmt.Errorf("%w: dimension coordinate %q must be 1-dimensional", ErrCoord, d)
		}
	}
	for _, name := range m.sortedNames() {
		if err := m.checkShape(name, m.coords[name]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) checkShape(name string, c Coord) error {
	spanned := m.dimMap[name]
	shape := c.Shape()
	if len(shape) != len(spanned) {
		return fmt.Errorf("%w: coordinate %q has shape %v but spans %v", ErrCoord, name, shape, spanned)
	}
	for i, d := range spanned {
		want := m.coords[d].Len()
		if shape[i] != want {
			return fmt.Errorf("%w: shape of coordinate %q %v does not match the dimension %q of length %d", ErrCoord, name, shape, d, want)
		}
	}
	return nil
}

// Dims returns the dimension names in axis order
func (m *Manager) Dims() []string { return slices.Clone(m.dims) }

// Shape returns the length of each dimension in axis order
func (m *Manager) Shape() []int {
	out := make([]int, len(m.dims))
	for i, d := range m.dims {
		out[i] = m.coords[d].Len()
	}
	return out
}

// Size is the number of elements of a matching array
func (m *Manager) Size() int { return shapeSize(m.Shape()) }

func (m *Manager) NDim() int { return len(m.dims) }

// Coord returns the named coordinate
func (m *Manager) Coord(name string) (Coord, bool) {
	c, ok := m.coords[name]
	return c, ok
}

// Values returns the values of the named coordinate
func (m *Manager) Values(name string) (*Array, error) {
	c, ok := m.coords[name]
	if !ok {
		return nil, fmt.Errorf("%w: no coordinate named %q", ErrCoord, name)
	}
	return c.Values(), nil
}

// Has reports whether a coordinate exists
func (m *Manager) Has(name string) bool {
	_, ok := m.coords[name]
	return ok
}

// CoordNames lists dims in axis order followed by the other coordinates
// sorted by name.
func (m *Manager) CoordNames() []string {
	out := m.Dims()
	var aux []string
	for name := range m.coords {
		if !slices.Contains(m.dims, name) {
			aux = append(aux, name)
		}
	}
	sort.Strings(aux)
	return append(out, aux...)
}

func (m *Manager) sortedNames() []string {
	names := make([]string, 0, len(m.coords))
	for name := range m.coords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoordMap returns a copy of the name to coordinate mapping
func (m *Manager) CoordMap() map[string]Coord {
	out := make(map[string]Coord, len(m.coords))
	for k, v := range m.coords {
		out[k] = v
	}
	return out
}

// DimMap returns a copy of the mapping from coordinate name to spanned dims
func (m *Manager) DimMap() map[string][]string {
	out := make(map[string][]string, len(m.dimMap))
	for k, v := range m.dimMap {
		out[k] = slices.Clone(v)
	}
	return out
}

// DimToCoordMap maps each dim to the coordinates spanning it (itself
// included), sorted by name.
func (m *Manager) DimToCoordMap() map[string][]string {
	out := make(map[string][]string, len(m.dims))
	for _, name := range m.sortedNames() {
		for _, d := range m.dimMap[name] {
			out[d] = append(out[d], name)
		}
	}
	return out
}

// ValidateData checks that an array's shape matches the manager's
func (m *Manager) ValidateData(data *Array) error {
	if data == nil {
		return fmt.Errorf("%w: no data", ErrCoord)
	}
	if shape := m.Shape(); !intsEqual(shape, data.shape) {
		return fmt.Errorf("%w: data shape %v does not match coordinate shape %v for dims %v", ErrCoord, data.shape, shape, m.dims)
	}
	return nil
}

// Equal is true when both managers have the same dims in the same order
// and equal coordinates spanning the same dims.
func (m *Manager) Equal(o *Manager) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !slices.Equal(m.dims, o.dims) || len(m.coords) != len(o.coords) {
		return false
	}
	for name, c := range m.coords {
		oc, ok := o.coords[name]
		if !ok || !slices.Equal(m.dimMap[name], o.dimMap[name]) || !c.Equal(oc) {
			return false
		}
	}
	return true
}

func (m *Manager) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Manager (%s)\n", dimsLabel(m.dims, m.Shape()))
	for _, name := range m.CoordNames() {
		marker := " "
		if slices.Contains(m.dims, name) {
			marker = "*"
		}
		fmt.Fprintf(&b, "  %s %s (%s): %s\n", marker, name, strings.Join(m.dimMap[name], ", "), m.coords[name])
	}
	return b.String()
}

func dimsLabel(dims []string, shape []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%s: %d", d, shape[i])
	}
	return strings.Join(parts, ", ")
}

// clone returns a shallow copy safe to modify before it's handed out
func (m *Manager) clone() *Manager {
	return &Manager{dims: m.Dims(), coords: m.CoordMap(), dimMap: m.DimMap()}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
