package coords

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Select trims the manager to the given ranges, keyed by coordinate name.
// Dimension coordinates are applied first, in axis order, then 1-D
// auxiliary coordinates (which trim the dim they span). When data is given
// it's trimmed the same way and returned alongside. A range that matches
// nothing leaves its dimension in place with length zero.
func (m *Manager) Select(ranges map[string]Range, data *Array) (*Manager, *Array, error) {
	if data != nil {
		if err := m.ValidateData(data); err != nil {
			return nil, nil, err
		}
	}
	var order []string
	for _, d := range m.dims {
		if _, ok := ranges[d]; ok {
			order = append(order, d)
		}
	}
	for _, name := range sortedKeys(ranges) {
		if !slices.Contains(m.dims, name) {
			order = append(order, name)
		}
	}

	out := m
	for _, name := range order {
		c, ok := out.coords[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: can't select on %q, no such coordinate", ErrCoord, name)
		}
		if c.NDim() != 1 {
			return nil, nil, fmt.Errorf("%w: only 1 dimensional coordinates can be used for selection, %q spans %v", ErrCoord, name, out.dimMap[name])
		}
		sel, ix, err := c.Select(ranges[name])
		if err != nil {
			return nil, nil, fmt.Errorf("selecting %q: %w", name, err)
		}
		dim := out.dimMap[name][0]
		if out, err = out.trimDim(dim, ix, name, sel); err != nil {
			return nil, nil, err
		}
		if data != nil {
			if data, err = data.Take(slices.Index(m.dims, dim), ix); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, data, nil
}

// trimDim applies ix to every coordinate spanning dim. The coordinate
// called selected is replaced by sel instead of being recomputed.
func (m *Manager) trimDim(dim string, ix Indexer, selected string, sel Coord) (*Manager, error) {
	out := m.clone()
	for _, name := range m.sortedNames() {
		spanned := m.dimMap[name]
		axis := slices.Index(spanned, dim)
		if axis < 0 {
			continue
		}
		if name == selected {
			out.coords[name] = sel
			continue
		}
		c, err := takeCoord(m.coords[name], axis, ix)
		if err != nil {
			return nil, fmt.Errorf("trimming %q: %w", name, err)
		}
		out.coords[name] = c
	}
	return out, nil
}

// takeCoord indexes one axis of a coordinate. Ranges sliced with a positive
// stride stay ranges without regenerating their values.
func takeCoord(c Coord, axis int, ix Indexer) (Coord, error) {
	n := c.Shape()[axis]
	if ix.IsFull(n) {
		return c, nil
	}
	if rc, ok := c.(*RangeCoord); ok && ix.Kind() == SliceIndexerKind {
		start, _, step := ix.indices(n)
		count := ix.Len(n)
		if count == 0 {
			return rc.Empty(), nil
		}
		first := advance(rc.start, rc.step, start)
		return makeRange(rc.units, first, advance(zeroLike(rc.step), rc.step, step), count), nil
	}
	vals, err := c.Values().Take(axis, ix)
	if err != nil {
		return nil, err
	}
	if ix.Kind() == MaskIndexerKind || (ix.Kind() == SliceIndexerKind && ix.Step() > 0) {
		if out, ok := subsetCoord(c, vals); ok {
			return out, nil
		}
	}
	return NewCoord(vals, WithUnits(c.Units()))
}

// UpdateCoords replaces or adds coordinates. Specs take the same forms as in
// NewManager; bare values for an existing coordinate keep its dims.
// Auxiliary coordinates that no longer fit a resized dim are dropped unless
// they were part of the update, which is an error.
func (m *Manager) UpdateCoords(updates map[string]interface{}) (*Manager, error) {
	if len(updates) == 0 {
		return m, nil
	}
	out := m.clone()
	for _, name := range sortedKeys(updates) {
		spanned, c, err := parseSpec(name, updates[name], m.dims, m.dimMap[name])
		if err != nil {
			return nil, err
		}
		out.coords[name] = c
		out.dimMap[name] = spanned
	}
	for _, name := range out.sortedNames() {
		if slices.Contains(out.dims, name) {
			continue
		}
		err := out.checkShape(name, out.coords[name])
		if err == nil {
			continue
		}
		if _, updated := updates[name]; updated {
			return nil, err
		}
		logger().Debug("dropping coordinate that no longer matches its dimensions",
			"coord", name, "dims", out.dimMap[name])
		delete(out.coords, name)
		delete(out.dimMap, name)
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// DropCoord removes a coordinate. Dropping a dim also drops every
// coordinate spanning it, and returns the array axis that went away (-1
// otherwise). Unknown names leave the manager as is.
func (m *Manager) DropCoord(name string) (*Manager, int) {
	if !m.Has(name) {
		return m, -1
	}
	out := m.clone()
	axis := slices.Index(m.dims, name)
	if axis < 0 {
		delete(out.coords, name)
		delete(out.dimMap, name)
		return out, -1
	}
	out.dims = slices.Delete(out.dims, axis, axis+1)
	for coord, spanned := range m.dimMap {
		if slices.Contains(spanned, name) {
			if coord != name {
				logger().Debug("dropping coordinate spanning dropped dimension", "coord", coord, "dim", name)
			}
			delete(out.coords, coord)
			delete(out.dimMap, coord)
		}
	}
	return out, axis
}

// RenameCoord renames coordinates (and dims) using an old to new mapping.
// Renaming onto a name that's already taken is an error.
func (m *Manager) RenameCoord(mapping map[string]string) (*Manager, error) {
	renames := make(map[string]string, len(mapping))
	targets := make(map[string]string, len(mapping))
	for _, old := range sortedKeys(mapping) {
		nw := mapping[old]
		if old == nw || !m.Has(old) {
			continue
		}
		if nw == "" {
			return nil, fmt.Errorf("%w: can't rename %q to an empty name", ErrCoord, old)
		}
		if prev, ok := targets[nw]; ok {
			return nil, fmt.Errorf("%w: both %q and %q would be renamed to %q", ErrCoord, prev, old, nw)
		}
		targets[nw] = old
		renames[old] = nw
	}
	if len(renames) == 0 {
		return m, nil
	}
	for nw := range targets {
		if _, movingAway := renames[nw]; m.Has(nw) && !movingAway {
			return nil, fmt.Errorf("%w: can't rename %q to %q, the name is already used", ErrCoord, targets[nw], nw)
		}
	}
	rename := func(s string) string {
		if nw, ok := renames[s]; ok {
			return nw
		}
		return s
	}
	out := &Manager{
		dims:   make([]string, len(m.dims)),
		coords: make(map[string]Coord, len(m.coords)),
		dimMap: make(map[string][]string, len(m.dimMap)),
	}
	for i, d := range m.dims {
		out.dims[i] = rename(d)
	}
	for name, c := range m.coords {
		out.coords[rename(name)] = c
		spanned := make([]string, len(m.dimMap[name]))
		for i, d := range m.dimMap[name] {
			spanned[i] = rename(d)
		}
		out.dimMap[rename(name)] = spanned
	}
	return out, nil
}

// Transpose reorders the dims. Every dim must be named exactly once.
// Multi-dimensional coordinates get the same reordering of their axes, so
// one laid out like the dims stays laid out like the dims and transposing
// back restores every coordinate.
func (m *Manager) Transpose(dims ...string) (*Manager, error) {
	if len(dims) != len(m.dims) || checkDims(dims) != nil {
		return nil, fmt.Errorf("%w: you must specify all dimensions exactly once in transpose, dims are %v, got %v", ErrCoord, m.dims, dims)
	}
	for _, d := range dims {
		if !slices.Contains(m.dims, d) {
			return nil, fmt.Errorf("%w: you must specify all dimensions in transpose; %q is not one of %v", ErrCoord, d, m.dims)
		}
	}
	out := m.clone()
	out.dims = slices.Clone(dims)
	for _, name := range m.sortedNames() {
		spanned := m.dimMap[name]
		if len(spanned) < 2 {
			continue
		}
		before, after := filterDims(m.dims, spanned), filterDims(dims, spanned)
		order := make([]string, len(spanned))
		for i, d := range spanned {
			order[i] = after[slices.Index(before, d)]
		}
		if slices.Equal(order, spanned) {
			continue
		}
		perm := make([]int, len(order))
		for i, d := range order {
			perm[i] = slices.Index(spanned, d)
		}
		c := m.coords[name]
		vals, err := c.Values().Transpose(perm...)
		if err != nil {
			return nil, err
		}
		nc, err := NewCoord(vals, WithUnits(c.Units()))
		if err != nil {
			return nil, err
		}
		out.coords[name] = nc
		out.dimMap[name] = order
	}
	return out, nil
}

// filterDims keeps the members of dims found in subset, in dims order
func filterDims(dims, subset []string) []string {
	var out []string
	for _, d := range dims {
		if slices.Contains(subset, d) {
			out = append(out, d)
		}
	}
	return out
}

// Decimate keeps every stride-th sample of the named dims. It returns the
// per-axis indexers to apply to matching data with Array.Index.
func (m *Manager) Decimate(strides map[string]int) (*Manager, []Indexer, error) {
	for _, name := range sortedKeys(strides) {
		if !slices.Contains(m.dims, name) {
			return nil, nil, fmt.Errorf("%w: can't decimate %q, it isn't a dimension", ErrCoord, name)
		}
	}
	ixs := make([]Indexer, len(m.dims))
	out := m
	for axis, d := range m.dims {
		stride, ok := strides[d]
		if !ok {
			continue
		}
		if stride < 1 {
			return nil, nil, fmt.Errorf("%w: decimation stride for %q must be positive, got %d", ErrParameter, d, stride)
		}
		ixs[axis] = StrideIndexer(stride)
		var err error
		if out, err = out.trimDim(d, ixs[axis], "", nil); err != nil {
			return nil, nil, err
		}
	}
	return out, ixs, nil
}

// Squeeze removes length one dims (every one of them when none are named).
// Coordinates spanning a squeezed dim lose that axis, or are dropped when it
// was their only one.
func (m *Manager) Squeeze(dims ...string) (*Manager, error) {
	if len(dims) == 0 {
		for _, d := range m.dims {
			if m.coords[d].Len() == 1 {
				dims = append(dims, d)
			}
		}
	}
	var unknown []string
	for _, d := range dims {
		if !slices.Contains(m.dims, d) {
			unknown = append(unknown, d)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: can't squeeze %s because they don't exist, dims are %v", ErrCoord, strings.Join(unknown, ", "), m.dims)
	}
	for _, d := range dims {
		if n := m.coords[d].Len(); n != 1 {
			return nil, fmt.Errorf("%w: can't squeeze dimension %q with non-zero length %d, only length one dimensions can be squeezed", ErrCoord, d, n)
		}
	}
	out := m.clone()
	for _, d := range dims {
		out.dims = slices.DeleteFunc(out.dims, func(s string) bool { return s == d })
		for _, name := range out.sortedNames() {
			spanned := out.dimMap[name]
			axis := slices.Index(spanned, d)
			if axis < 0 {
				continue
			}
			if len(spanned) == 1 {
				delete(out.coords, name)
				delete(out.dimMap, name)
				continue
			}
			c := out.coords[name]
			vals, err := c.Values().IndexAxis(axis, 0)
			if err != nil {
				return nil, err
			}
			nc, ok := subsetCoord(c, vals)
			if !ok {
				if nc, err = NewCoord(vals, WithUnits(c.Units())); err != nil {
					return nil, err
				}
			}
			out.coords[name] = nc
			out.dimMap[name] = slices.Delete(slices.Clone(spanned), axis, axis+1)
		}
	}
	return out, nil
}

// UpdateFromAttrs applies the per-dimension limits and units of attrs to
// the dimension coordinates, keeping their lengths. Limits equal to the
// current ones are ignored.
func (m *Manager) UpdateFromAttrs(attrs Attrs) (*Manager, error) {
	updates := map[string]interface{}{}
	for _, d := range m.dims {
		da, ok := attrs.Coords[d]
		if !ok {
			continue
		}
		c := m.coords[d]
		next := c
		var lim Limits
		if da.Min.IsSet() && !da.Min.Equal(c.Min()) {
			lim.Min = da.Min
		}
		if da.Max.IsSet() && !da.Max.Equal(c.Max()) {
			lim.Max = da.Max
		}
		if da.Step.IsSet() && !da.Step.IsNull() && !da.Step.Equal(c.Step()) {
			lim.Step = da.Step
		}
		if lim.count() > 0 {
			var err error
			if next, err = c.UpdateLimits(lim); err != nil {
				return nil, fmt.Errorf("updating %q from attributes: %w", d, err)
			}
		}
		if da.Units != "" && da.Units != next.Units() {
			next = next.SetUnits(da.Units)
		}
		if next != c {
			updates[d] = next
		}
	}
	return m.UpdateCoords(updates)
}

// UpdateToAttrs writes the dims and per-dimension limits, step and units
// into a copy of old (or into empty attributes). Per-dimension entries of
// old are replaced, other fields are kept.
func (m *Manager) UpdateToAttrs(old *Attrs) Attrs {
	var out Attrs
	if old != nil {
		out = old.Clone()
	}
	out.Dims = m.Dims()
	out.Coords = make(map[string]DimAttrs, len(m.dims))
	for _, d := range m.dims {
		c := m.coords[d]
		out.Coords[d] = DimAttrs{Min: c.Min(), Max: c.Max(), Step: c.Step(), Units: c.Units()}
	}
	return out
}
