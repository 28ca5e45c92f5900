package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/qri-io/coords-go"
	"github.com/qri-io/coords-go/internal/store"
	"github.com/qri-io/dataset/compression"
	"gopkg.in/yaml.v3"
)

// description is the on-disk layout of a coordinate description file. JSON
// files are read by the same YAML decoder.
type description struct {
	Dims   []string             `yaml:"dims"`
	Attrs  coords.Attrs         `yaml:"attrs"`
	Coords map[string]coordDesc `yaml:"coords"`
}

// coordDesc is either explicit values or a start, stop, step range. One
// with neither is an empty coordinate.
type coordDesc struct {
	Dims   []string      `yaml:"dims,omitempty"`
	Values []interface{} `yaml:"values,omitempty"`
	Start  interface{}   `yaml:"start,omitempty"`
	Stop   interface{}   `yaml:"stop,omitempty"`
	Step   interface{}   `yaml:"step,omitempty"`
	Units  string        `yaml:"units,omitempty"`
	// DType forces the value type, eg. "<f8" for floats written as integers
	DType  string        `yaml:"dtype,omitempty"`
}

// compressionFor picks the decompressor id for path. An explicit id wins.
func compressionFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".zst", ".zstd":
		return "zst"
	}
	return ""
}

// openFile returns a store rooted at the directory of path and the key of
// the file inside it.
func openFile(path string) (store.Store, string, error) {
	st, err := store.NewLocalStore(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	return st, filepath.Base(path), nil
}

// readDescription decodes the description stored under key, decompressing
// it first when needed.
func readDescription(log *slog.Logger, st store.Store, key, compressionID string) (*description, error) {
	rc, err := st.Get(key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if id := compressionFor(key, compressionID); id != "" {
		dc, err := compression.Decompressor(id, rc)
		if err != nil {
			return nil, fmt.Errorf("decompressing %q: %w", key, err)
		}
		defer dc.Close()
		r = dc
		log.Debug("decompressing description", "key", key, "compression", id, "store", st.Type())
	}

	desc := &description{}
	if err := yaml.NewDecoder(r).Decode(desc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %q: empty description", key)
		}
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	return desc, nil
}

// writeDescription stores desc as YAML under key
func writeDescription(st store.Store, key string, desc *description) error {
	buf := &bytes.Buffer{}
	if err := writeYAML(buf, desc); err != nil {
		return err
	}
	return st.Put(key, buf)
}

// manager builds the coordinate manager a description describes
func (d *description) manager() (*coords.Manager, error) {
	specs := make(map[string]interface{}, len(d.Coords))
	for name, cd := range d.Coords {
		c, err := cd.coord()
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", name, err)
		}
		if len(cd.Dims) > 0 {
			specs[name] = coords.Spanning(c, cd.Dims...)
			continue
		}
		specs[name] = c
	}
	return coords.NewManager(specs, d.Dims, coords.WithAttrs(d.Attrs))
}

func (cd coordDesc) coord() (coords.Coord, error) {
	if cd.DType != "" {
		dt, err := coords.ParseDType(cd.DType)
		if err != nil {
			return nil, err
		}
		if dt.IsFloat() {
			if cd, err = cd.asFloats(); err != nil {
				return nil, err
			}
		}
	}
	opt := coords.WithUnits(cd.Units)
	if cd.Start == nil && cd.Stop == nil && cd.Step == nil {
		vals := cd.Values
		if vals == nil {
			vals = []interface{}{}
		}
		return coords.NewCoord(vals, opt)
	}
	if cd.Values != nil {
		return nil, fmt.Errorf("has both values and a range")
	}
	return coords.NewRangeCoord(cd.Start, cd.Stop, cd.Step, opt)
}

func (cd coordDesc) asFloats() (coordDesc, error) {
	var err error
	for _, v := range []*interface{}{&cd.Start, &cd.Stop, &cd.Step} {
		if *v != nil {
			if *v, err = toFloat(*v); err != nil {
				return cd, err
			}
		}
	}
	if cd.Values != nil {
		vals, err := toFloat(cd.Values)
		if err != nil {
			return cd, err
		}
		cd.Values = vals.([]interface{})
	}
	return cd, nil
}

// toFloat converts a value, or nested lists of them, to float64
func toFloat(v interface{}) (interface{}, error) {
	if list, ok := v.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, x := range list {
			f, err := toFloat(x)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	s, err := coords.ParseScalar(v)
	if err != nil {
		return nil, err
	}
	if s.DType().IsTemporal() {
		return nil, fmt.Errorf("%v isn't a number", v)
	}
	return s.Float64(), nil
}

// describeManager is the inverse of description.manager. Ranges are
// written as start, stop and step, everything else as (nested) values.
func describeManager(m *coords.Manager, attrs coords.Attrs) *description {
	dimMap := m.DimMap()
	desc := &description{
		Dims:   m.Dims(),
		Attrs:  m.UpdateToAttrs(&attrs),
		Coords: make(map[string]coordDesc, len(dimMap)),
	}
	for name, c := range m.CoordMap() {
		cd := coordDesc{Units: c.Units()}
		if c.DType().IsFloat() {
			cd.DType = c.DType().String()
		}
		if spanned := dimMap[name]; len(spanned) != 1 || spanned[0] != name {
			cd.Dims = spanned
		}
		if rc, ok := c.(*coords.RangeCoord); ok {
			cd.Start = rc.Start().Interface()
			cd.Stop = rc.Stop().Interface()
			cd.Step = rc.Step().Interface()
		} else if !c.Degenerate() {
			cd.Values = nestedValues(c.Values(), nil)
		}
		desc.Coords[name] = cd
	}
	return desc
}

// nestedValues writes an array as nested lists, one level per dimension
func nestedValues(a *coords.Array, prefix []int) []interface{} {
	shape := a.Shape()
	axis := len(prefix)
	out := make([]interface{}, shape[axis])
	for i := range out {
		idx := append(append([]int{}, prefix...), i)
		if axis == len(shape)-1 {
			out[i] = a.At(idx...).Interface()
			continue
		}
		out[i] = nestedValues(a, idx)
	}
	return out
}

func loadManager(log *slog.Logger, path, compressionID string) (*coords.Manager, *description, error) {
	st, key, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	desc, err := readDescription(log, st, key, compressionID)
	if err != nil {
		return nil, nil, err
	}
	m, err := desc.manager()
	if err != nil {
		return nil, nil, err
	}
	log.Debug("loaded description", "path", path, "dims", m.Dims(), "shape", m.Shape())
	return m, desc, nil
}
