package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/qri-io/coords-go"
	"gopkg.in/yaml.v3"
)

type coordSummary struct {
	Dims  []string    `yaml:"dims" json:"dims"`
	Kind  string      `yaml:"kind" json:"kind"`
	DType string      `yaml:"dtype" json:"dtype"`
	Shape []int       `yaml:"shape" json:"shape"`
	Units string      `yaml:"units,omitempty" json:"units,omitempty"`
	Min   interface{} `yaml:"min,omitempty" json:"min,omitempty"`
	Max   interface{} `yaml:"max,omitempty" json:"max,omitempty"`
	Step  interface{} `yaml:"step,omitempty" json:"step,omitempty"`
}

type managerSummary struct {
	Dims   []string                `yaml:"dims" json:"dims"`
	Shape  []int                   `yaml:"shape" json:"shape"`
	Coords map[string]coordSummary `yaml:"coords" json:"coords"`
}

func summarize(m *coords.Manager) managerSummary {
	dimMap := m.DimMap()
	out := managerSummary{
		Dims:   m.Dims(),
		Shape:  m.Shape(),
		Coords: map[string]coordSummary{},
	}
	for name, c := range m.CoordMap() {
		cs := coordSummary{
			Dims:  dimMap[name],
			Kind:  kindOf(c),
			DType: c.DType().String(),
			Shape: c.Shape(),
			Units: c.Units(),
		}
		if !c.Degenerate() {
			cs.Min = c.Min().Interface()
			cs.Max = c.Max().Interface()
		}
		if step := c.Step(); !step.IsNull() {
			cs.Step = step.Interface()
		}
		out.Coords[name] = cs
	}
	return out
}

func kindOf(c coords.Coord) string {
	switch c.(type) {
	case *coords.RangeCoord:
		return "range"
	case *coords.SortedCoord:
		return "sorted"
	case *coords.UnorderedCoord:
		return "unordered"
	case *coords.DegenerateCoord:
		return "degenerate"
	}
	return "unknown"
}

func writeManager(w io.Writer, format string, m *coords.Manager) error {
	switch format {
	case "text", "":
		_, err := io.WriteString(w, m.String())
		return err
	case "yaml":
		return writeYAML(w, summarize(m))
	case "json":
		return writeJSON(w, summarize(m))
	}
	return fmt.Errorf("unknown format %q, expected text, yaml or json", format)
}

func writeAttrs(w io.Writer, format string, attrs coords.Attrs) error {
	switch format {
	case "text", "":
		flat := attrs.Flatten()
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "%s: %v\n", k, flat[k]); err != nil {
				return err
			}
		}
		return nil
	case "yaml":
		return writeYAML(w, attrs)
	case "json":
		return writeJSON(w, attrs)
	}
	return fmt.Errorf("unknown format %q, expected text, yaml or json", format)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
