package coords

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDimKey(t *testing.T) {
	cases := []struct {
		key, dim, field string
		ok              bool
	}{
		{"distance_min", "distance", "min", true},
		{"time_max", "time", "max", true},
		{"d_time", "time", "step", true},
		{"distance_units", "distance", "units", true},
		{"d_", "", "", false},
		{"_min", "", "", false},
		{"data_units", "", "", false},
		{"tag", "", "", false},
		{"gauge_length", "", "", false},
	}
	for _, c := range cases {
		dim, field, ok := DimKey(c.key)
		if ok != c.ok || dim != c.dim || field != c.field {
			t.Errorf("DimKey(%q) = (%q, %q, %t), want (%q, %q, %t)", c.key, dim, field, ok, c.dim, c.field, c.ok)
		}
	}
}

func TestAttrsFromMap(t *testing.T) {
	a, err := AttrsFromMap(map[string]interface{}{
		"dims":           "time, distance",
		"data_type":      "velocity",
		"tag":            "raw",
		"history":        []interface{}{"created", "decimated"},
		"time_min":       "2020-01-01T00:00:00",
		"time_max":       t0.Add(time.Second),
		"d_time":         "10ms",
		"distance_min":   0,
		"distance_max":   990,
		"d_distance":     10,
		"distance_units": "m",
		"station_min":    3,
		"gauge_length":   10.5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "distance"}, a.Dims)
	assert.Equal(t, "velocity", a.DataType)
	assert.Equal(t, "raw", a.Tag)
	assert.Equal(t, []string{"created", "decimated"}, a.History)

	tm := a.Coords["time"]
	assert.True(t, tm.Min.Equal(Time(t0)))
	assert.True(t, tm.Max.Equal(Time(t0.Add(time.Second))))
	assert.True(t, tm.Step.Equal(Duration(10*time.Millisecond)))
	dist := a.Coords["distance"]
	assert.Equal(t, int64(990), dist.Max.Int64())
	assert.Equal(t, "m", dist.Units)

	// station isn't a dim, so station_min is kept as is
	assert.NotContains(t, a.Coords, "station")
	assert.Equal(t, 3, a.Extra["station_min"])
	assert.Equal(t, 10.5, a.Extra["gauge_length"])

	// without dims every per-dimension key is recognised
	a, err = AttrsFromMap(map[string]interface{}{"depth_min": 1.5, "d_depth": "NaN"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, a.Coords["depth"].Min.Float64())
	assert.True(t, a.Coords["depth"].Step.IsNull())
	assert.Nil(t, a.Extra)
}

func TestAttrsFromMapErrors(t *testing.T) {
	bad := []map[string]interface{}{
		{"dims": 5},
		{"history": []interface{}{1}},
		{"distance_min": []int{1}},
		{"d_time": "soon"},
	}
	for _, m := range bad {
		_, err := AttrsFromMap(m)
		assert.Error(t, err, m)
	}
}

func TestFlatten(t *testing.T) {
	a := Attrs{
		DataType: "strain_rate",
		Station:  "north",
		Dims:     []string{"time", "distance"},
		Coords: map[string]DimAttrs{
			"time":     {Min: Time(t0), Max: NullOf(DateTime64), Step: Duration(time.Millisecond)},
			"distance": {Min: Float(1.5), Max: Float(math.NaN()), Units: "m"},
		},
		Extra: map[string]interface{}{"gauge_length": 10},
	}
	flat := a.Flatten()
	expect := map[string]interface{}{
		"data_type":      "strain_rate",
		"station":        "north",
		"dims":           "time,distance",
		"time_min":       t0,
		"time_max":       NaTString,
		"d_time":         "1ms",
		"distance_min":   1.5,
		"distance_max":   NaNString,
		"distance_units": "m",
		"gauge_length":   10,
	}
	assert.Equal(t, expect, flat)

	v, ok := a.Get("d_time")
	assert.True(t, ok)
	assert.Equal(t, "1ms", v)
	_, ok = a.Get("d_distance")
	assert.False(t, ok)
}

func TestAttrsRoundTrip(t *testing.T) {
	m := basicManager(t)
	attrs := m.UpdateToAttrs(&Attrs{Tag: "raw", Extra: map[string]interface{}{"gauge_length": 10}})

	check := func(t *testing.T, got Attrs) {
		t.Helper()
		assert.Equal(t, "raw", got.Tag)
		assert.Equal(t, dims, got.Dims)
		assert.Len(t, got.Extra, 1)
		for _, dim := range dims {
			want, _ := m.Coord(dim)
			c, err := CoordFromAttrs(got, dim)
			require.NoError(t, err)
			assert.True(t, c.Equal(want), "%s: %s != %s", dim, c, want)
		}
	}

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(attrs)
		require.NoError(t, err)
		var got Attrs
		require.NoError(t, json.Unmarshal(data, &got))
		check(t, got)
	})
	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(attrs)
		require.NoError(t, err)
		var got Attrs
		require.NoError(t, yaml.Unmarshal(data, &got))
		check(t, got)
	})
}

func TestCoordFromAttrs(t *testing.T) {
	attrs := Attrs{Coords: map[string]DimAttrs{
		"up":     {Min: Float(0), Max: Float(1), Step: Float(0.25), Units: "m"},
		"down":   {Min: Int(0), Max: Int(10), Step: Int(-1)},
		"mixed":  {Min: Int(0), Max: Time(t0), Step: Int(1)},
		"flip":   {Min: Int(10), Max: Int(0), Step: Int(1)},
		"nostep": {Min: Int(0), Max: Int(10)},
	}}

	up, err := CoordFromAttrs(attrs, "up")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, up.Values().Float64s())
	assert.Equal(t, "m", up.Units())

	down, err := CoordFromAttrs(attrs, "down")
	require.NoError(t, err)
	assert.True(t, down.ReverseSorted())
	assert.Equal(t, 11, down.Len())
	assert.Equal(t, int64(10), down.Values().Int64s()[0])
	assert.Equal(t, int64(0), down.Min().Int64())

	for _, dim := range []string{"mixed", "flip", "missing"} {
		_, err := CoordFromAttrs(attrs, dim)
		assert.True(t, errors.Is(err, ErrCoord), "%s: %v", dim, err)
	}
	_, err = CoordFromAttrs(attrs, "nostep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "d_nostep")
}

func TestAttrsClone(t *testing.T) {
	a := Attrs{
		Dims:   []string{"time"},
		Coords: map[string]DimAttrs{"time": {Min: Time(t0)}},
		Extra:  map[string]interface{}{"gauge_length": 10},
	}
	b := a.Clone()
	b.Dims[0] = "distance"
	b.Coords["distance"] = DimAttrs{}
	b.Extra["gauge_length"] = 20

	assert.Equal(t, []string{"time"}, a.Dims)
	assert.NotContains(t, a.Coords, "distance")
	assert.Equal(t, 10, a.Extra["gauge_length"])
}
