package coords

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dims = []string{"time", "distance"}

func secs(s int64) time.Time { return time.Unix(s, 0).UTC() }

// basicManager has 9 datetimes and 100 distances
func basicManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(map[string]interface{}{
		"time":     mustRange(t, secs(10), secs(100), 10),
		"distance": mustRange(t, 0, 1000, 10),
	}, dims)
	require.NoError(t, err)
	return m
}

func latitudes(n int) []float64 {
	rng := rand.New(rand.NewSource(42))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}

// multidimManager adds a 2-D quality coordinate and a latitude coordinate
// spanning distance.
func multidimManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(map[string]interface{}{
		"time":     mustRange(t, secs(10), secs(110), 10),
		"distance": mustRange(t, 0, 1000, 10),
		"quality":  Spanning(Ones(Float64, 10, 100), "time", "distance"),
		"latitude": []interface{}{"distance", latitudes(100)},
	}, dims)
	require.NoError(t, err)
	return m
}

func requireCoordErr(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCoord), "expected a coordinate error, got %v", err)
	assert.Contains(t, err.Error(), contains)
}

func TestNewManager(t *testing.T) {
	m := multidimManager(t)
	assert.Equal(t, dims, m.Dims())
	assert.Equal(t, []int{10, 100}, m.Shape())
	assert.Equal(t, 1000, m.Size())
	assert.Equal(t, 2, m.NDim())
	assert.Equal(t, []string{"time", "distance", "latitude", "quality"}, m.CoordNames())
	assert.True(t, m.Has("latitude"))
	assert.False(t, m.Has("depth"))

	expectDimMap := map[string][]string{
		"time":     {"time"},
		"distance": {"distance"},
		"quality":  {"time", "distance"},
		"latitude": {"distance"},
	}
	if diff := cmp.Diff(expectDimMap, m.DimMap()); diff != "" {
		t.Errorf("dim map mismatch (-want +got):\n%s", diff)
	}
	expectDimToCoord := map[string][]string{
		"time":     {"quality", "time"},
		"distance": {"distance", "latitude", "quality"},
	}
	if diff := cmp.Diff(expectDimToCoord, m.DimToCoordMap()); diff != "" {
		t.Errorf("dim to coord map mismatch (-want +got):\n%s", diff)
	}

	lat, err := m.Values("latitude")
	require.NoError(t, err)
	assert.Equal(t, latitudes(100), lat.Float64s())
	_, err = m.Values("depth")
	assert.True(t, errors.Is(err, ErrCoord))

	assert.Contains(t, m.String(), "Manager (time: 10, distance: 100)")
	assert.Contains(t, m.String(), "latitude (distance)")
}

func TestManagerMappingsAreCopies(t *testing.T) {
	m := multidimManager(t)
	cm := m.CoordMap()
	delete(cm, "latitude")
	dm := m.DimMap()
	dm["quality"][0] = "distance"
	d := m.Dims()
	d[0] = "depth"

	assert.True(t, m.Has("latitude"))
	assert.Equal(t, []string{"time", "distance"}, m.DimMap()["quality"])
	assert.Equal(t, dims, m.Dims())
}

func TestNewManagerErrors(t *testing.T) {
	lat := latitudes(100)
	distance := mustRange(t, 0, 1000, 10)
	times := mustRange(t, secs(10), secs(110), 10)

	cases := []struct {
		name     string
		specs    map[string]interface{}
		dims     []string
		contains string
	}{
		{
			"nested too long",
			map[string]interface{}{"distance": distance, "latitude": []interface{}{"distance", lat, 1}},
			[]string{"distance"},
			"must be length two",
		},
		{
			"invalid dimension",
			map[string]interface{}{"distance": distance, "latitude": Spanning(lat, "depth")},
			[]string{"distance"},
			"invalid dimension",
		},
		{
			"missing coordinates",
			map[string]interface{}{"time": times},
			dims,
			"all dimensions must have coordinates",
		},
		{
			"bad aux length",
			map[string]interface{}{"distance": distance, "latitude": Spanning(lat[:5], "distance")},
			[]string{"distance"},
			"does not match the dimension",
		},
		{
			"unnamed aux",
			map[string]interface{}{"distance": distance, "latitude": lat},
			[]string{"distance"},
			"not named the same as dimension",
		},
		{
			"dimension spanning another",
			map[string]interface{}{"time": times, "distance": Spanning(distance, "time")},
			dims,
			"must span only itself",
		},
		{
			"dimension count mismatch",
			map[string]interface{}{"time": times, "distance": distance, "quality": Spanning(Ones(Float64, 10, 100), "time")},
			dims,
			"has 2 dimensions but spans",
		},
		{
			"repeated dims",
			map[string]interface{}{"time": times},
			[]string{"time", "time"},
			"repeated",
		},
		{
			"multi-dimensional dimension",
			map[string]interface{}{"distance": Ones(Float64, 2, 2)},
			[]string{"distance"},
			"has 2 dimensions",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewManager(c.specs, c.dims)
			requireCoordErr(t, err, c.contains)
		})
	}
}

func TestNewManagerFromAttrs(t *testing.T) {
	attrs := Attrs{Coords: map[string]DimAttrs{
		"distance": {Min: Int(0), Max: Int(990), Step: Int(10), Units: "m"},
	}}
	m, err := NewManager(map[string]interface{}{
		"time": mustRange(t, secs(10), secs(100), 10),
	}, dims, WithAttrs(attrs))
	require.NoError(t, err)
	dist, ok := m.Coord("distance")
	require.True(t, ok)
	assert.True(t, dist.Equal(mustRange(t, 0, 1000, 10, WithUnits("m"))))

	// explicit coordinates win over attributes
	m, err = NewManager(map[string]interface{}{
		"time":     mustRange(t, secs(10), secs(100), 10),
		"distance": mustRange(t, 0, 50, 1),
	}, dims, WithAttrs(attrs))
	require.NoError(t, err)
	assert.Equal(t, []int{9, 50}, m.Shape())

	_, err = NewManager(map[string]interface{}{
		"distance": mustRange(t, 0, 50, 1),
	}, dims, WithAttrs(attrs))
	requireCoordErr(t, err, "all dimensions must have coordinates")
}

func TestNestedSpecs(t *testing.T) {
	m := basicManager(t)
	lat := Ones(Float64, 100)
	out, err := m.UpdateCoords(map[string]interface{}{
		"latitude": []interface{}{"distance", lat},
		"depth":    []interface{}{[]interface{}{"distance"}, lat},
		"quality":  []interface{}{[]string{"distance", "time"}, Ones(Float64, 100, 9)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"distance"}, out.DimMap()["latitude"])
	assert.Equal(t, []string{"distance"}, out.DimMap()["depth"])
	assert.Equal(t, []string{"distance", "time"}, out.DimMap()["quality"])
	assert.Equal(t, m.Dims(), out.Dims())

	// lists of values, even when given as strings, aren't nested specs
	out, err = m.UpdateCoords(map[string]interface{}{
		"time": []interface{}{"2020-01-01", "2020-01-02"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 100}, out.Shape())
}

// selecting distance trims every coordinate spanning it
func TestSelectTrimsAuxCoords(t *testing.T) {
	m := multidimManager(t)
	data := Zeros(Float64, 10, 100)

	out, trimmed, err := m.Select(map[string]Range{"distance": {Lo: 100, Hi: 400}}, data)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 31}, out.Shape())
	assert.Equal(t, []int{10, 31}, trimmed.Shape())

	lat, err := out.Values("latitude")
	require.NoError(t, err)
	assert.Equal(t, latitudes(100)[10:41], lat.Float64s())
	quality, _ := out.Coord("quality")
	assert.Equal(t, []int{10, 31}, quality.Shape())

	before, _ := m.Coord("time")
	after, _ := out.Coord("time")
	assert.Same(t, before, after)

	dist, _ := out.Coord("distance")
	assert.Equal(t, int64(100), dist.Min().Int64())
	assert.Equal(t, int64(400), dist.Max().Int64())
}

func TestSelectEmptiesDim(t *testing.T) {
	m := multidimManager(t)
	out, data, err := m.Select(map[string]Range{"distance": {Lo: -100, Hi: -10}}, Zeros(Float64, 10, 100))
	require.NoError(t, err)
	assert.Equal(t, []int{10, 0}, out.Shape())
	assert.Equal(t, []int{10, 0}, data.Shape())
	for _, name := range []string{"distance", "latitude", "quality"} {
		c, ok := out.Coord(name)
		require.True(t, ok, name)
		assert.True(t, c.Degenerate(), name)
	}
}

func TestSelectOnAuxCoord(t *testing.T) {
	m := multidimManager(t)
	out, _, err := m.Select(map[string]Range{"latitude": {Lo: 0.5}}, nil)
	require.NoError(t, err)

	expect := 0
	for _, v := range latitudes(100) {
		if v >= 0.5 {
			expect++
		}
	}
	assert.Equal(t, []int{10, expect}, out.Shape())
	lat, _ := out.Coord("latitude")
	assert.GreaterOrEqual(t, lat.Min().Float64(), 0.5)
	quality, _ := out.Coord("quality")
	assert.Equal(t, []int{10, expect}, quality.Shape())
}

func TestSelectErrors(t *testing.T) {
	m := multidimManager(t)
	_, _, err := m.Select(map[string]Range{"quality": {Lo: 0}}, nil)
	requireCoordErr(t, err, "only 1 dimensional")

	_, _, err = m.Select(map[string]Range{"depth": {Lo: 0}}, nil)
	requireCoordErr(t, err, "no such coordinate")

	_, _, err = m.Select(map[string]Range{"distance": {Lo: 0}}, Zeros(Float64, 3, 3))
	requireCoordErr(t, err, "does not match")

	_, _, err = m.Select(map[string]Range{"distance": {Lo: t0}}, nil)
	assert.True(t, errors.Is(err, ErrParameter), err)

	same, _, err := m.Select(nil, nil)
	require.NoError(t, err)
	assert.True(t, same.Equal(m))
}

func TestSelectTimeAndDistance(t *testing.T) {
	m := basicManager(t)
	data := Zeros(Float64, 9, 100)
	out, data, err := m.Select(map[string]Range{
		"time":     {Lo: "1970-01-01T00:00:20", Hi: secs(40)},
		"distance": {Hi: 95},
	}, data)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 10}, out.Shape())
	assert.Equal(t, []int{3, 10}, data.Shape())
}

func TestUpdateCoords(t *testing.T) {
	m := multidimManager(t)
	tc, _ := m.Coord("time")
	shifted, err := tc.UpdateLimits(Limits{Min: Time(secs(11))})
	require.NoError(t, err)

	out, err := m.UpdateCoords(map[string]interface{}{"time": shifted})
	require.NoError(t, err)
	assert.ElementsMatch(t, m.CoordNames(), out.CoordNames())
	got, _ := out.Coord("time")
	assert.Same(t, shifted, got)

	// bare values keep the dims of the coordinate they replace
	out, err = m.UpdateCoords(map[string]interface{}{"latitude": Ones(Float64, 100)})
	require.NoError(t, err)
	assert.Equal(t, []string{"distance"}, out.DimMap()["latitude"])

	same, err := m.UpdateCoords(nil)
	require.NoError(t, err)
	assert.Same(t, m, same)
}

// shrinking time drops the coordinates that still span the old length
func TestUpdateCoordsDropsMismatched(t *testing.T) {
	m := multidimManager(t)
	out, err := m.UpdateCoords(map[string]interface{}{"time": mustRange(t, secs(0), secs(50), 10)})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 100}, out.Shape())
	assert.False(t, out.Has("quality"))
	assert.True(t, out.Has("latitude"))

	out, err = m.UpdateCoords(map[string]interface{}{"distance": mustRange(t, 0, 100, 10)})
	require.NoError(t, err)
	assert.False(t, out.Has("quality"))
	assert.False(t, out.Has("latitude"))

	tc, _ := m.Coord("time")
	out, err = m.UpdateCoords(map[string]interface{}{"time": tc.Empty()})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 100}, out.Shape())
	assert.False(t, out.Has("quality"))
	assert.False(t, out.Equal(m))

	// coordinates in the update itself must fit
	_, err = m.UpdateCoords(map[string]interface{}{"latitude": Ones(Float64, 3)})
	requireCoordErr(t, err, "does not match the dimension")
}

func TestUpdateCoordsAddsCoords(t *testing.T) {
	m := basicManager(t)
	lat := Ones(Float64, 100)
	out, err := m.UpdateCoords(map[string]interface{}{"latitude": Spanning(lat, "distance")})
	require.NoError(t, err)
	assert.NotSame(t, m, out)
	assert.Equal(t, m.Dims(), out.Dims())
	assert.Equal(t, out.DimMap()["distance"], out.DimMap()["latitude"])
	assert.False(t, m.Has("latitude"))

	out, err = m.UpdateCoords(map[string]interface{}{
		"qual": Spanning(Ones(Float64, 100, 9), "distance", "time"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "time"}, out.DimMap()["qual"])
}

func TestDropCoord(t *testing.T) {
	m := multidimManager(t)

	out, axis := m.DropCoord("distance")
	assert.Equal(t, 1, axis)
	assert.Equal(t, []string{"time"}, out.Dims())
	assert.Equal(t, []string{"time"}, out.CoordNames())

	out, axis = m.DropCoord("latitude")
	assert.Equal(t, -1, axis)
	assert.Equal(t, []string{"time", "distance", "quality"}, out.CoordNames())
	assert.True(t, m.Has("latitude"))

	same, axis := m.DropCoord("depth")
	assert.Equal(t, -1, axis)
	assert.Same(t, m, same)
}

func TestRenameCoord(t *testing.T) {
	m := multidimManager(t)

	out, err := m.RenameCoord(map[string]string{"distance": "dist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "dist"}, out.Dims())
	assert.Equal(t, []string{"time", "dist"}, out.DimMap()["quality"])
	assert.Equal(t, []string{"dist"}, out.DimMap()["latitude"])
	assert.False(t, out.Has("distance"))

	out, err = m.RenameCoord(map[string]string{"latitude": "lat"})
	require.NoError(t, err)
	assert.Equal(t, dims, out.Dims())
	assert.True(t, out.Has("lat"))

	swapped, err := m.RenameCoord(map[string]string{"time": "distance", "distance": "time"})
	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "time"}, swapped.Dims())
	assert.Equal(t, []int{10, 100}, swapped.Shape())

	same, err := m.RenameCoord(map[string]string{"depth": "z", "time": "time"})
	require.NoError(t, err)
	assert.Same(t, m, same)

	_, err = m.RenameCoord(map[string]string{"time": "latitude"})
	requireCoordErr(t, err, "already used")
	_, err = m.RenameCoord(map[string]string{"time": "t", "distance": "t"})
	requireCoordErr(t, err, "would be renamed")
	_, err = m.RenameCoord(map[string]string{"time": ""})
	requireCoordErr(t, err, "empty name")
}

func TestTranspose(t *testing.T) {
	m := basicManager(t)
	out, err := m.Transpose("distance", "time")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 9}, out.Shape())
	assert.False(t, out.Equal(m))

	back, err := out.Transpose(dims...)
	require.NoError(t, err)
	assert.True(t, back.Equal(m))

	_, err = m.Transpose("time")
	requireCoordErr(t, err, "you must specify all dimensions")
	_, err = m.Transpose("time", "depth")
	requireCoordErr(t, err, "you must specify all dimensions")
	_, err = m.Transpose("time", "time")
	requireCoordErr(t, err, "you must specify all dimensions")
}

func TestTransposeMultiDimCoords(t *testing.T) {
	m := multidimManager(t)
	qvals := Zeros(Float64, 10, 100)
	for i := range qvals.floats {
		qvals.floats[i] = float64(i)
	}
	m, err := m.UpdateCoords(map[string]interface{}{"quality": qvals})
	require.NoError(t, err)

	out, err := m.Transpose("distance", "time")
	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "time"}, out.DimMap()["quality"])
	q, _ := out.Coord("quality")
	assert.Equal(t, []int{100, 10}, q.Shape())
	assert.Equal(t, qvals.At(3, 7), q.Values().At(7, 3))

	back, err := out.Transpose(dims...)
	require.NoError(t, err)
	assert.True(t, back.Equal(m))
}

func TestDecimate(t *testing.T) {
	m := basicManager(t)
	out, ixs, err := m.Decimate(map[string]int{"distance": 2})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 50}, out.Shape())
	dist, _ := out.Coord("distance")
	assert.Equal(t, int64(20), dist.Step().Int64())
	require.Len(t, ixs, 2)
	assert.True(t, ixs[0].IsFull(9))

	data, err := Zeros(Float64, 9, 100).Index(ixs)
	require.NoError(t, err)
	assert.NoError(t, out.ValidateData(data))

	_, _, err = m.Decimate(map[string]int{"depth": 2})
	requireCoordErr(t, err, "isn't a dimension")
	_, _, err = m.Decimate(map[string]int{"time": 0})
	assert.True(t, errors.Is(err, ErrParameter))

	mm := multidimManager(t)
	out, _, err = mm.Decimate(map[string]int{"distance": 3})
	require.NoError(t, err)
	lat, _ := out.Values("latitude")
	var expect []float64
	for i, v := range latitudes(100) {
		if i%3 == 0 {
			expect = append(expect, v)
		}
	}
	assert.Equal(t, expect, lat.Float64s())
	q, _ := out.Coord("quality")
	assert.Equal(t, []int{10, 34}, q.Shape())
}

func TestSqueeze(t *testing.T) {
	m := multidimManager(t)
	one, err := m.UpdateCoords(map[string]interface{}{"time": []time.Time{secs(3600)}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 100}, one.Shape())

	_, err = one.Squeeze("is_money")
	requireCoordErr(t, err, "they don't exist")
	_, err = one.Squeeze("distance")
	requireCoordErr(t, err, "non-zero length")

	out, err := one.Squeeze("time")
	require.NoError(t, err)
	assert.Equal(t, []string{"distance"}, out.Dims())
	assert.False(t, out.Has("time"))

	out, err = one.Squeeze()
	require.NoError(t, err)
	assert.Equal(t, []string{"distance"}, out.Dims())

	// coordinates spanning the squeezed dim lose that axis
	withQuality, err := one.UpdateCoords(map[string]interface{}{
		"quality": Spanning(Ones(Float64, 1, 100), "time", "distance"),
	})
	require.NoError(t, err)
	out, err = withQuality.Squeeze("time")
	require.NoError(t, err)
	assert.Equal(t, []string{"distance"}, out.DimMap()["quality"])
	q, _ := out.Coord("quality")
	assert.Equal(t, []int{100}, q.Shape())
}

func TestUpdateFromAttrs(t *testing.T) {
	m := basicManager(t)
	for _, dim := range dims {
		c, _ := m.Coord(dim)

		out, err := m.UpdateFromAttrs(Attrs{Coords: map[string]DimAttrs{dim: {Max: c.Min()}}})
		require.NoError(t, err)
		nc, _ := out.Coord(dim)
		assert.Equal(t, c.Len(), nc.Len(), dim)
		assert.True(t, nc.Max().Equal(c.Min()), dim)

		out, err = m.UpdateFromAttrs(Attrs{Coords: map[string]DimAttrs{dim: {Min: c.Max()}}})
		require.NoError(t, err)
		nc, _ = out.Coord(dim)
		assert.True(t, nc.Min().Equal(c.Max()), dim)
		assert.Equal(t,
			valueSub(c.Max(), c.Min()).Float64(),
			valueSub(nc.Max(), nc.Min()).Float64(), dim)

		step := scaleScalar(c.Step(), 10)
		out, err = m.UpdateFromAttrs(Attrs{Coords: map[string]DimAttrs{dim: {Step: step}}})
		require.NoError(t, err)
		nc, _ = out.Coord(dim)
		assert.Equal(t, c.Len(), nc.Len(), dim)
		assert.True(t, nc.Min().Equal(c.Min()), dim)
		assert.Equal(t,
			10*valueSub(c.Max(), c.Min()).Float64(),
			valueSub(nc.Max(), nc.Min()).Float64(), dim)
	}

	// unchanged limits leave the coordinates alone; units are applied
	attrs := m.UpdateToAttrs(nil)
	da := attrs.Coords["distance"]
	da.Units = "ft"
	attrs.Coords["distance"] = da
	out, err := m.UpdateFromAttrs(attrs)
	require.NoError(t, err)
	dist, _ := out.Coord("distance")
	assert.Equal(t, "ft", dist.Units())
	before, _ := m.Coord("time")
	after, _ := out.Coord("time")
	assert.Same(t, before, after)

	_, err = m.UpdateFromAttrs(Attrs{Coords: map[string]DimAttrs{"time": {Min: Int(3)}}})
	require.NoError(t, err, "numbers on datetimes are seconds")
}

func TestUpdateToAttrs(t *testing.T) {
	m := basicManager(t)
	attrs := m.UpdateToAttrs(nil)
	assert.Equal(t, dims, attrs.Dims)
	for _, dim := range dims {
		c, _ := m.Coord(dim)
		da := attrs.Coords[dim]
		assert.True(t, da.Min.Equal(c.Min()))
		assert.True(t, da.Max.Equal(c.Max()))
		assert.True(t, da.Step.Equal(c.Step()))

		rebuilt, err := CoordFromAttrs(attrs, dim)
		require.NoError(t, err)
		assert.True(t, rebuilt.Equal(c), dim)
	}

	old := Attrs{
		Tag:     "raw",
		History: []string{"created"},
		Coords:  map[string]DimAttrs{"depth": {Min: Int(1)}},
		Extra:   map[string]interface{}{"gauge_length": 10},
	}
	attrs = m.UpdateToAttrs(&old)
	assert.Equal(t, "raw", attrs.Tag)
	assert.Equal(t, []string{"created"}, attrs.History)
	assert.Equal(t, 10, attrs.Extra["gauge_length"])
	assert.NotContains(t, attrs.Coords, "depth")
	assert.Contains(t, old.Coords, "depth")
}

func TestManagerEqual(t *testing.T) {
	a, b := multidimManager(t), multidimManager(t)
	assert.True(t, a.Equal(b))
	c, _ := a.DropCoord("latitude")
	assert.False(t, a.Equal(c))
	d, err := a.RenameCoord(map[string]string{"latitude": "lat"})
	require.NoError(t, err)
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))
}

func TestManagerConcurrentReads(t *testing.T) {
	m := multidimManager(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, _, err := m.Select(map[string]Range{"distance": {Lo: i * 10}}, nil)
			assert.NoError(t, err)
			assert.Equal(t, 100-i, out.Shape()[1])
			_ = m.String()
		}(i)
	}
	wg.Wait()
}
