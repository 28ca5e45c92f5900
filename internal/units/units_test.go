package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactor(t *testing.T) {
	cases := []struct {
		from, to string
		expect   float64
	}{
		{"m", "m", 1},
		{"m", "mm", 1000},
		{"km", "m", 1000},
		{"ft", "m", 0.3048},
		{"m", "ft", 1 / 0.3048},
		{"s", "ms", 1000},
		{"min", "s", 60},
		{"Hz", "1/s", 1},
		{"kHz", "Hz", 1000},
		{"m/s", "km/h", 3.6},
		{"10 m", "m", 10},
		{"km**2", "m^2", 1e6},
		{"", "", 1},
		{"strain", "", 1},
	}
	for _, c := range cases {
		t.Run(c.from+"->"+c.to, func(t *testing.T) {
			got, err := Factor(c.from, c.to)
			require.NoError(t, err)
			assert.InEpsilon(t, c.expect, got, 1e-12)
		})
	}
}

func TestFactorErrors(t *testing.T) {
	_, err := Factor("m", "s")
	assert.True(t, errors.Is(err, ErrIncompatible), err)

	_, err = Factor("bananas", "m")
	assert.True(t, errors.Is(err, ErrUnknown), err)

	_, err = Factor("m/", "m")
	assert.True(t, errors.Is(err, ErrSyntax), err)

	_, err = Factor("m//s", "m")
	assert.True(t, errors.Is(err, ErrSyntax), err)
}

func TestParse(t *testing.T) {
	q, err := Parse("100 ft")
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.Magnitude)
	assert.InEpsilon(t, 30.48, q.SI(), 1e-12)
	assert.False(t, q.Unit.Dimensionless())

	q, err = Parse("2.5ms")
	require.NoError(t, err)
	assert.True(t, q.Unit.IsTime())
	assert.InEpsilon(t, 0.0025, q.SI(), 1e-12)

	q, err = Parse("")
	require.NoError(t, err)
	assert.True(t, q.Unit.Dimensionless())
}

func TestConvertAndEquivalent(t *testing.T) {
	v, err := Convert(3, "km", "m")
	require.NoError(t, err)
	assert.InEpsilon(t, 3000.0, v, 1e-12)

	assert.True(t, Equivalent("m", "meter"))
	assert.True(t, Equivalent("1000 m", "km"))
	assert.False(t, Equivalent("m", "ft"))
	assert.False(t, Equivalent("m", "s"))
}

func TestConvertInverse(t *testing.T) {
	v, err := ConvertInverse(10, "Hz", "s")
	require.NoError(t, err)
	assert.InEpsilon(t, 0.1, v, 1e-12)

	v, err = ConvertInverse(0.01, "1/m", "km")
	require.NoError(t, err)
	assert.InEpsilon(t, 0.1, v, 1e-12)

	_, err = ConvertInverse(1, "m", "m")
	assert.True(t, errors.Is(err, ErrIncompatible), err)
}
