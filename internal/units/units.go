// Package units parses physical unit strings ("m", "ft", "m/s", "10 m",
// "1/s", "km**2") and computes conversion factors between compatible units.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrUnknown is returned for unit names that aren't in the registry
	ErrUnknown = errors.New("unknown unit")
	// ErrIncompatible is returned when converting between different dimensions
	ErrIncompatible = errors.New("incompatible units")
	// ErrSyntax is returned for malformed unit expressions
	ErrSyntax = errors.New("malformed unit expression")
)

// base dimensions
const (
	length = iota
	mass
	duration
	current
	temperature
	amount
	luminosity
	numBase
)

type dimension [numBase]int

// Unit is a scale factor relative to the SI base units plus the exponents
// of each base dimension.
type Unit struct {
	Scale float64
	dim   dimension
}

var one = Unit{Scale: 1}

func (u Unit) mul(o Unit) Unit {
	out := Unit{Scale: u.Scale * o.Scale}
	for i := range out.dim {
		out.dim[i] = u.dim[i] + o.dim[i]
	}
	return out
}

func (u Unit) pow(p int) Unit {
	out := Unit{Scale: math.Pow(u.Scale, float64(p))}
	for i := range out.dim {
		out.dim[i] = u.dim[i] * p
	}
	return out
}

// Compatible reports whether both units measure the same dimension
func (u Unit) Compatible(o Unit) bool { return u.dim == o.dim }

// Dimensionless is true for pure numbers (and angles)
func (u Unit) Dimensionless() bool { return u.dim == dimension{} }

// IsTime reports whether the unit measures time
func (u Unit) IsTime() bool {
	var d dimension
	d[duration] = 1
	return u.dim == d
}

// Quantity is a magnitude attached to a unit, eg "10 m"
type Quantity struct {
	Magnitude float64
	Unit      Unit
	Text      string
}

// SI returns the quantity expressed in SI base units
func (q Quantity) SI() float64 { return q.Magnitude * q.Unit.Scale }

type entry struct {
	unit     Unit
	prefixed bool
}

func base(i int) Unit {
	u := Unit{Scale: 1}
	u.dim[i] = 1
	return u
}

func derived(scale float64, exps map[int]int) Unit {
	u := Unit{Scale: scale}
	for k, v := range exps {
		u.dim[k] = v
	}
	return u
}

var registry = map[string]entry{
	"m":        {base(length), true},
	"meter":    {base(length), false},
	"meters":   {base(length), false},
	"metre":    {base(length), false},
	"ft":       {derived(0.3048, map[int]int{length: 1}), false},
	"foot":     {derived(0.3048, map[int]int{length: 1}), false},
	"feet":     {derived(0.3048, map[int]int{length: 1}), false},
	"in":       {derived(0.0254, map[int]int{length: 1}), false},
	"inch":     {derived(0.0254, map[int]int{length: 1}), false},
	"yd":       {derived(0.9144, map[int]int{length: 1}), false},
	"mi":       {derived(1609.344, map[int]int{length: 1}), false},
	"mile":     {derived(1609.344, map[int]int{length: 1}), false},
	"furlong":  {derived(201.168, map[int]int{length: 1}), false},
	"furlongs": {derived(201.168, map[int]int{length: 1}), false},
	"g":        {derived(1e-3, map[int]int{mass: 1}), true},
	"gram":     {derived(1e-3, map[int]int{mass: 1}), false},
	"s":        {base(duration), true},
	"sec":      {base(duration), false},
	"second":   {base(duration), false},
	"seconds":  {base(duration), false},
	"min":      {derived(60, map[int]int{duration: 1}), false},
	"minute":   {derived(60, map[int]int{duration: 1}), false},
	"h":        {derived(3600, map[int]int{duration: 1}), false},
	"hr":       {derived(3600, map[int]int{duration: 1}), false},
	"hour":     {derived(3600, map[int]int{duration: 1}), false},
	"day":      {derived(86400, map[int]int{duration: 1}), false},
	"Hz":       {derived(1, map[int]int{duration: -1}), true},
	"A":        {base(current), true},
	"K":        {base(temperature), true},
	"mol":      {base(amount), true},
	"cd":       {base(luminosity), true},
	"N":        {derived(1, map[int]int{mass: 1, length: 1, duration: -2}), true},
	"Pa":       {derived(1, map[int]int{mass: 1, length: -1, duration: -2}), true},
	"J":        {derived(1, map[int]int{mass: 1, length: 2, duration: -2}), true},
	"W":        {derived(1, map[int]int{mass: 1, length: 2, duration: -3}), true},
	"V":        {derived(1, map[int]int{mass: 1, length: 2, duration: -3, current: -1}), true},
	"rad":      {one, true},
	"radian":   {one, false},
	"deg":      {Unit{Scale: math.Pi / 180}, false},
	"degree":   {Unit{Scale: math.Pi / 180}, false},
	"strain":   {one, false},
	"percent":  {Unit{Scale: 0.01}, false},
}

var prefixes = []struct {
	symbol string
	scale  float64
}{
	// longest first so "da" wins over "d"
	{"da", 1e1},
	{"Y", 1e24}, {"Z", 1e21}, {"E", 1e18}, {"P", 1e15}, {"T", 1e12},
	{"G", 1e9}, {"M", 1e6}, {"k", 1e3}, {"h", 1e2},
	{"d", 1e-1}, {"c", 1e-2}, {"m", 1e-3}, {"u", 1e-6}, {"µ", 1e-6},
	{"μ", 1e-6}, {"n", 1e-9}, {"p", 1e-12}, {"f", 1e-15}, {"a", 1e-18},
}

func lookup(name string) (Unit, error) {
	if e, ok := registry[name]; ok {
		return e.unit, nil
	}
	for _, p := range prefixes {
		if !strings.HasPrefix(name, p.symbol) {
			continue
		}
		if e, ok := registry[strings.TrimPrefix(name, p.symbol)]; ok && e.prefixed {
			u := e.unit
			u.Scale *= p.scale
			return u, nil
		}
	}
	return Unit{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Parse reads a unit or quantity string. An empty string is dimensionless.
func Parse(s string) (Quantity, error) {
	text := strings.TrimSpace(s)
	q := Quantity{Magnitude: 1, Unit: one, Text: text}
	if text == "" {
		return q, nil
	}
	rest := text
	if mag, tail, ok := leadingNumber(text); ok {
		q.Magnitude = mag
		rest = strings.TrimSpace(tail)
	}
	u, err := parseExpr(rest)
	if err != nil {
		return Quantity{}, err
	}
	q.Unit = u
	return q, nil
}

// leadingNumber splits a numeric prefix off s
func leadingNumber(s string) (float64, string, bool) {
	end := 0
	for end < len(s) && strings.ContainsRune("+-0123456789.eE", rune(s[end])) {
		end++
	}
	for ; end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f, s[end:], true
		}
	}
	return 0, s, false
}

// parseExpr reads products and quotients of unit names evaluated left to
// right; a "/" applies to the next factor only, as in "m/s*kg".
func parseExpr(expr string) (Unit, error) {
	u := one
	divide := false
	rs := []rune(expr)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r) || r == '·':
			i++
		case r == '*' && (i+1 >= len(rs) || rs[i+1] != '*'):
			i++
		case r == '/':
			if divide {
				return Unit{}, fmt.Errorf("%w: %q", ErrSyntax, expr)
			}
			divide = true
			i++
		case unicode.IsLetter(r):
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || rs[i] == '_') {
				i++
			}
			name := string(rs[start:i])
			exp, n, err := readExponent(rs[i:])
			if err != nil {
				return Unit{}, fmt.Errorf("%w: %q", ErrSyntax, expr)
			}
			i += n
			factor, err := lookup(name)
			if err != nil {
				return Unit{}, err
			}
			if divide {
				exp = -exp
				divide = false
			}
			u = u.mul(factor.pow(exp))
		case r == '1':
			// "1/s" style reciprocals
			i++
		default:
			return Unit{}, fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, r, expr)
		}
	}
	if divide {
		return Unit{}, fmt.Errorf("%w: trailing '/' in %q", ErrSyntax, expr)
	}
	return u, nil
}

// readExponent reads "^2", "**-1" or a bare trailing integer
func readExponent(rs []rune) (exp, consumed int, err error) {
	i := 0
	switch {
	case len(rs) >= 2 && rs[0] == '*' && rs[1] == '*':
		i = 2
	case len(rs) >= 1 && rs[0] == '^':
		i = 1
	}
	start := i
	if i < len(rs) && (rs[i] == '-' || rs[i] == '+') {
		i++
	}
	for i < len(rs) && unicode.IsDigit(rs[i]) {
		i++
	}
	if i == start {
		if start > 0 {
			return 0, 0, ErrSyntax
		}
		return 1, 0, nil
	}
	exp, err = strconv.Atoi(string(rs[start:i]))
	if err != nil {
		return 0, 0, err
	}
	return exp, i, nil
}

// Factor returns the number that multiplies a value in from to express it
// in to, eg. Factor("m", "mm") == 1000.
func Factor(from, to string) (float64, error) {
	qf, err := Parse(from)
	if err != nil {
		return 0, err
	}
	qt, err := Parse(to)
	if err != nil {
		return 0, err
	}
	if !qf.Unit.Compatible(qt.Unit) {
		return 0, fmt.Errorf("%w: %q and %q", ErrIncompatible, from, to)
	}
	return qf.SI() / qt.SI(), nil
}

// Convert expresses value, measured in from, in units of to
func Convert(value float64, from, to string) (float64, error) {
	f, err := Factor(from, to)
	if err != nil {
		return 0, err
	}
	return value * f, nil
}

// ConvertInverse expresses the reciprocal of value, measured in from, in
// units of to. from must measure the inverse dimension of to, eg. a 10 Hz
// value is 0.1 in "s". A zero value gives +Inf.
func ConvertInverse(value float64, from, to string) (float64, error) {
	qf, err := Parse(from)
	if err != nil {
		return 0, err
	}
	qt, err := Parse(to)
	if err != nil {
		return 0, err
	}
	if !qf.Unit.pow(-1).Compatible(qt.Unit) {
		return 0, fmt.Errorf("%w: %q isn't the inverse of %q", ErrIncompatible, from, to)
	}
	return 1 / (value * qf.SI() * qt.SI()), nil
}

// Equivalent reports whether two unit strings describe the same quantity,
// eg. "m" and "meter" or "1000 m" and "km".
func Equivalent(a, b string) bool {
	if a == b {
		return true
	}
	f, err := Factor(a, b)
	if err != nil {
		return false
	}
	return math.Abs(f-1) < 1e-12
}
