package coords

import "errors"

var (
	// ErrCoord is returned when a coordinate or manager would end up in an
	// inconsistent state: unknown dimensions, mismatched shapes, malformed
	// nested specs, bad transpose permutations or colliding names.
	ErrCoord = errors.New("coordinate error")
	// ErrParameter is returned for malformed query or limit arguments.
	ErrParameter = errors.New("parameter error")
	// ErrUnit is returned when units can't be parsed or converted
	ErrUnit = errors.New("unit error")
)
