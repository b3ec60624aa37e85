package gf256

import "errors"

var (
	// ErrUnsupportedPolynomial is returned by New for a modulus outside Polynomials.
	ErrUnsupportedPolynomial = errors.New("gf256: unsupported modulus polynomial")

	// ErrDivideByZero is returned when dividing by, or inverting, zero.
	ErrDivideByZero = errors.New("gf256: division by zero")
)
