package engine

import "errors"

var (
	// ErrKeyMismatch is returned when a stored key check value does not match
	// the engine's key and polynomial.
	ErrKeyMismatch = errors.New("engine: key check value does not match")

	// ErrClosed is returned by operations on an engine after Close.
	ErrClosed = errors.New("engine: closed")
)
