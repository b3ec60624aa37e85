package modes

import "errors"

var (
	// ErrUnknownMode is returned for a mode name or Kind that is not supported.
	ErrUnknownMode = errors.New("modes: unknown mode")

	// ErrIVLength is returned when the IV or nonce is missing or has the wrong
	// length for the mode.
	ErrIVLength = errors.New("modes: invalid IV length")

	// ErrLength is returned when ciphertext is not a whole number of blocks
	// for a mode that requires it.
	ErrLength = errors.New("modes: input length is not a multiple of the block size")

	// ErrSegmentSize is returned for a CFB segment size outside 1..BlockSize.
	ErrSegmentSize = errors.New("modes: CFB segment size must be between 1 and 16")

	// ErrBlockSize is returned when the underlying cipher does not use 16-byte blocks.
	ErrBlockSize = errors.New("modes: cipher block size must be 16 bytes")

	// ErrChained is returned when a mode with cross-block feedback is asked to
	// run on the parallel dispatcher.
	ErrChained = errors.New("modes: mode chains blocks and cannot run in parallel")
)
