package padding

import "errors"

var (
	// ErrUnknownScheme is returned for a scheme name or value that is not supported.
	ErrUnknownScheme = errors.New("padding: unknown scheme")

	// ErrLength is returned when padded data is not a whole number of blocks.
	ErrLength = errors.New("padding: data length is not a multiple of the block size")

	// ErrPadding is returned when the trailer or filler bytes are malformed.
	ErrPadding = errors.New("padding: invalid padding")
)
