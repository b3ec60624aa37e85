package twofish

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrBlockSize is returned when a single-block operation gets an input that
// is not exactly BlockSize bytes.
var ErrBlockSize = errors.New("twofish: input must be exactly 16 bytes")

// KeySizeError reports a key length other than 16, 24 or 32 bytes.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "twofish: invalid key size " + strconv.Itoa(int(k)) + ", must be 16, 24 or 32 bytes"
}

func blockSizeError(n int) error {
	return fmt.Errorf("%w: got %d", ErrBlockSize, n)
}
