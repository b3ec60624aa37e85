// Package padding implements the byte padding schemes used to fill the last
// block of block-chaining modes: zero fill, ANSI X9.23, PKCS#7 and ISO 10126.
//
// Padding is always added, so already aligned input grows by a full block.
package padding

import (
	"fmt"
	"strings"

	"github.com/Davincible/twofish/pkg/secure"
)

// Scheme selects a padding scheme.
type Scheme uint8

const (
	// Zeros appends zero bytes. Unpad strips every trailing zero byte, so
	// plaintext that itself ends in zero bytes does not survive a round
	// trip. Prefer a length-byte scheme for binary data.
	Zeros Scheme = iota
	// ANSIX923 appends zero bytes followed by the pad length.
	ANSIX923
	// PKCS7 appends the pad length repeated pad-length times.
	PKCS7
	// ISO10126 appends random bytes followed by the pad length.
	ISO10126
)

// Schemes lists every scheme in declaration order.
var Schemes = []Scheme{Zeros, ANSIX923, PKCS7, ISO10126}

var names = map[Scheme]string{
	Zeros:    "zeros",
	ANSIX923: "ansi_x923",
	PKCS7:    "pkcs7",
	ISO10126: "iso_10126",
}

func (s Scheme) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// Valid reports whether s is one of the declared schemes.
func (s Scheme) Valid() bool {
	_, ok := names[s]
	return ok
}

// Parse returns the scheme with the given name. Matching ignores case, and
// "-" is accepted in place of "_".
func Parse(name string) (Scheme, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for s, n := range names {
		if n == key || strings.ReplaceAll(n, "_", "") == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// Pad returns a new slice holding data followed by 1 to blockSize bytes of
// padding.
func Pad(data []byte, blockSize int, scheme Scheme) ([]byte, error) {
	if blockSize < 1 || blockSize > 255 {
		return nil, fmt.Errorf("padding: block size %d out of range", blockSize)
	}

	padLen := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	tail := out[len(data):]

	switch scheme {
	case Zeros:
	case ANSIX923:
		tail[padLen-1] = byte(padLen)
	case PKCS7:
		for i := range tail {
			tail[i] = byte(padLen)
		}
	case ISO10126:
		filler, err := secure.SecureRandom(padLen - 1)
		if err != nil {
			return nil, err
		}
		copy(tail, filler)
		tail[padLen-1] = byte(padLen)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}

	return out, nil
}

// Unpad strips the padding added by Pad. The result aliases data.
func Unpad(data []byte, blockSize int, scheme Scheme) ([]byte, error) {
	if blockSize < 1 || blockSize > 255 {
		return nil, fmt.Errorf("padding: block size %d out of range", blockSize)
	}
	if len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrLength, len(data), blockSize)
	}

	if scheme == Zeros {
		end := len(data)
		for end > 0 && data[end-1] == 0 {
			end--
		}
		return data[:end], nil
	}

	if !scheme.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no padding block", ErrLength)
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("%w: %v length byte %d", ErrPadding, scheme, padLen)
	}
	filler := data[len(data)-padLen : len(data)-1]

	switch scheme {
	case ANSIX923:
		for _, b := range filler {
			if b != 0 {
				return nil, fmt.Errorf("%w: ansi_x923 filler is not zero", ErrPadding)
			}
		}
	case PKCS7:
		for _, b := range filler {
			if int(b) != padLen {
				return nil, fmt.Errorf("%w: pkcs7 filler does not match length byte", ErrPadding)
			}
		}
	}

	return data[:len(data)-padLen], nil
}
