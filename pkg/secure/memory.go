// Package secure holds helpers for handling key material: wiping buffers,
// drawing from the system CSPRNG and comparing secrets in constant time.
package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroAll wipes every buffer in bufs.
func ZeroAll(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}

// SecureRandom returns size bytes from crypto/rand.
func SecureRandom(size int) ([]byte, error) {
	b := make([]byte, size)
	if err := FillRandom(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// FillRandom fills b from r, or from crypto/rand when r is nil. On failure b
// is wiped so no partial randomness is left behind.
func FillRandom(r io.Reader, b []byte) error {
	if r == nil {
		r = rand.Reader
	}
	if _, err := io.ReadFull(r, b); err != nil {
		Zero(b)
		return fmt.Errorf("failed to generate secure random bytes: %w", err)
	}
	return nil
}

// ConstantTimeCompare reports whether x and y are equal without leaking
// where they differ.
func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}
