// Package mnemonic converts cipher keys to and from BIP-39 word phrases so a
// key can be written down or read aloud.
package mnemonic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrKeySize is returned for keys other than 16, 24 or 32 bytes.
	ErrKeySize = errors.New("mnemonic: key must be 16, 24 or 32 bytes")
	// ErrInvalid is returned for phrases with unknown words or a bad checksum.
	ErrInvalid = errors.New("mnemonic: invalid phrase")
)

// FromKey returns the 12, 18 or 24 word phrase encoding key.
func FromKey(key []byte) (string, error) {
	if !validKeySize(len(key)) {
		return "", fmt.Errorf("%w: got %d", ErrKeySize, len(key))
	}
	words, err := bip39.NewMnemonic(key)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic from key: %w", err)
	}
	return words, nil
}

// ToKey decodes a phrase produced by FromKey. Extra whitespace and letter
// case are ignored.
func ToKey(phrase string) ([]byte, error) {
	phrase = Normalize(phrase)
	if n := WordCount(phrase); n != 12 && n != 18 && n != 24 {
		return nil, fmt.Errorf("%w: %d words, want 12, 18 or 24", ErrInvalid, n)
	}

	key, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return key, nil
}

// NewKey returns a random key of the given size in bits (128, 192 or 256).
func NewKey(bits int) ([]byte, error) {
	if !validKeySize(bits / 8) || bits%8 != 0 {
		return nil, fmt.Errorf("%w: got %d bits", ErrKeySize, bits)
	}
	key, err := bip39.NewEntropy(bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Normalize lowercases the phrase and collapses runs of whitespace.
func Normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// WordCount returns the number of words in phrase.
func WordCount(phrase string) int {
	return len(strings.Fields(phrase))
}

func validKeySize(n int) bool {
	return n == 16 || n == 24 || n == 32
}
