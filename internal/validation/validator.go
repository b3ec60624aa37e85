package validation

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/Davincible/twofish/pkg/crypto/modes"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// ValidateHex checks that input is a non-empty, even-length hex string. An
// optional 0x prefix is allowed.
func ValidateHex(input string) error {
	input = trimHex(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

// DecodeHex validates and decodes input.
func DecodeHex(input string) ([]byte, error) {
	if err := ValidateHex(input); err != nil {
		return nil, err
	}
	return hex.DecodeString(trimHex(input))
}

// ValidateKeyHex checks that input decodes to a 128, 192 or 256-bit key.
func ValidateKeyHex(input string) error {
	key, err := DecodeHex(input)
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("key must be 16, 24 or 32 bytes (got %d)", len(key))
	}
}

// ValidateIV checks an IV against the length the mode requires. Modes that
// take no IV accept only an empty value.
func ValidateIV(kind modes.Kind, iv []byte) error {
	want := kind.IVSize()
	if want == 0 {
		if len(iv) != 0 {
			return fmt.Errorf("mode %v does not take an IV", kind)
		}
		return nil
	}
	if len(iv) != want {
		return fmt.Errorf("mode %v needs a %d-byte IV (got %d)", kind, want, len(iv))
	}
	return nil
}

// ValidateThreads checks a worker count.
func ValidateThreads(n int) error {
	if n < 1 || n > 1024 {
		return fmt.Errorf("threads must be between 1 and 1024 (got %d)", n)
	}
	return nil
}

// ValidateSegmentSize checks a CFB segment size in bytes.
func ValidateSegmentSize(n int) error {
	if n < 1 || n > modes.BlockSize {
		return fmt.Errorf("segment size must be between 1 and %d (got %d)", modes.BlockSize, n)
	}
	return nil
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}

func trimHex(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return s
}
