package validation

import (
	"strings"
	"testing"

	"github.com/Davincible/twofish/pkg/crypto/modes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHex(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"00ff", false},
		{"0xABcd", false},
		{"  0a0b  ", false},
		{"", true},
		{"0x", true},
		{"abc", true},
		{"zz", true},
		{"0a 0b", true},
	}

	for _, tt := range tests {
		err := ValidateHex(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "%q", tt.input)
		} else {
			assert.NoError(t, err, "%q", tt.input)
		}
	}
}

func TestDecodeHex(t *testing.T) {
	b, err := DecodeHex("0x0102ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 0xff}, b)
}

func TestValidateKeyHex(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		assert.NoError(t, ValidateKeyHex(strings.Repeat("ab", n)))
	}
	for _, n := range []int{1, 15, 17, 31, 64} {
		assert.Error(t, ValidateKeyHex(strings.Repeat("ab", n)))
	}
	assert.Error(t, ValidateKeyHex("not hex at all"))
}

func TestValidateIV(t *testing.T) {
	assert.NoError(t, ValidateIV(modes.CBC, make([]byte, 16)))
	assert.NoError(t, ValidateIV(modes.CTR, make([]byte, 8)))
	assert.NoError(t, ValidateIV(modes.ECB, nil))

	assert.Error(t, ValidateIV(modes.CBC, make([]byte, 8)))
	assert.Error(t, ValidateIV(modes.CTR, make([]byte, 16)))
	assert.Error(t, ValidateIV(modes.RandomDelta, make([]byte, 16)))
}

func TestValidateThreadsAndSegment(t *testing.T) {
	assert.NoError(t, ValidateThreads(1))
	assert.NoError(t, ValidateThreads(64))
	assert.Error(t, ValidateThreads(0))
	assert.Error(t, ValidateThreads(-3))

	assert.NoError(t, ValidateSegmentSize(1))
	assert.NoError(t, ValidateSegmentSize(16))
	assert.Error(t, ValidateSegmentSize(0))
	assert.Error(t, ValidateSegmentSize(17))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\nb\nc", SanitizeInput("  a \r\n b\r c  "))
}
