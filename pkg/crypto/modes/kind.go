package modes

import (
	"fmt"
	"strings"
)

// Kind is one of the seven supported modes of operation.
type Kind uint8

const (
	ECB Kind = iota
	CBC
	PCBC
	CFB
	OFB
	CTR
	// RandomDelta masks every block with fresh random bytes and emits the
	// mask in front of the ciphertext block.
	RandomDelta
)

// Kinds lists every mode in declaration order.
var Kinds = []Kind{ECB, CBC, PCBC, CFB, OFB, CTR, RandomDelta}

var kindNames = [...]string{
	ECB:         "ecb",
	CBC:         "cbc",
	PCBC:        "pcbc",
	CFB:         "cfb",
	OFB:         "ofb",
	CTR:         "ctr",
	RandomDelta: "randomdelta",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) valid() bool { return int(k) < len(kindNames) }

// ParseKind returns the mode with the given name, ignoring case. "random-delta"
// and "random_delta" are accepted for RandomDelta.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	for k, n := range kindNames {
		if n == key {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// IVSize is the required IV length in bytes: a full block for the feedback
// modes, half a block (the nonce) for CTR and zero when no IV is used.
func (k Kind) IVSize() int {
	switch k {
	case CBC, PCBC, CFB, OFB:
		return BlockSize
	case CTR:
		return BlockSize / 2
	default:
		return 0
	}
}

// Padded reports whether the mode pads plaintext to whole blocks.
func (k Kind) Padded() bool {
	switch k {
	case ECB, CBC, PCBC, RandomDelta:
		return true
	default:
		return false
	}
}

// Symmetric reports whether decryption is the same operation as encryption.
func (k Kind) Symmetric() bool { return k == OFB || k == CTR }

// BlockIndependent reports whether each block can be processed without the
// others, which is what the parallel dispatcher requires.
func (k Kind) BlockIndependent() bool { return k == ECB || k == CTR }
