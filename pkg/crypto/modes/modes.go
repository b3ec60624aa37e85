// Package modes turns a 16-byte block cipher into whole-buffer encryption
// with one of seven modes of operation: ECB, CBC, PCBC, CFB, OFB, CTR and
// RandomDelta.
//
// A Mode keeps no feedback state between calls. Registers, previous blocks
// and counters live only for the duration of one Encrypt or Decrypt, so a
// single Mode can serve concurrent calls.
package modes

import (
	"crypto/cipher"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/Davincible/twofish/pkg/crypto/padding"
	"github.com/Davincible/twofish/pkg/parallel"
	"github.com/Davincible/twofish/pkg/secure"
)

// BlockSize is the only block size the modes support.
const BlockSize = 16

// Mode binds a Kind to a block cipher and its parameters.
type Mode struct {
	kind    Kind
	block   cipher.Block
	padding padding.Scheme
	segment int
	random  io.Reader
}

// Option configures a Mode.
type Option func(*Mode)

// WithPadding sets the padding scheme for ECB, CBC, PCBC and RandomDelta.
// The default is PKCS#7.
func WithPadding(s padding.Scheme) Option {
	return func(m *Mode) { m.padding = s }
}

// WithSegmentSize sets the CFB segment size in bytes. The default is a full block.
func WithSegmentSize(n int) Option {
	return func(m *Mode) { m.segment = n }
}

// WithRandom sets the source of RandomDelta masks. The default is crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(m *Mode) { m.random = r }
}

// New returns a Mode of the given kind over block.
func New(kind Kind, block cipher.Block, opts ...Option) (*Mode, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, kind)
	}
	if block.BlockSize() != BlockSize {
		return nil, fmt.Errorf("%w: got %d", ErrBlockSize, block.BlockSize())
	}

	m := &Mode{
		kind:    kind,
		block:   block,
		padding: padding.PKCS7,
		segment: BlockSize,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.segment < 1 || m.segment > BlockSize {
		return nil, fmt.Errorf("%w: got %d", ErrSegmentSize, m.segment)
	}
	if !m.padding.Valid() {
		return nil, fmt.Errorf("%w: %v", padding.ErrUnknownScheme, m.padding)
	}

	return m, nil
}

// Kind returns the mode's kind.
func (m *Mode) Kind() Kind { return m.kind }

// Padding returns the padding scheme used by padded kinds.
func (m *Mode) Padding() padding.Scheme { return m.padding }

// SegmentSize returns the CFB segment size.
func (m *Mode) SegmentSize() int { return m.segment }

// Encrypt encrypts data. iv must have Kind().IVSize() bytes; it is ignored
// by ECB and RandomDelta. The input is never modified.
func (m *Mode) Encrypt(data, iv []byte) ([]byte, error) {
	if err := m.checkIV(iv); err != nil {
		return nil, err
	}

	switch m.kind {
	case ECB:
		padded, err := m.pad(data)
		if err != nil {
			return nil, err
		}
		return parallel.RunSequential(NewECBTransform(m.block, false), padded)
	case CBC:
		return m.encryptCBC(data, iv)
	case PCBC:
		return m.encryptPCBC(data, iv)
	case CFB:
		return m.cfb(data, iv, false), nil
	case OFB:
		return m.ofb(data, iv), nil
	case CTR:
		t, err := NewCTRTransform(m.block, iv)
		if err != nil {
			return nil, err
		}
		return parallel.RunSequential(t, data)
	case RandomDelta:
		return m.encryptRandomDelta(data)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMode, m.kind)
}

// Decrypt reverses Encrypt with the same iv. For OFB and CTR it is the same
// operation as Encrypt.
func (m *Mode) Decrypt(data, iv []byte) ([]byte, error) {
	if err := m.checkIV(iv); err != nil {
		return nil, err
	}

	switch m.kind {
	case ECB:
		if len(data)%BlockSize != 0 {
			return nil, lengthError(m.kind, len(data), BlockSize)
		}
		plain, err := parallel.RunSequential(NewECBTransform(m.block, true), data)
		if err != nil {
			return nil, err
		}
		return m.unpad(plain)
	case CBC:
		return m.decryptCBC(data, iv)
	case PCBC:
		return m.decryptPCBC(data, iv)
	case CFB:
		return m.cfb(data, iv, true), nil
	case OFB, CTR:
		return m.Encrypt(data, iv)
	case RandomDelta:
		return m.decryptRandomDelta(data)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMode, m.kind)
}

// EncryptParallel is Encrypt with the block work spread over d. Only
// block-independent kinds (ECB, CTR) are accepted; any other kind returns
// ErrChained before touching data. The output equals Encrypt's.
func (m *Mode) EncryptParallel(d *parallel.Dispatcher, data, iv []byte) ([]byte, error) {
	if !m.kind.BlockIndependent() {
		return nil, fmt.Errorf("%w: %v", ErrChained, m.kind)
	}
	if err := m.checkIV(iv); err != nil {
		return nil, err
	}

	if m.kind == CTR {
		t, err := NewCTRTransform(m.block, iv)
		if err != nil {
			return nil, err
		}
		return d.Run(t, data)
	}

	padded, err := m.pad(data)
	if err != nil {
		return nil, err
	}
	return d.Run(NewECBTransform(m.block, false), padded)
}

// DecryptParallel is Decrypt with the block work spread over d. See
// EncryptParallel.
func (m *Mode) DecryptParallel(d *parallel.Dispatcher, data, iv []byte) ([]byte, error) {
	if m.kind == CTR {
		return m.EncryptParallel(d, data, iv)
	}
	if !m.kind.BlockIndependent() {
		return nil, fmt.Errorf("%w: %v", ErrChained, m.kind)
	}

	if len(data)%BlockSize != 0 {
		return nil, lengthError(m.kind, len(data), BlockSize)
	}
	plain, err := d.Run(NewECBTransform(m.block, true), data)
	if err != nil {
		return nil, err
	}
	return m.unpad(plain)
}

func (m *Mode) checkIV(iv []byte) error {
	want := m.kind.IVSize()
	if want == 0 {
		return nil
	}
	if len(iv) != want {
		return fmt.Errorf("%w: %v needs %d bytes, got %d", ErrIVLength, m.kind, want, len(iv))
	}
	return nil
}

func (m *Mode) pad(data []byte) ([]byte, error) {
	return padding.Pad(data, BlockSize, m.padding)
}

func (m *Mode) unpad(data []byte) ([]byte, error) {
	return padding.Unpad(data, BlockSize, m.padding)
}

func lengthError(k Kind, n, multiple int) error {
	return fmt.Errorf("%w: %v got %d bytes, need a multiple of %d", ErrLength, k, n, multiple)
}

func (m *Mode) encryptCBC(data, iv []byte) ([]byte, error) {
	padded, err := m.pad(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(padded))
	var prev, buf [BlockSize]byte
	copy(prev[:], iv)

	for off := 0; off < len(padded); off += BlockSize {
		subtle.XORBytes(buf[:], padded[off:off+BlockSize], prev[:])
		m.block.Encrypt(out[off:], buf[:])
		copy(prev[:], out[off:off+BlockSize])
	}
	return out, nil
}

func (m *Mode) decryptCBC(data, iv []byte) ([]byte, error) {
	if len(data)%BlockSize != 0 {
		return nil, lengthError(m.kind, len(data), BlockSize)
	}

	out := make([]byte, len(data))
	var prev, buf [BlockSize]byte
	copy(prev[:], iv)

	for off := 0; off < len(data); off += BlockSize {
		m.block.Decrypt(buf[:], data[off:])
		subtle.XORBytes(out[off:], buf[:], prev[:])
		copy(prev[:], data[off:off+BlockSize])
	}
	return m.unpad(out)
}

// PCBC feeds P[i-1] xor C[i-1] into block i; the first block uses the IV.
func (m *Mode) encryptPCBC(data, iv []byte) ([]byte, error) {
	padded, err := m.pad(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(padded))
	var feedback, buf [BlockSize]byte
	copy(feedback[:], iv)

	for off := 0; off < len(padded); off += BlockSize {
		plain := padded[off : off+BlockSize]
		subtle.XORBytes(buf[:], plain, feedback[:])
		m.block.Encrypt(out[off:], buf[:])
		subtle.XORBytes(feedback[:], plain, out[off:off+BlockSize])
	}
	return out, nil
}

func (m *Mode) decryptPCBC(data, iv []byte) ([]byte, error) {
	if len(data)%BlockSize != 0 {
		return nil, lengthError(m.kind, len(data), BlockSize)
	}

	out := make([]byte, len(data))
	var feedback, buf [BlockSize]byte
	copy(feedback[:], iv)

	for off := 0; off < len(data); off += BlockSize {
		m.block.Decrypt(buf[:], data[off:])
		subtle.XORBytes(out[off:], buf[:], feedback[:])
		subtle.XORBytes(feedback[:], out[off:off+BlockSize], data[off:off+BlockSize])
	}
	return m.unpad(out)
}

// cfb shifts each ciphertext segment into the register, so the register
// input is the ciphertext in both directions.
func (m *Mode) cfb(data, iv []byte, decrypt bool) []byte {
	out := make([]byte, len(data))
	var register, keystream [BlockSize]byte
	copy(register[:], iv)
	s := m.segment

	for off := 0; off < len(data); off += s {
		end := min(off+s, len(data))
		m.block.Encrypt(keystream[:], register[:])
		subtle.XORBytes(out[off:end], data[off:end], keystream[:])

		if end-off < s {
			break
		}
		ct := out[off:end]
		if decrypt {
			ct = data[off:end]
		}
		copy(register[:], register[s:])
		copy(register[BlockSize-s:], ct)
	}
	return out
}

func (m *Mode) ofb(data, iv []byte) []byte {
	out := make([]byte, len(data))
	var register [BlockSize]byte
	copy(register[:], iv)

	for off := 0; off < len(data); off += BlockSize {
		m.block.Encrypt(register[:], register[:])
		subtle.XORBytes(out[off:], data[off:], register[:])
	}
	return out
}

// encryptRandomDelta emits mask || E(P xor mask) for every padded block.
func (m *Mode) encryptRandomDelta(data []byte) ([]byte, error) {
	padded, err := m.pad(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 2*len(padded))
	var buf [BlockSize]byte

	for off := 0; off < len(padded); off += BlockSize {
		mask := out[2*off : 2*off+BlockSize]
		if err := secure.FillRandom(m.random, mask); err != nil {
			return nil, err
		}
		subtle.XORBytes(buf[:], padded[off:off+BlockSize], mask)
		m.block.Encrypt(out[2*off+BlockSize:], buf[:])
	}
	return out, nil
}

func (m *Mode) decryptRandomDelta(data []byte) ([]byte, error) {
	if len(data)%(2*BlockSize) != 0 {
		return nil, lengthError(m.kind, len(data), 2*BlockSize)
	}

	out := make([]byte, len(data)/2)
	var buf [BlockSize]byte

	for off := 0; off < len(out); off += BlockSize {
		mask := data[2*off : 2*off+BlockSize]
		m.block.Decrypt(buf[:], data[2*off+BlockSize:])
		subtle.XORBytes(out[off:], buf[:], mask)
	}
	return m.unpad(out)
}
