// Package twofish implements a 128-bit block cipher with the Twofish
// structure: a 16-round Feistel network whose g-function mixes key-dependent
// q-permutations through an MDS matrix over GF(2^8), with a 40-word subkey
// schedule built from the same h-function.
//
// The modulus of the MDS field is selectable from the gf256 allow-list, so a
// Cipher is identified by its key and its polynomial.
package twofish

import (
	"crypto/cipher"
	"encoding/binary"
	"math/bits"

	"github.com/Davincible/twofish/pkg/crypto/gf256"
)

const (
	// BlockSize is the cipher block size in bytes.
	BlockSize = 16
	// Rounds is the number of Feistel rounds.
	Rounds = 16
	// SubkeyCount is the number of 32-bit round keys: 4 input whitening,
	// 4 output whitening and 2 per round.
	SubkeyCount = 40

	rho = 0x01010101
)

// Cipher is an expanded key. It is read-only after NewCipher and may be
// shared by any number of goroutines.
type Cipher struct {
	field *gf256.Field
	me    []uint32
	mo    []uint32
	s     []uint32
	k     [SubkeyCount]uint32
}

var _ cipher.Block = (*Cipher)(nil)

// NewCipher expands key (16, 24 or 32 bytes) over the field with modulus poly.
func NewCipher(key []byte, poly uint16) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, KeySizeError(len(key))
	}

	field, err := gf256.New(poly)
	if err != nil {
		return nil, err
	}

	n := len(key) / 8
	c := &Cipher{
		field: field,
		me:    make([]uint32, n),
		mo:    make([]uint32, n),
		s:     make([]uint32, 2*n),
	}

	for i := 0; i < n; i++ {
		c.me[i] = binary.LittleEndian.Uint32(key[8*i:])
		c.mo[i] = binary.LittleEndian.Uint32(key[8*i+4:])
		c.s[2*i] = bits.ReverseBytes32(c.me[i])
		c.s[2*i+1] = bits.ReverseBytes32(c.mo[i])
	}

	for i := uint32(0); i < SubkeyCount/2; i++ {
		a := c.h(2*i*rho, c.me)
		b := bits.RotateLeft32(c.h((2*i+1)*rho, c.mo), 8)
		c.k[2*i] = a + b
		c.k[2*i+1] = bits.RotateLeft32(a+2*b, 9)
	}

	return c, nil
}

// BlockSize returns the cipher's block size.
func (c *Cipher) BlockSize() int { return BlockSize }

// Polynomial returns the modulus of the MDS field.
func (c *Cipher) Polynomial() uint16 { return c.field.Polynomial() }

// Subkeys returns a copy of the round-key schedule.
func (c *Cipher) Subkeys() [SubkeyCount]uint32 { return c.k }

// SBoxKey returns a copy of the S-box key material.
func (c *Cipher) SBoxKey() []uint32 {
	out := make([]uint32, len(c.s))
	copy(out, c.s)
	return out
}

// EncryptBlock encrypts exactly one block and returns the ciphertext in a
// new slice.
func (c *Cipher) EncryptBlock(src []byte) ([]byte, error) {
	if len(src) != BlockSize {
		return nil, blockSizeError(len(src))
	}
	dst := make([]byte, BlockSize)
	c.encrypt(dst, src)
	return dst, nil
}

// DecryptBlock decrypts exactly one block and returns the plaintext in a new
// slice.
func (c *Cipher) DecryptBlock(src []byte) ([]byte, error) {
	if len(src) != BlockSize {
		return nil, blockSizeError(len(src))
	}
	dst := make([]byte, BlockSize)
	c.decrypt(dst, src)
	return dst, nil
}

// Encrypt encrypts the first block of src into dst. dst and src may overlap
// entirely. It panics on short buffers, like the crypto/cipher block ciphers.
func (c *Cipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("twofish: input not full block")
	}
	if len(dst) < BlockSize {
		panic("twofish: output not full block")
	}
	c.encrypt(dst, src)
}

// Decrypt decrypts the first block of src into dst.
func (c *Cipher) Decrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("twofish: input not full block")
	}
	if len(dst) < BlockSize {
		panic("twofish: output not full block")
	}
	c.decrypt(dst, src)
}

// Reset wipes the expanded key. The Cipher must not be used afterwards.
func (c *Cipher) Reset() {
	clear(c.me)
	clear(c.mo)
	clear(c.s)
	clear(c.k[:])
}

func (c *Cipher) encrypt(dst, src []byte) {
	x0 := binary.LittleEndian.Uint32(src[0:]) ^ c.k[0]
	x1 := binary.LittleEndian.Uint32(src[4:]) ^ c.k[1]
	x2 := binary.LittleEndian.Uint32(src[8:]) ^ c.k[2]
	x3 := binary.LittleEndian.Uint32(src[12:]) ^ c.k[3]

	for r := 0; r < Rounds; r++ {
		t0 := c.h(x0, c.s)
		t1 := c.h(x1, c.s)
		x2 = bits.RotateLeft32(x2^(t0+t1+c.k[2*r+8]), -1)
		x3 = bits.RotateLeft32(x3, 1) ^ (t0 + 2*t1 + c.k[2*r+9])
		x0, x1, x2, x3 = x2, x3, x0, x1
	}

	// Undo the last swap.
	x0, x1, x2, x3 = x2, x3, x0, x1

	binary.LittleEndian.PutUint32(dst[0:], x0^c.k[4])
	binary.LittleEndian.PutUint32(dst[4:], x1^c.k[5])
	binary.LittleEndian.PutUint32(dst[8:], x2^c.k[6])
	binary.LittleEndian.PutUint32(dst[12:], x3^c.k[7])
}

func (c *Cipher) decrypt(dst, src []byte) {
	x2 := binary.LittleEndian.Uint32(src[0:]) ^ c.k[4]
	x3 := binary.LittleEndian.Uint32(src[4:]) ^ c.k[5]
	x0 := binary.LittleEndian.Uint32(src[8:]) ^ c.k[6]
	x1 := binary.LittleEndian.Uint32(src[12:]) ^ c.k[7]

	for r := Rounds - 1; r >= 0; r-- {
		x0, x1, x2, x3 = x2, x3, x0, x1
		t0 := c.h(x0, c.s)
		t1 := c.h(x1, c.s)
		x3 = bits.RotateLeft32(x3^(t0+2*t1+c.k[2*r+9]), -1)
		x2 = bits.RotateLeft32(x2, 1) ^ (t0 + t1 + c.k[2*r+8])
	}

	binary.LittleEndian.PutUint32(dst[0:], x0^c.k[0])
	binary.LittleEndian.PutUint32(dst[4:], x1^c.k[1])
	binary.LittleEndian.PutUint32(dst[8:], x2^c.k[2])
	binary.LittleEndian.PutUint32(dst[12:], x3^c.k[3])
}

// h runs the bytes of x through the q-permutations once, then once more
// after XOR with each word of l in order, and multiplies the result by MDS.
func (c *Cipher) h(x uint32, l []uint32) uint32 {
	y := [4]byte{
		q0[byte(x)],
		q1[byte(x>>8)],
		q0[byte(x>>16)],
		q1[byte(x>>24)],
	}
	for _, k := range l {
		y[0] = q0[y[0]^byte(k)]
		y[1] = q1[y[1]^byte(k>>8)]
		y[2] = q0[y[2]^byte(k>>16)]
		y[3] = q1[y[3]^byte(k>>24)]
	}

	var out uint32
	for i := 0; i < 4; i++ {
		var z byte
		for j := 0; j < 4; j++ {
			z ^= c.field.Mul(mds[i][j], y[j])
		}
		out |= uint32(z) << (8 * i)
	}
	return out
}
