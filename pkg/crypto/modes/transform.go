package modes

import (
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/Davincible/twofish/pkg/parallel"
)

// chunkBlocks is the number of cipher blocks handed to one dispatcher task.
const chunkBlocks = 256

var (
	_ parallel.Independent = (*ECBTransform)(nil)
	_ parallel.Independent = (*CTRTransform)(nil)
)

// ECBTransform encrypts or decrypts whole blocks independently. It does not
// pad; callers pad before encrypting and unpad after decrypting.
type ECBTransform struct {
	block   cipher.Block
	decrypt bool
}

// NewECBTransform returns the ECB block transform in the given direction.
func NewECBTransform(block cipher.Block, decrypt bool) *ECBTransform {
	return &ECBTransform{block: block, decrypt: decrypt}
}

// ChunkSize implements parallel.Independent.
func (t *ECBTransform) ChunkSize() int { return chunkBlocks * BlockSize }

// TransformChunk implements parallel.Independent. src must be whole blocks.
func (t *ECBTransform) TransformChunk(_ int, dst, src []byte) error {
	if len(src)%BlockSize != 0 {
		return lengthError(ECB, len(src), BlockSize)
	}
	for off := 0; off < len(src); off += BlockSize {
		if t.decrypt {
			t.block.Decrypt(dst[off:], src[off:])
		} else {
			t.block.Encrypt(dst[off:], src[off:])
		}
	}
	return nil
}

// CTRTransform xors data with the encryption of nonce || counter, where the
// counter is a big-endian uint64 equal to the block index, starting at 0.
// The transform is its own inverse.
type CTRTransform struct {
	block cipher.Block
	nonce [BlockSize / 2]byte
}

// NewCTRTransform returns a CTR transform for an 8-byte nonce.
func NewCTRTransform(block cipher.Block, nonce []byte) (*CTRTransform, error) {
	if len(nonce) != BlockSize/2 {
		return nil, fmt.Errorf("%w: ctr needs %d bytes, got %d", ErrIVLength, BlockSize/2, len(nonce))
	}
	t := &CTRTransform{block: block}
	copy(t.nonce[:], nonce)
	return t, nil
}

// ChunkSize implements parallel.Independent.
func (t *CTRTransform) ChunkSize() int { return chunkBlocks * BlockSize }

// TransformChunk implements parallel.Independent. The counter of the first
// block in chunk index is index*chunkBlocks, so chunks can run in any order.
// A short final chunk uses only as much keystream as it needs.
func (t *CTRTransform) TransformChunk(index int, dst, src []byte) error {
	var counterBlock, keystream [BlockSize]byte
	copy(counterBlock[:], t.nonce[:])
	counter := uint64(index) * chunkBlocks

	for off := 0; off < len(src); off += BlockSize {
		binary.BigEndian.PutUint64(counterBlock[BlockSize/2:], counter)
		t.block.Encrypt(keystream[:], counterBlock[:])
		subtle.XORBytes(dst[off:], src[off:], keystream[:])
		counter++
	}
	return nil
}
