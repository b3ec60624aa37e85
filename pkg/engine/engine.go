// Package engine wires the cipher, a mode of operation and the parallel
// dispatcher into a single object configured by an explicit Options record.
package engine

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Davincible/twofish/pkg/crypto/gf256"
	"github.com/Davincible/twofish/pkg/crypto/modes"
	"github.com/Davincible/twofish/pkg/crypto/padding"
	"github.com/Davincible/twofish/pkg/crypto/twofish"
	"github.com/Davincible/twofish/pkg/parallel"
	"github.com/Davincible/twofish/pkg/secure"
	"golang.org/x/crypto/blake2b"
)

// KeyCheckSize is the number of digest bytes kept in a key check value.
const KeyCheckSize = 4

// Options configures an Engine. Zero values for Polynomial, Threads and
// SegmentSize select the defaults.
type Options struct {
	Key         []byte
	Mode        modes.Kind
	Padding     padding.Scheme
	Polynomial  uint16
	Threads     int
	SegmentSize int
	// Sequential keeps ECB and CTR on the calling goroutine.
	Sequential bool
	Logger     *slog.Logger
	// Random is the source of IVs and RandomDelta masks. Nil means crypto/rand.
	Random io.Reader
}

// DefaultOptions returns CBC with PKCS#7 over the Rijndael polynomial on four
// threads. The caller still has to set Key.
func DefaultOptions() Options {
	return Options{
		Mode:        modes.CBC,
		Padding:     padding.PKCS7,
		Polynomial:  gf256.DefaultPolynomial,
		Threads:     parallel.DefaultWorkers,
		SegmentSize: modes.BlockSize,
	}
}

// Engine encrypts and decrypts whole buffers. It is safe for concurrent use
// until Close is called.
type Engine struct {
	cipher     *twofish.Cipher
	mode       *modes.Mode
	dispatcher *parallel.Dispatcher
	logger     *slog.Logger
	random     io.Reader
	parallel   bool
	keyCheck   string
	closed     atomic.Bool
}

// New expands the key once and builds the mode and dispatcher. The engine
// does not keep a reference to opts.Key.
func New(opts Options) (*Engine, error) {
	if opts.Polynomial == 0 {
		opts.Polynomial = gf256.DefaultPolynomial
	}
	if opts.SegmentSize == 0 {
		opts.SegmentSize = modes.BlockSize
	}
	if opts.Threads <= 0 {
		opts.Threads = parallel.DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c, err := twofish.NewCipher(opts.Key, opts.Polynomial)
	if err != nil {
		return nil, err
	}

	mode, err := modes.New(opts.Mode, c,
		modes.WithPadding(opts.Padding),
		modes.WithSegmentSize(opts.SegmentSize),
		modes.WithRandom(opts.Random))
	if err != nil {
		c.Reset()
		return nil, err
	}

	e := &Engine{
		cipher:     c,
		mode:       mode,
		dispatcher: parallel.New(opts.Threads, parallel.WithLogger(logger)),
		logger:     logger,
		random:     opts.Random,
		parallel:   opts.Mode.BlockIndependent() && opts.Threads > 1 && !opts.Sequential,
	}
	e.keyCheck = computeKeyCheck(c)

	logger.Debug("engine ready",
		"mode", opts.Mode,
		"padding", opts.Padding,
		"polynomial", fmt.Sprintf("%#x", opts.Polynomial),
		"key_bits", 8*len(opts.Key),
		"threads", opts.Threads,
		"parallel", e.parallel)

	return e, nil
}

// Mode returns the configured mode of operation.
func (e *Engine) Mode() modes.Kind { return e.mode.Kind() }

// Padding returns the configured padding scheme.
func (e *Engine) Padding() padding.Scheme { return e.mode.Padding() }

// Polynomial returns the MDS field modulus.
func (e *Engine) Polynomial() uint16 { return e.cipher.Polynomial() }

// SegmentSize returns the CFB segment size.
func (e *Engine) SegmentSize() int { return e.mode.SegmentSize() }

// Parallel reports whether Encrypt and Decrypt use the dispatcher.
func (e *Engine) Parallel() bool { return e.parallel }

// Encrypt encrypts data with iv, which must match the mode's IV size.
func (e *Engine) Encrypt(data, iv []byte) ([]byte, error) {
	return e.run("encrypt", data, iv, e.mode.Encrypt, e.mode.EncryptParallel)
}

// Decrypt decrypts data with the iv used to encrypt it.
func (e *Engine) Decrypt(data, iv []byte) ([]byte, error) {
	return e.run("decrypt", data, iv, e.mode.Decrypt, e.mode.DecryptParallel)
}

func (e *Engine) run(
	op string,
	data, iv []byte,
	seq func(data, iv []byte) ([]byte, error),
	par func(d *parallel.Dispatcher, data, iv []byte) ([]byte, error),
) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	var (
		out []byte
		err error
	)
	if e.parallel {
		out, err = par(e.dispatcher, data, iv)
	} else {
		out, err = seq(data, iv)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %v: %w", op, e.mode.Kind(), err)
	}

	e.logger.Debug("operation complete",
		"operation", op,
		"mode", e.mode.Kind(),
		"input_bytes", len(data),
		"output_bytes", len(out),
		"parallel", e.parallel,
		"elapsed", time.Since(start))

	return out, nil
}

// GenerateIV returns a fresh random IV or nonce of the size the mode needs,
// or nil for modes without one.
func (e *Engine) GenerateIV() ([]byte, error) {
	n := e.mode.Kind().IVSize()
	if n == 0 {
		return nil, nil
	}
	iv := make([]byte, n)
	if err := secure.FillRandom(e.random, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// KeyCheck identifies the key and polynomial without revealing either: the
// hex of the first KeyCheckSize bytes of BLAKE2b-256 over the big-endian
// polynomial followed by the encryption of an all-zero block. It is not a
// MAC and says nothing about the integrity of any ciphertext.
func (e *Engine) KeyCheck() string { return e.keyCheck }

// VerifyKeyCheck returns ErrKeyMismatch unless check equals KeyCheck.
func (e *Engine) VerifyKeyCheck(check string) error {
	if !secure.ConstantTimeCompare([]byte(check), []byte(e.keyCheck)) {
		return fmt.Errorf("%w: have %s, want %s", ErrKeyMismatch, e.keyCheck, check)
	}
	return nil
}

// Close wipes the expanded key. Later calls to Encrypt or Decrypt return
// ErrClosed.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.cipher.Reset()
	return nil
}

func computeKeyCheck(c *twofish.Cipher) string {
	var zero, block [twofish.BlockSize]byte
	c.Encrypt(block[:], zero[:])

	poly := c.Polynomial()
	input := append([]byte{byte(poly >> 8), byte(poly)}, block[:]...)
	sum := blake2b.Sum256(input)
	secure.ZeroAll(block[:], input)

	return hex.EncodeToString(sum[:KeyCheckSize])
}
