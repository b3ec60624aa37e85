package cli

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Davincible/twofish/internal/validation"
	"github.com/Davincible/twofish/pkg/config"
	"github.com/Davincible/twofish/pkg/engine"
	"github.com/Davincible/twofish/pkg/secure"
	"github.com/Davincible/twofish/pkg/storage"
	"github.com/spf13/cobra"
)

// cryptFlags are the flags shared by encrypt and decrypt. Empty values are
// filled from the config defaults.
type cryptFlags struct {
	input       string
	output      string
	key         string
	keyMnemonic string
	mode        string
	padding     string
	polynomial  string
	iv          string
	threads     int
	segmentSize int
	sequential  bool
	armor       bool
	envelope    bool
}

func (f *cryptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input file (default stdin)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&f.key, "key", "", "Key as hex (16, 24 or 32 bytes)")
	cmd.Flags().StringVar(&f.keyMnemonic, "key-mnemonic", "", "Key as a BIP-39 phrase")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Mode: ecb, cbc, pcbc, cfb, ofb, ctr, randomdelta")
	cmd.Flags().StringVar(&f.padding, "padding", "", "Padding: zeros, ansi_x923, pkcs7, iso_10126")
	cmd.Flags().StringVar(&f.polynomial, "polynomial", "", "MDS field polynomial as hex (e.g. 0x11b)")
	cmd.Flags().StringVar(&f.iv, "iv", "", "IV as hex (8-byte nonce for ctr)")
	cmd.Flags().IntVar(&f.threads, "threads", 0, "Worker threads for ecb and ctr")
	cmd.Flags().IntVar(&f.segmentSize, "segment-size", 0, "CFB segment size in bytes")
	cmd.Flags().BoolVar(&f.sequential, "sequential", false, "Disable parallel processing")
	cmd.Flags().BoolVar(&f.armor, "armor", false, "Base64 encode the ciphertext")
	cmd.Flags().BoolVar(&f.envelope, "envelope", false, "Wrap the ciphertext in a JSON envelope with its parameters")
}

// job builds a config job from the flags and fills the gaps from defaults.
func (f *cryptFlags) job(cmd *cobra.Command, operation string, m *config.Manager) *config.Job {
	job := &config.Job{
		Mode:        f.mode,
		Padding:     f.padding,
		Polynomial:  f.polynomial,
		IV:          f.iv,
		Threads:     f.threads,
		SegmentSize: f.segmentSize,
		Operation:   operation,
		Input:       f.input,
		Output:      f.output,
	}
	m.ApplyDefaults(job)

	d := m.Defaults()
	if !cmd.Flags().Changed("armor") {
		f.armor = d.Armor
	}
	if !cmd.Flags().Changed("envelope") {
		f.envelope = d.Envelope
	}
	return job
}

// newEngine reads the key and builds an engine for job. The key buffer is
// wiped before returning.
func (f *cryptFlags) newEngine(cmd *cobra.Command, job *config.Job) (*engine.Engine, []byte, error) {
	key, err := readKey(cmd, f.key, f.keyMnemonic)
	if err != nil {
		return nil, nil, err
	}
	defer secure.Zero(key)
	job.Key = hexKey(key)

	opts, iv, err := job.Options()
	job.Key = ""
	if err != nil {
		return nil, nil, err
	}
	defer secure.Zero(opts.Key)

	if err := validation.ValidateThreads(opts.Threads); err != nil {
		return nil, nil, err
	}
	opts.Sequential = f.sequential
	opts.Logger = slog.Default()

	eng, err := engine.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return eng, iv, nil
}

func NewEncryptCommand() *cobra.Command {
	var flags cryptFlags

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a file or stdin",
		Long: `Encrypt data with the Twofish-structured cipher in one of seven modes.

A random IV is generated when the mode needs one and --iv is not given. The IV
is printed to stderr; keep it, or use --envelope to store it with the output.`,
		Example: `  # Encrypt a file in CBC mode, writing a self-describing envelope
  twofish encrypt -i report.pdf -o report.json --key 000102030405060708090a0b0c0d0e0f --envelope

  # Encrypt stdin in CTR mode on 8 threads, base64 output
  echo "secret" | twofish encrypt --mode ctr --threads 8 --armor --key-mnemonic "abandon ... about"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManager()
			if err != nil {
				return err
			}
			job := flags.job(cmd, config.OperationEncrypt, m)

			eng, iv, err := flags.newEngine(cmd, job)
			if err != nil {
				return err
			}
			defer eng.Close()

			if iv == nil && eng.Mode().IVSize() > 0 {
				if iv, err = eng.GenerateIV(); err != nil {
					return err
				}
				notice(cmd, "Generated IV: %s", hex.EncodeToString(iv))
			}
			if err := validation.ValidateIV(eng.Mode(), iv); err != nil {
				return err
			}

			plaintext, err := readInput(cmd, flags.input)
			if err != nil {
				return err
			}

			ciphertext, err := eng.Encrypt(plaintext, iv)
			if err != nil {
				return fmt.Errorf("encryption failed: %w", err)
			}

			var result []byte
			switch {
			case flags.envelope:
				result, err = storage.Marshal(&storage.Envelope{
					Mode:        eng.Mode().String(),
					Padding:     eng.Padding().String(),
					Polynomial:  fmt.Sprintf("%#x", eng.Polynomial()),
					IV:          iv,
					SegmentSize: eng.SegmentSize(),
					KeyCheck:    eng.KeyCheck(),
					Ciphertext:  ciphertext,
				})
				if err != nil {
					return err
				}
			case flags.armor:
				result = []byte(base64.StdEncoding.EncodeToString(ciphertext) + "\n")
			default:
				result = ciphertext
			}

			if err := writeOutput(cmd, flags.output, result); err != nil {
				return err
			}
			if flags.output != "" {
				success(cmd, "Encrypted %d bytes to: %s", len(plaintext), flags.output)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func NewDecryptCommand() *cobra.Command {
	var flags cryptFlags

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a file or stdin",
		Long: `Decrypt data produced by 'twofish encrypt'.

Envelopes are detected automatically; their mode, padding, polynomial and IV
override the flags, and the stored key check rejects a wrong key before any
data is decrypted.`,
		Example: `  # Decrypt an envelope
  twofish decrypt -i report.json -o report.pdf --key 000102030405060708090a0b0c0d0e0f

  # Decrypt base64 CTR output
  twofish decrypt --mode ctr --iv 0001020304050607 --armor --key-mnemonic "abandon ... about" < secret.b64`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManager()
			if err != nil {
				return err
			}

			data, err := readInput(cmd, flags.input)
			if err != nil {
				return err
			}

			var env *storage.Envelope
			if flags.envelope || storage.IsEnvelope(data) {
				if env, err = storage.Unmarshal(data); err != nil {
					return err
				}
				flags.mode = env.Mode
				flags.padding = env.Padding
				flags.polynomial = env.Polynomial
				flags.iv = hex.EncodeToString(env.IV)
				flags.segmentSize = env.SegmentSize
			}

			job := flags.job(cmd, config.OperationDecrypt, m)
			eng, iv, err := flags.newEngine(cmd, job)
			if err != nil {
				return err
			}
			defer eng.Close()

			var ciphertext []byte
			switch {
			case env != nil:
				if err := eng.VerifyKeyCheck(env.KeyCheck); err != nil {
					return err
				}
				ciphertext = env.Ciphertext
			case flags.armor:
				if ciphertext, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(data))); err != nil {
					return fmt.Errorf("failed to decode base64: %w", err)
				}
			default:
				ciphertext = data
			}

			if err := validation.ValidateIV(eng.Mode(), iv); err != nil {
				return fmt.Errorf("%w: pass it with --iv", err)
			}

			plaintext, err := eng.Decrypt(ciphertext, iv)
			if err != nil {
				return fmt.Errorf("decryption failed: %w", err)
			}

			if err := writeOutput(cmd, flags.output, plaintext); err != nil {
				return err
			}
			if flags.output != "" {
				success(cmd, "Decrypted %d bytes to: %s", len(plaintext), flags.output)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
