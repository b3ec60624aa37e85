package cli

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/Davincible/twofish/pkg/config"
	"github.com/Davincible/twofish/pkg/crypto/gf256"
	"github.com/Davincible/twofish/pkg/crypto/modes"
	"github.com/Davincible/twofish/pkg/crypto/padding"
	"github.com/Davincible/twofish/pkg/engine"
	"github.com/Davincible/twofish/pkg/secure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// selftestSizes are plaintext lengths around block boundaries.
var selftestSizes = []int{0, 1, 15, 16, 17, 31, 4096, 4097}

// runSelftest round-trips random data through every mode, padding and key
// size and returns the number of cases run and the failures.
func runSelftest(poly uint16, logger *slog.Logger) (int, []error) {
	var (
		cases    int
		failures []error
	)

	for _, keyLen := range []int{16, 24, 32} {
		for _, kind := range modes.Kinds {
			for _, scheme := range padding.Schemes {
				if !kind.Padded() && scheme != padding.PKCS7 {
					continue
				}
				cases++
				if err := selftestCase(keyLen, kind, scheme, poly, logger); err != nil {
					failures = append(failures, fmt.Errorf("%v/%v/%d-bit: %w", kind, scheme, 8*keyLen, err))
				}
			}
		}
	}
	return cases, failures
}

func selftestCase(keyLen int, kind modes.Kind, scheme padding.Scheme, poly uint16, logger *slog.Logger) error {
	key, err := secure.SecureRandom(keyLen)
	if err != nil {
		return err
	}
	defer secure.Zero(key)

	eng, err := engine.New(engine.Options{
		Key:        key,
		Mode:       kind,
		Padding:    scheme,
		Polynomial: poly,
		Threads:    4,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	for _, n := range selftestSizes {
		data, err := secure.SecureRandom(n)
		if err != nil {
			return err
		}
		if scheme == padding.Zeros && n > 0 {
			data[n-1] |= 0x80
		}

		iv, err := eng.GenerateIV()
		if err != nil {
			return err
		}
		ct, err := eng.Encrypt(data, iv)
		if err != nil {
			return fmt.Errorf("encrypt %d bytes: %w", n, err)
		}
		pt, err := eng.Decrypt(ct, iv)
		if err != nil {
			return fmt.Errorf("decrypt %d bytes: %w", n, err)
		}
		if !bytes.Equal(data, pt) {
			return fmt.Errorf("round trip of %d bytes does not match", n)
		}
	}
	return nil
}

func NewSelftestCommand() *cobra.Command {
	var polynomial string

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Round-trip random data through every mode, padding and key size",
		RunE: func(cmd *cobra.Command, args []string) error {
			polys := gf256.Polynomials[:]
			if polynomial != "" {
				p, err := config.ParsePolynomial(polynomial)
				if err != nil {
					return err
				}
				polys = []uint16{p}
			}

			total := 0
			var failures []error
			for _, p := range polys {
				n, errs := runSelftest(p, slog.Default())
				total += n
				for _, err := range errs {
					failures = append(failures, fmt.Errorf("%#x %w", p, err))
				}
			}

			w := cmd.OutOrStdout()
			red := color.New(color.FgRed, color.Bold)
			for _, err := range failures {
				red.Fprintf(w, "FAIL %v\n", err)
			}
			if len(failures) > 0 {
				return fmt.Errorf("selftest: %d of %d cases failed", len(failures), total)
			}

			color.New(color.FgGreen, color.Bold).Fprintf(w, "PASS %d cases over %d polynomials\n", total, len(polys))
			return nil
		},
	}

	cmd.Flags().StringVar(&polynomial, "polynomial", "", "Test only this polynomial (default all)")

	return cmd
}
