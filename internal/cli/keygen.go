package cli

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/twofish/pkg/config"
	"github.com/Davincible/twofish/pkg/crypto/mnemonic"
	"github.com/Davincible/twofish/pkg/engine"
	"github.com/Davincible/twofish/pkg/secure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// KeyInfo is the JSON form of a generated key.
type KeyInfo struct {
	Bits       int    `json:"bits"`
	Key        string `json:"key"`
	Mnemonic   string `json:"mnemonic,omitempty"`
	Polynomial string `json:"polynomial"`
	KeyCheck   string `json:"key_check"`
}

func NewKeygenCommand() *cobra.Command {
	var (
		bits         int
		showMnemonic bool
		polynomial   string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random key",
		Long: `Generate a random 128, 192 or 256-bit key from the system CSPRNG.

The key is printed as hex, optionally with its BIP-39 phrase, which
--key-mnemonic accepts in place of --key.`,
		Example: `  # 256-bit key with its mnemonic
  twofish keygen --bits 256 --mnemonic

  # As JSON
  twofish keygen --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")

			poly, err := config.ParsePolynomial(polynomial)
			if err != nil {
				return err
			}

			key, err := mnemonic.NewKey(bits)
			if err != nil {
				return err
			}
			defer secure.Zero(key)

			eng, err := engine.New(engine.Options{Key: key, Polynomial: poly})
			if err != nil {
				return err
			}
			defer eng.Close()

			info := KeyInfo{
				Bits:       bits,
				Key:        hexKey(key),
				Polynomial: fmt.Sprintf("%#x", poly),
				KeyCheck:   eng.KeyCheck(),
			}
			if showMnemonic {
				if info.Mnemonic, err = mnemonic.FromKey(key); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintln(w, info.Key)
			if info.Mnemonic != "" {
				fmt.Fprintln(w, info.Mnemonic)
			}
			notice(cmd, "Key check (%s): %s", info.Polynomial, info.KeyCheck)
			color.New(color.FgRed, color.Bold).Fprintln(cmd.ErrOrStderr(),
				"Store this key securely. Data encrypted with it cannot be recovered without it.")
			return nil
		},
	}

	cmd.Flags().IntVar(&bits, "bits", 256, "Key size in bits: 128, 192 or 256")
	cmd.Flags().BoolVar(&showMnemonic, "mnemonic", false, "Also print the key as a BIP-39 phrase")
	cmd.Flags().StringVar(&polynomial, "polynomial", "0x11b", "Polynomial for the key check value")

	return cmd
}
