package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the twofish command tree. --verbose lowers level
// to Debug before any subcommand runs.
func NewRootCommand(version string, level *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "twofish",
		Short: "Twofish-structured block cipher with seven modes of operation",
		Long: `twofish encrypts and decrypts data with a 128-bit Twofish-structured block
cipher whose MDS field polynomial is selectable.

Features:
- 128, 192 and 256-bit keys, given as hex or as a BIP-39 phrase
- ECB, CBC, PCBC, CFB, OFB, CTR and RandomDelta modes
- Zero, ANSI X9.23, PKCS#7 and ISO 10126 padding
- Parallel ECB and CTR on a bounded worker pool
- Job files compatible with the classic "key = value" input.txt format`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
	}

	rootCmd.AddCommand(
		NewEncryptCommand(),
		NewDecryptCommand(),
		NewRunCommand(),
		NewKeygenCommand(),
		NewInfoCommand(),
		NewSelftestCommand(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")

	return rootCmd
}
