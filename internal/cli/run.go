package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/Davincible/twofish/internal/validation"
	"github.com/Davincible/twofish/pkg/config"
	"github.com/Davincible/twofish/pkg/engine"
	"github.com/Davincible/twofish/pkg/secure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// DefaultJobFile is read by 'run' when no job file is given.
const DefaultJobFile = "input.txt"

func NewRunCommand() *cobra.Command {
	var sequential bool

	cmd := &cobra.Command{
		Use:   "run [job-file]",
		Short: "Run an encrypt or decrypt job described in a file",
		Long: `Run a job file. The file holds "key = value" lines (or the same fields
as a JSON object):

  key        = 000102030405060708090a0b0c0d0e0f   (required, hex)
  mode       = cbc                                (required)
  padding    = pkcs7                              (required)
  operation  = encrypt                            (required: encrypt or decrypt)
  input      = plain.txt                          (required)
  output     = plain.txt.enc                      (default input + .enc or .dec)
  polynomial = 11b                                (hex)
  iv         = 00112233445566778899aabbccddeeff   (hex)
  threads    = 4

Lines starting with # are comments.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultJobFile
			if len(args) == 1 {
				path = args[0]
			}

			job, err := config.LoadJob(path)
			if err != nil {
				return err
			}

			m, err := loadManager()
			if err != nil {
				return err
			}
			m.ApplyDefaults(job)
			printJob(cmd, path, job)

			opts, iv, err := job.Options()
			if err != nil {
				return err
			}
			defer secure.Zero(opts.Key)
			if err := validation.ValidateThreads(opts.Threads); err != nil {
				return err
			}
			opts.Sequential = sequential
			opts.Logger = slog.Default()

			eng, err := engine.New(opts)
			if err != nil {
				return err
			}
			defer eng.Close()

			if iv == nil && job.Operation == config.OperationEncrypt && eng.Mode().IVSize() > 0 {
				if iv, err = eng.GenerateIV(); err != nil {
					return err
				}
				notice(cmd, "Generated IV: %s", hex.EncodeToString(iv))
			}
			if err := validation.ValidateIV(eng.Mode(), iv); err != nil {
				return err
			}

			data, err := os.ReadFile(job.Input)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}

			var out []byte
			if job.Operation == config.OperationEncrypt {
				out, err = eng.Encrypt(data, iv)
			} else {
				out, err = eng.Decrypt(data, iv)
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", job.Operation, err)
			}

			if err := writeOutput(cmd, job.Output, out); err != nil {
				return err
			}

			success(cmd, "%sed %d bytes: %s -> %s", capitalize(job.Operation), len(data), job.Input, job.Output)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sequential, "sequential", false, "Disable parallel processing")

	return cmd
}

// printJob shows the loaded job with the key shortened.
func printJob(cmd *cobra.Command, path string, job *config.Job) {
	w := cmd.ErrOrStderr()
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Job loaded from %s\n", path)
	fmt.Fprintf(w, "  key:        %s (%d bytes)\n", shorten(job.Key, 8), len(job.Key)/2)
	fmt.Fprintf(w, "  mode:       %s\n", job.Mode)
	fmt.Fprintf(w, "  padding:    %s\n", job.Padding)
	fmt.Fprintf(w, "  polynomial: %s\n", job.Polynomial)
	fmt.Fprintf(w, "  threads:    %d\n", job.Threads)
	fmt.Fprintf(w, "  operation:  %s\n", job.Operation)
	fmt.Fprintf(w, "  input:      %s\n", job.Input)
	fmt.Fprintf(w, "  output:     %s\n", job.Output)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
