package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/Davincible/twofish/internal/validation"
	"github.com/Davincible/twofish/pkg/config"
	"github.com/Davincible/twofish/pkg/crypto/mnemonic"
	"github.com/Davincible/twofish/pkg/secure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readKey resolves the key from --key, --key-mnemonic or, when stdin is a
// terminal, a hidden prompt that accepts either form.
func readKey(cmd *cobra.Command, keyHex, phrase string) ([]byte, error) {
	switch {
	case keyHex != "" && phrase != "":
		return nil, fmt.Errorf("use either --key or --key-mnemonic, not both")
	case keyHex != "":
		return parseKey(keyHex)
	case phrase != "":
		key, err := mnemonic.ToKey(phrase)
		if err != nil {
			return nil, fmt.Errorf("invalid key mnemonic: %w", err)
		}
		return key, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("no key given: use --key or --key-mnemonic")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Enter key (hex or mnemonic): ")
	entered, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer secure.Zero(entered)

	if mnemonic.WordCount(string(entered)) > 1 {
		return mnemonic.ToKey(string(entered))
	}
	return parseKey(string(entered))
}

func parseKey(s string) ([]byte, error) {
	if err := validation.ValidateKeyHex(s); err != nil {
		return nil, err
	}
	return validation.DecodeHex(s)
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

// writeOutput writes data to path with owner-only permissions, or to stdout
// when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// loadManager loads the persistent defaults.
func loadManager() (*config.Manager, error) {
	m, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return m, nil
}

// Status lines go to stderr so stdout carries only data.
func success(cmd *cobra.Command, format string, args ...any) {
	color.New(color.FgGreen, color.Bold).Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func notice(cmd *cobra.Command, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

func hexKey(key []byte) string { return hex.EncodeToString(key) }
