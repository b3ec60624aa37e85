// Package storage persists ciphertext together with the parameters needed to
// decrypt it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Version is the envelope format written by this package.
const Version = 1

// ErrVersion is returned when an envelope was written by an unsupported
// format version.
var ErrVersion = errors.New("storage: unsupported envelope version")

// Envelope carries a ciphertext and its parameters. It holds no key. KeyCheck
// lets the reader reject a wrong key before decrypting.
type Envelope struct {
	Version     int    `json:"version"`
	Mode        string `json:"mode"`
	Padding     string `json:"padding"`
	Polynomial  string `json:"polynomial"`
	IV          []byte `json:"iv,omitempty"`
	SegmentSize int    `json:"segment_size,omitempty"`
	KeyCheck    string `json:"key_check"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Marshal encodes env as indented JSON, setting the current version when it
// is unset.
func Marshal(env *Envelope) ([]byte, error) {
	if env.Version == 0 {
		env.Version = Version
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Unmarshal decodes an envelope and checks its version.
func Unmarshal(data []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	return env, nil
}

// Save writes env to path with owner-only permissions, creating parent
// directories as needed.
func Save(path string, env *Envelope) error {
	data, err := Marshal(env)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load reads an envelope from path.
func Load(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Unmarshal(data)
}

// IsEnvelope reports whether data looks like an encoded envelope.
func IsEnvelope(data []byte) bool {
	var probe struct {
		Version    int             `json:"version"`
		Ciphertext json.RawMessage `json:"ciphertext"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Version != 0 && probe.Ciphertext != nil
}
