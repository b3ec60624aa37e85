package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Davincible/twofish/pkg/crypto/modes"
	"github.com/Davincible/twofish/pkg/crypto/padding"
)

// Defaults are the values the CLI uses for flags the user did not set.
type Defaults struct {
	Mode        string `json:"mode"`
	Padding     string `json:"padding"`
	Polynomial  string `json:"polynomial"`
	Threads     int    `json:"threads"`
	SegmentSize int    `json:"segment_size"`
	Armor       bool   `json:"armor"`    // base64 output
	Envelope    bool   `json:"envelope"` // JSON envelope output
}

// DefaultDefaults returns the built-in defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Mode:        modes.CBC.String(),
		Padding:     padding.PKCS7.String(),
		Polynomial:  "0x11b",
		Threads:     DefaultThreads,
		SegmentSize: modes.BlockSize,
	}
}

// Validate checks that every value names something supported.
func (d Defaults) Validate() error {
	if _, err := modes.ParseKind(d.Mode); err != nil {
		return err
	}
	if _, err := padding.Parse(d.Padding); err != nil {
		return err
	}
	if _, err := ParsePolynomial(d.Polynomial); err != nil {
		return err
	}
	if d.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalid, d.Threads)
	}
	if d.SegmentSize < 1 || d.SegmentSize > modes.BlockSize {
		return fmt.Errorf("%w: segment_size must be between 1 and %d", ErrInvalid, modes.BlockSize)
	}
	return nil
}

// Manager loads and saves the defaults file.
type Manager struct {
	path     string
	defaults Defaults
}

// NewManager resolves the defaults path from the environment and loads it.
// A missing file yields the built-in defaults and is not created.
func NewManager() (*Manager, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(path)
}

// NewManagerAt loads the defaults file at path.
func NewManagerAt(path string) (*Manager, error) {
	m := &Manager{path: path, defaults: DefaultDefaults()}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the defaults file location.
func (m *Manager) Path() string { return m.path }

// Defaults returns the current defaults.
func (m *Manager) Defaults() Defaults { return m.defaults }

// SetDefaults replaces the defaults after validating them.
func (m *Manager) SetDefaults(d Defaults) error {
	if err := d.Validate(); err != nil {
		return err
	}
	m.defaults = d
	return nil
}

// Load reads the defaults file. Fields absent from the file keep their
// built-in values.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.defaults = DefaultDefaults()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	d := DefaultDefaults()
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", ErrInvalid, m.path, err)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%s: %w", m.path, err)
	}

	m.defaults = d
	return nil
}

// Save writes the defaults file with owner-only permissions.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(m.defaults, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyDefaults fills the empty fields of job from the defaults.
func (m *Manager) ApplyDefaults(job *Job) {
	if strings.TrimSpace(job.Mode) == "" {
		job.Mode = m.defaults.Mode
	}
	if strings.TrimSpace(job.Padding) == "" {
		job.Padding = m.defaults.Padding
	}
	if job.Polynomial == "" {
		job.Polynomial = m.defaults.Polynomial
	}
	if job.Threads == 0 {
		job.Threads = m.defaults.Threads
	}
	if job.SegmentSize == 0 {
		job.SegmentSize = m.defaults.SegmentSize
	}
}

func configPath() (string, error) {
	if p := os.Getenv("TWOFISH_CONFIG"); p != "" {
		return p, nil
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "twofish", "config.json"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "twofish", "config.json"), nil
}
