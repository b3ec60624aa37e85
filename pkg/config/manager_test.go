package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twofish", "config.json")

	m, err := NewManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDefaults(), m.Defaults())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading must not create the file")
}

func TestManagerSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m, err := NewManagerAt(path)
	require.NoError(t, err)

	d := m.Defaults()
	d.Mode = "ctr"
	d.Threads = 8
	d.Armor = true
	require.NoError(t, m.SetDefaults(d))
	require.NoError(t, m.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := NewManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, d, loaded.Defaults())
}

func TestManagerPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode": "ofb"}`), 0o600))

	m, err := NewManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, "ofb", m.Defaults().Mode)
	assert.Equal(t, DefaultThreads, m.Defaults().Threads)
}

func TestManagerRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"mode": "xts"}`), 0o600))
	_, err := NewManagerAt(bad)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`mode=ofb`), 0o600))
	_, err = NewManagerAt(garbage)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetDefaultsValidates(t *testing.T) {
	m, err := NewManagerAt(filepath.Join(t.TempDir(), "c.json"))
	require.NoError(t, err)

	d := m.Defaults()
	d.SegmentSize = 20
	assert.ErrorIs(t, m.SetDefaults(d), ErrInvalid)

	d = m.Defaults()
	d.Threads = 0
	assert.ErrorIs(t, m.SetDefaults(d), ErrInvalid)
	assert.Equal(t, DefaultDefaults(), m.Defaults())
}

func TestApplyDefaults(t *testing.T) {
	m, err := NewManagerAt(filepath.Join(t.TempDir(), "c.json"))
	require.NoError(t, err)

	job := &Job{Mode: "ecb"}
	m.ApplyDefaults(job)
	assert.Equal(t, "ecb", job.Mode)
	assert.Equal(t, "pkcs7", job.Padding)
	assert.Equal(t, "0x11b", job.Polynomial)
	assert.Equal(t, DefaultThreads, job.Threads)
	assert.Equal(t, 16, job.SegmentSize)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("TWOFISH_CONFIG", "/tmp/custom.json")
	p, err := configPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", p)

	t.Setenv("TWOFISH_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err = configPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "twofish", "config.json"), p)
}
