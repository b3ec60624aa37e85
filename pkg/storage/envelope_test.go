package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEnvelope() *Envelope {
	return &Envelope{
		Mode:        "cfb",
		Padding:     "pkcs7",
		Polynomial:  "0x11b",
		IV:          []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		SegmentSize: 4,
		KeyCheck:    "36d7e67e",
		Ciphertext:  []byte{0xde, 0xad, 0xbe, 0xef, 0x00},
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "secret.json")
	env := sampleEnvelope()

	require.NoError(t, Save(path, env))
	assert.Equal(t, Version, env.Version)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, env, loaded)
}

func TestMarshalUsesBase64(t *testing.T) {
	data, err := Marshal(sampleEnvelope())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ciphertext": "3q2+7wA="`)
	assert.Contains(t, string(data), `"version": 1`)
	assert.True(t, IsEnvelope(data))
}

func TestUnmarshalVersion(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version": 2, "ciphertext": ""}`))
	assert.ErrorIs(t, err, ErrVersion)

	_, err = Unmarshal([]byte(`{"ciphertext": ""}`))
	assert.ErrorIs(t, err, ErrVersion)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestIsEnvelope(t *testing.T) {
	assert.False(t, IsEnvelope([]byte{0x01, 0x02, 0x03}))
	assert.False(t, IsEnvelope([]byte(`{"mode": "ecb"}`)))
	assert.False(t, IsEnvelope([]byte(`{"version": 1}`)))
	assert.True(t, IsEnvelope([]byte(`{"version": 1, "ciphertext": "AA=="}`)))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
