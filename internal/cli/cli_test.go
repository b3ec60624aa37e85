package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Davincible/twofish/pkg/crypto/mnemonic"
	"github.com/Davincible/twofish/pkg/engine"
	"github.com/Davincible/twofish/pkg/storage"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zeroKey = "00000000000000000000000000000000"

var zeroKeyPhrase = strings.TrimSpace(strings.Repeat("abandon ", 11)) + " about"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// execute runs the command tree with isolated config and captured streams.
func execute(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("TWOFISH_CONFIG", filepath.Join(t.TempDir(), "config.json"))
	return executeWithConfig(t, stdin, args...)
}

func executeWithConfig(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	root := NewRootCommand("test", new(slog.LevelVar))
	root.SetArgs(args)
	root.SetIn(bytes.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestEncryptDecryptFiles(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.bin")
	enc := filepath.Join(dir, "plain.bin.enc")
	dec := filepath.Join(dir, "plain.bin.dec")
	require.NoError(t, os.WriteFile(plain, seq(40), 0o600))

	iv := hex.EncodeToString(seq(16))
	common := []string{"--key", zeroKey, "--mode", "cbc", "--padding", "pkcs7", "--iv", iv}

	_, stderr, err := execute(t, nil, append([]string{"encrypt", "-i", plain, "-o", enc}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Encrypted 40 bytes")

	ct, err := os.ReadFile(enc)
	require.NoError(t, err)
	assert.Equal(t,
		"c20d7270db9cebbd34dc9bf9a266d6ab6a4d0843480d8377a53e1fb0e1183624f0fc51b767724c64ad2454c3cbd5cc9b",
		hex.EncodeToString(ct))

	info, err := os.Stat(enc)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, _, err = execute(t, nil, append([]string{"decrypt", "-i", enc, "-o", dec}, common...)...)
	require.NoError(t, err)

	pt, err := os.ReadFile(dec)
	require.NoError(t, err)
	assert.Equal(t, seq(40), pt)
}

func TestEncryptWithMnemonicKey(t *testing.T) {
	stdout, _, err := execute(t, bytes.Repeat([]byte("A"), 17),
		"encrypt", "--key-mnemonic", zeroKeyPhrase, "--mode", "ecb", "--padding", "pkcs7")
	require.NoError(t, err)
	assert.Equal(t, "3f4d38aec55d40ab420fac79760451026efdcbf56bb30ff286e7bf6f2bb5bc76",
		hex.EncodeToString([]byte(stdout)))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "secret.json")
	key := strings.Repeat("5a", 24)
	message := []byte("the quick brown fox jumps over the lazy dog")

	_, stderr, err := execute(t, message,
		"encrypt", "-o", out, "--key", key, "--mode", "cfb", "--segment-size", "4",
		"--polynomial", "0x14d", "--envelope")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Generated IV: ")

	env, err := storage.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "cfb", env.Mode)
	assert.Equal(t, "0x14d", env.Polynomial)
	assert.Equal(t, 4, env.SegmentSize)
	assert.Len(t, env.IV, 16)
	assert.Len(t, env.Ciphertext, len(message))

	// Mode and IV come from the envelope, not from flags.
	stdout, _, err := execute(t, nil, "decrypt", "-i", out, "--key", key, "--mode", "ecb")
	require.NoError(t, err)
	assert.Equal(t, string(message), stdout)

	_, _, err = execute(t, nil, "decrypt", "-i", out, "--key", strings.Repeat("5b", 24))
	assert.ErrorIs(t, err, engine.ErrKeyMismatch)
}

func TestArmorCTR(t *testing.T) {
	message := []byte("streamed through stdin")
	nonce := "0001020304050607"

	stdout, _, err := execute(t, message,
		"encrypt", "--key", zeroKey, "--mode", "ctr", "--iv", nonce, "--armor", "--threads", "3")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Len(t, raw, len(message))

	plain, _, err := execute(t, []byte(stdout),
		"decrypt", "--key", zeroKey, "--mode", "ctr", "--iv", nonce, "--armor", "--sequential")
	require.NoError(t, err)
	assert.Equal(t, string(message), plain)
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"no key", []string{"encrypt", "--mode", "ecb"}, "no key given"},
		{"both keys", []string{"encrypt", "--key", zeroKey, "--key-mnemonic", zeroKeyPhrase}, "not both"},
		{"short key", []string{"encrypt", "--key", "0011"}, "16, 24 or 32 bytes"},
		{"bad mnemonic", []string{"encrypt", "--key-mnemonic", "one two three"}, "invalid key mnemonic"},
		{"unknown mode", []string{"encrypt", "--key", zeroKey, "--mode", "xts"}, "unknown mode"},
		{"unsupported polynomial", []string{"encrypt", "--key", zeroKey, "--polynomial", "0x11c"}, "unsupported"},
		{"iv for ecb", []string{"encrypt", "--key", zeroKey, "--mode", "ecb", "--iv", "00"}, "does not take an IV"},
		{"missing iv", []string{"decrypt", "--key", zeroKey, "--mode", "cbc"}, "--iv"},
		{"bad threads", []string{"encrypt", "--key", zeroKey, "--mode", "ecb", "--threads", "-2"}, "threads"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, []byte("data"), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestDecryptRejectsBadPadding(t *testing.T) {
	_, _, err := execute(t, make([]byte, 16), "decrypt", "--key", zeroKey, "--mode", "ecb", "--padding", "ansi_x923")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestConfigDefaultsApply(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"mode": "ofb", "armor": true}`), 0o600))
	t.Setenv("TWOFISH_CONFIG", cfg)

	iv := hex.EncodeToString(seq(16))
	stdout, _, err := executeWithConfig(t, seq(40), "encrypt", "--key", zeroKey, "--iv", iv)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stdout))
	require.NoError(t, err)
	assert.Equal(t,
		"6240054e6a7827e6f5a7a7e54d6e6948b6be21f3d900f83f7b258ce3c37bbb239631cd2e4f260994",
		hex.EncodeToString(raw))

	// An explicit flag beats the config file.
	stdout, _, err = executeWithConfig(t, seq(40), "encrypt", "--key", zeroKey, "--iv", iv, "--armor=false")
	require.NoError(t, err)
	assert.Len(t, stdout, 40)
}

func writeJob(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRunJobs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "message.txt")
	message := bytes.Repeat([]byte("job file payload "), 300)
	require.NoError(t, os.WriteFile(input, message, 0o600))

	key := "000102030405060708090a0b0c0d0e0f1011121314151617"
	nonce := "a1a2a3a4a5a6a7a8"

	encJob := writeJob(t, dir, "encrypt.txt", fmt.Sprintf(`# encrypt
key = %s
mode = CTR
padding = pkcs7
polynomial = 11D
iv = %s
threads = 2
operation = encrypt
input = %s
`, key, nonce, input))

	_, stderr, err := execute(t, nil, "run", encJob)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Job loaded from")
	assert.NotContains(t, stderr, key, "the full key must not be echoed")

	ct, err := os.ReadFile(input + ".enc")
	require.NoError(t, err)
	assert.Len(t, ct, len(message))
	assert.NotEqual(t, message, ct)

	decJob := writeJob(t, dir, "decrypt.json", fmt.Sprintf(
		`{"key": %q, "mode": "ctr", "padding": "pkcs7", "polynomial": "0x11d", "iv": %q,
		  "operation": "decrypt", "input": %q, "output": %q}`,
		key, nonce, input+".enc", filepath.Join(dir, "roundtrip.txt")))

	_, _, err = execute(t, nil, "run", decJob, "--sequential")
	require.NoError(t, err)

	pt, err := os.ReadFile(filepath.Join(dir, "roundtrip.txt"))
	require.NoError(t, err)
	assert.Equal(t, message, pt)
}

func TestRunDefaultJobFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.bin"), []byte("hello"), 0o600))
	writeJob(t, dir, DefaultJobFile, "key = "+zeroKey+"\nmode = ecb\npadding = iso_10126\noperation = encrypt\ninput = data.bin\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, _, err = execute(t, nil, "run")
	require.NoError(t, err)

	ct, err := os.ReadFile(filepath.Join(dir, "data.bin.enc"))
	require.NoError(t, err)
	assert.Len(t, ct, 16)
}

func TestRunJobErrors(t *testing.T) {
	dir := t.TempDir()

	missing := writeJob(t, dir, "missing.txt", "key = "+zeroKey+"\nmode = ecb\n")
	_, _, err := execute(t, nil, "run", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "padding, operation, input")

	noIV := writeJob(t, dir, "noiv.txt", "key = "+zeroKey+"\nmode = cbc\npadding = pkcs7\noperation = decrypt\ninput = x\n")
	_, _, err = execute(t, nil, "run", noIV)
	require.Error(t, err)

	_, _, err = execute(t, nil, "run", filepath.Join(dir, "absent.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestKeygen(t *testing.T) {
	for _, bits := range []int{128, 192, 256} {
		t.Run(fmt.Sprint(bits), func(t *testing.T) {
			stdout, _, err := execute(t, nil, "keygen", "--bits", fmt.Sprint(bits), "--mnemonic", "--json")
			require.NoError(t, err)

			var info KeyInfo
			require.NoError(t, json.Unmarshal([]byte(stdout), &info))
			assert.Equal(t, bits, info.Bits)
			assert.Len(t, info.Key, bits/4)
			assert.Len(t, info.KeyCheck, 8)
			assert.Equal(t, "0x11b", info.Polynomial)

			key, err := mnemonic.ToKey(info.Mnemonic)
			require.NoError(t, err)
			assert.Equal(t, info.Key, hex.EncodeToString(key))
		})
	}

	stdout, _, err := execute(t, nil, "keygen", "--bits", "128")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Len(t, lines[0], 32)

	_, _, err = execute(t, nil, "keygen", "--bits", "100")
	assert.ErrorIs(t, err, mnemonic.ErrKeySize)
}

func TestInfo(t *testing.T) {
	stdout, _, err := execute(t, nil, "info", "--json", "--key", zeroKey)
	require.NoError(t, err)

	var info Info
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Len(t, info.Modes, 7)
	assert.Equal(t, []string{"zeros", "ansi_x923", "pkcs7", "iso_10126"}, info.Paddings)
	assert.Len(t, info.Polynomials, 30)
	assert.Equal(t, "36d7e67e", info.KeyCheck)

	var defaults int
	for _, p := range info.Polynomials {
		if p.Default {
			defaults++
			assert.Equal(t, "0x11b", p.Polynomial)
			assert.Equal(t, "0x03", p.Generator)
		}
	}
	assert.Equal(t, 1, defaults)

	stdout, _, err = execute(t, nil, "info")
	require.NoError(t, err)
	assert.Contains(t, stdout, "randomdelta")
	assert.Contains(t, stdout, "0x11b  generator 0x03 (default)")
	assert.NotContains(t, stdout, "Key check")
}

func TestSelftest(t *testing.T) {
	stdout, _, err := execute(t, nil, "selftest", "--polynomial", "0x11d")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS 57 cases over 1 polynomials")

	cases, failures := runSelftest(0x171, slog.Default())
	assert.Equal(t, 57, cases)
	assert.Empty(t, failures)
}
