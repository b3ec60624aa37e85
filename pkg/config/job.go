// Package config loads job descriptions and persistent CLI defaults.
//
// A job names a key, a mode of operation, a padding scheme and the files to
// process. Jobs come from either a line-oriented "key = value" file or a
// JSON object with the same field names.
package config

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Davincible/twofish/pkg/crypto/gf256"
	"github.com/Davincible/twofish/pkg/crypto/modes"
	"github.com/Davincible/twofish/pkg/crypto/padding"
	"github.com/Davincible/twofish/pkg/engine"
)

// Operations accepted in a job.
const (
	OperationEncrypt = "encrypt"
	OperationDecrypt = "decrypt"
)

// DefaultThreads is the worker count used when a job does not set one.
const DefaultThreads = 4

// Job is one encrypt or decrypt run. Key and IV are hex strings. Polynomial
// is hex, with or without a 0x prefix.
type Job struct {
	Key         string `json:"key"`
	Mode        string `json:"mode"`
	Padding     string `json:"padding"`
	Polynomial  string `json:"polynomial,omitempty"`
	IV          string `json:"iv,omitempty"`
	Threads     int    `json:"threads,omitempty"`
	SegmentSize int    `json:"segment_size,omitempty"`
	Operation   string `json:"operation"`
	Input       string `json:"input"`
	Output      string `json:"output,omitempty"`
}

// LoadJob reads a job file. Files whose first non-space byte is '{' are
// decoded as JSON; everything else is parsed by ParseJob.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		job := &Job{}
		if err := json.Unmarshal(data, job); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
		job.Mode = strings.ToLower(strings.TrimSpace(job.Mode))
		job.Padding = strings.ToLower(strings.TrimSpace(job.Padding))
		job.Operation = strings.ToLower(strings.TrimSpace(job.Operation))
		if err := job.finish(); err != nil {
			return nil, err
		}
		return job, nil
	}

	job, err := ParseJob(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// ParseJob reads "key = value" lines. Blank lines and lines starting with '#'
// are skipped, keys are case-insensitive and unknown keys are ignored.
func ParseJob(r io.Reader) (*Job, error) {
	job := &Job{}
	scanner := bufio.NewScanner(r)

	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		switch name {
		case "key":
			job.Key = value
		case "mode":
			job.Mode = strings.ToLower(value)
		case "padding":
			job.Padding = strings.ToLower(value)
		case "polynomial":
			if _, err := ParsePolynomial(value); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			job.Polynomial = value
		case "iv":
			job.IV = value
		case "threads", "segment_size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s is not an integer: %q", ErrInvalid, lineNum, name, value)
			}
			if name == "threads" {
				job.Threads = n
			} else {
				job.SegmentSize = n
			}
		case "operation":
			job.Operation = strings.ToLower(value)
		case "input":
			job.Input = value
		case "output":
			job.Output = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}

	if err := job.finish(); err != nil {
		return nil, err
	}
	return job, nil
}

// finish checks required fields and fills output and thread defaults.
func (j *Job) finish() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"key", j.Key},
		{"mode", j.Mode},
		{"padding", j.Padding},
		{"operation", j.Operation},
		{"input", j.Input},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required parameters: %s", ErrInvalid, strings.Join(missing, ", "))
	}

	switch j.Operation {
	case OperationEncrypt, OperationDecrypt:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalid, j.Operation)
	}

	if j.Output == "" {
		if j.Operation == OperationEncrypt {
			j.Output = j.Input + ".enc"
		} else {
			j.Output = j.Input + ".dec"
		}
	}
	if j.Threads == 0 {
		j.Threads = DefaultThreads
	}
	return nil
}

// Options converts the job into engine options and the decoded IV. The
// returned key is owned by the caller and should be wiped after use.
func (j *Job) Options() (engine.Options, []byte, error) {
	opts := engine.DefaultOptions()

	key, err := hex.DecodeString(j.Key)
	if err != nil {
		return opts, nil, fmt.Errorf("%w: key is not valid hex: %v", ErrInvalid, err)
	}
	opts.Key = key

	if opts.Mode, err = modes.ParseKind(j.Mode); err != nil {
		return opts, nil, err
	}
	if opts.Padding, err = padding.Parse(j.Padding); err != nil {
		return opts, nil, err
	}
	if j.Polynomial != "" {
		if opts.Polynomial, err = ParsePolynomial(j.Polynomial); err != nil {
			return opts, nil, err
		}
	}

	if j.Threads < 1 {
		return opts, nil, fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalid, j.Threads)
	}
	opts.Threads = j.Threads
	if j.SegmentSize != 0 {
		opts.SegmentSize = j.SegmentSize
	}

	var iv []byte
	if j.IV != "" {
		if iv, err = hex.DecodeString(j.IV); err != nil {
			return opts, nil, fmt.Errorf("%w: iv is not valid hex: %v", ErrInvalid, err)
		}
	}

	return opts, iv, nil
}

// ParsePolynomial parses a hex polynomial such as "11B" or "0x11b" and checks
// it against the supported set.
func ParsePolynomial(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: polynomial %q is not hex", ErrInvalid, s)
	}
	if !gf256.Supported(uint16(v)) {
		return 0, fmt.Errorf("%w: %#x", gf256.ErrUnsupportedPolynomial, v)
	}
	return uint16(v), nil
}
