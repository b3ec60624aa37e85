package config

import "errors"

// ErrInvalid is returned for a job or defaults file that is malformed or
// names an unsupported value.
var ErrInvalid = errors.New("config: invalid configuration")
