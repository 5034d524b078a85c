package config

import "errors"

// ErrInvalidConfig is returned when the merged configuration fails
// validation. Callers should treat it as fatal at startup.
var ErrInvalidConfig = errors.New("invalid configuration")
