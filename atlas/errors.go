package atlas

import "errors"

// Package errors.
var (
	// ErrAtlasFull is returned when no page has room for a new glyph and
	// the page limit has been reached.
	ErrAtlasFull = errors.New("atlas: all pages full")

	// ErrAllocationFailed is returned when a page reported free space but
	// the allocation did not succeed.
	ErrAllocationFailed = errors.New("atlas: cell allocation failed")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
