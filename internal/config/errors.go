package config

import "errors"

// Sentinel errors for configuration handling.
var (
	// ErrUnknownKey indicates a key that is not a recognized setting.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value that does not parse for its key.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrNotDirectory indicates output-dir points at a file.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrNotWritable indicates output-dir cannot be written to.
	ErrNotWritable = errors.New("directory is not writable")
)
