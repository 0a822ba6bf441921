package config

import "errors"

var (
	// ErrUnknownKey indicates a key that is not a configuration setting.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value that cannot be stored under its key.
	ErrInvalidValue = errors.New("invalid config value")
)
