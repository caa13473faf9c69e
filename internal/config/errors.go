package config

import "errors"

var (
	// ErrInvalidConfig wraps validator failures on a loaded Config.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, env and decoding failures.
	ErrLoadConfig = errors.New("load config failed")
)
