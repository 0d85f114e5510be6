package config

import "errors"

var (
	ErrParsingConfig = errors.New("config: failed to parse environment")
	ErrEnvFile       = errors.New("config: failed to load env file")
)
